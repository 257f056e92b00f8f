package lifecycle

import (
	"sort"
	"strings"

	"uniship/internal/models"
)

// sameEmail сравнивает адреса без учета регистра и пробелов
func sameEmail(a, b string) bool {
	a = strings.TrimSpace(a)
	return a != "" && strings.EqualFold(a, strings.TrimSpace(b))
}

// CanView сообщает, видит ли пользователь отправление
func CanView(s *models.Shipment, user *models.User) bool {
	if s == nil || user == nil {
		return false
	}
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return sameEmail(user.Email, s.Sender.Email) || sameEmail(user.Email, s.Recipient.Email)
	case models.RoleDeliveryPartner:
		return s.Courier != nil && user.ID != "" && s.Courier.ID == user.ID
	default:
		return false
	}
}

// CanChangeStatus сообщает, может ли пользователь менять статус отправления
func CanChangeStatus(s *models.Shipment, user *models.User) bool {
	if user == nil {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	return user.Role == models.RoleDeliveryPartner && CanView(s, user)
}

// CanEditDetails сообщает, может ли пользователь менять тариф и инструкции
func CanEditDetails(s *models.Shipment, user *models.User) bool {
	if user == nil || s == nil {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	return user.Role == models.RoleUser && sameEmail(user.Email, s.Sender.Email)
}

// VisibleShipments возвращает отправления, доступные пользователю.
// Порядок входного списка сохраняется, nil трактуется как пустой список.
func VisibleShipments(all []*models.Shipment, user *models.User) []*models.Shipment {
	visible := make([]*models.Shipment, 0, len(all))
	for _, s := range all {
		if CanView(s, user) {
			visible = append(visible, s)
		}
	}
	return visible
}

// FilterByStatus оставляет отправления с указанным статусом
func FilterByStatus(list []*models.Shipment, status models.Status) []*models.Shipment {
	filtered := make([]*models.Shipment, 0, len(list))
	for _, s := range list {
		if s.Status == status {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Search ищет по номеру отслеживания, именам сторон и описанию посылки
func Search(list []*models.Shipment, term string) []*models.Shipment {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}

	found := make([]*models.Shipment, 0, len(list))
	for _, s := range list {
		if strings.Contains(strings.ToLower(s.TrackingNumber), term) ||
			strings.Contains(strings.ToLower(s.Sender.Name), term) ||
			strings.Contains(strings.ToLower(s.Recipient.Name), term) ||
			strings.Contains(strings.ToLower(s.Package.Description), term) {
			found = append(found, s)
		}
	}
	return found
}

// RecentShipments возвращает n последних созданных отправлений, не изменяя входной список
func RecentShipments(list []*models.Shipment, n int) []*models.Shipment {
	sorted := append([]*models.Shipment(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CountByStatus считает отправления по статусам
func CountByStatus(list []*models.Shipment) map[models.Status]int {
	counts := make(map[models.Status]int, len(models.AllStatuses))
	for _, status := range models.AllStatuses {
		counts[status] = 0
	}
	for _, s := range list {
		counts[s.Status]++
	}
	return counts
}

// DestinationCount представляет количество отправлений в город назначения
type DestinationCount struct {
	Destination string `json:"destination"`
	Count       int    `json:"count"`
}

// TopDestinations возвращает n самых популярных городов назначения
func TopDestinations(list []*models.Shipment, n int) []DestinationCount {
	counts := make(map[string]int)
	for _, s := range list {
		key := models.LocationFromAddress(s.Recipient.Address).String()
		if key == "" {
			continue
		}
		counts[key]++
	}

	top := make([]DestinationCount, 0, len(counts))
	for dest, count := range counts {
		top = append(top, DestinationCount{Destination: dest, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Destination < top[j].Destination
	})
	if n >= 0 && len(top) > n {
		top = top[:n]
	}
	return top
}
