package uniapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"uniship/internal/lifecycle"
	"uniship/internal/logger"
	"uniship/internal/models"
)

// legacyPendingStatus - устаревшее название статуса created во внешнем API
const legacyPendingStatus = "pending"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// flexString принимает строку или число
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat принимает число или строку с числом
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if strings.TrimSpace(string(s)) == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

// ShipmentRecord - отправление в формате внешнего API
type ShipmentRecord struct {
	ShipmentID         flexString `json:"shipment_id"`
	TrackingNumber     string     `json:"tracking_number"`
	PackageDescription string     `json:"package_description"`
	Status             string     `json:"status"`
	Service            string     `json:"service"`
	Weight             flexFloat  `json:"weight"`
	TotalCost          flexFloat  `json:"total_cost"`
	SenderName         string     `json:"sender_name"`
	SenderEmail        string     `json:"sender_email"`
	SenderCity         string     `json:"sender_city"`
	SenderState        string     `json:"sender_state"`
	RecipientName      string     `json:"recipient_name"`
	RecipientEmail     string     `json:"recipient_email"`
	RecipientCity      string     `json:"recipient_city"`
	RecipientState     string     `json:"recipient_state"`
	CreatedAt          string     `json:"created_at"`
}

// ParseRecordStatus разбирает статус внешнего API, "pending" соответствует created
func ParseRecordStatus(s string) (models.Status, error) {
	if strings.EqualFold(strings.TrimSpace(s), legacyPendingStatus) {
		return models.StatusCreated, nil
	}
	return models.ParseStatus(s)
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ToShipment приводит запись к внутренней модели.
// История состоит из одной синтезированной записи с текущим статусом.
func (r ShipmentRecord) ToShipment() (*models.Shipment, error) {
	status, err := ParseRecordStatus(r.Status)
	if err != nil {
		return nil, err
	}

	service, err := models.ParseServiceTier(r.Service)
	if err != nil {
		service = models.DefaultServiceTier
	}

	created := parseTime(r.CreatedAt)
	sender := models.Party{
		Name:    r.SenderName,
		Email:   r.SenderEmail,
		Address: models.Address{City: r.SenderCity, State: r.SenderState},
	}
	recipient := models.Party{
		Name:    r.RecipientName,
		Email:   r.RecipientEmail,
		Address: models.Address{City: r.RecipientCity, State: r.RecipientState},
	}

	current := models.LocationFromAddress(sender.Address)
	if status == models.StatusDelivered || status == models.StatusOutForDelivery {
		current = models.LocationFromAddress(recipient.Address)
	}

	s := &models.Shipment{
		ID:             string(r.ShipmentID),
		TrackingNumber: strings.ToUpper(strings.TrimSpace(r.TrackingNumber)),
		Sender:         sender,
		Recipient:      recipient,
		Package: models.Package{
			Weight:      float64(r.Weight),
			Description: r.PackageDescription,
		},
		Service:           service,
		Status:            status,
		CurrentLocation:   &current,
		EstimatedDelivery: lifecycle.EstimatedDelivery(created),
		CreatedAt:         created,
		UpdatedAt:         created,
		TotalCost:         float64(r.TotalCost),
		TrackingHistory: []models.TrackingEvent{{
			Seq:         1,
			Status:      status,
			Location:    current.String(),
			Timestamp:   created,
			Description: lifecycle.DefaultDescription(status),
		}},
	}
	if created.IsZero() {
		s.EstimatedDelivery = time.Time{}
	}
	return s, nil
}

// Shipments приводит список записей, пропуская записи с неизвестным статусом
func Shipments(records []ShipmentRecord, log *logger.Logger) []*models.Shipment {
	list := make([]*models.Shipment, 0, len(records))
	for _, r := range records {
		s, err := r.ToShipment()
		if err != nil {
			log.WithError(err).
				WithField("shipment_id", string(r.ShipmentID)).
				WithField("status", r.Status).
				Warn("Skipping upstream shipment with unknown status")
			continue
		}
		list = append(list, s)
	}
	return list
}

// UserRecord - пользователь в формате внешнего API
type UserRecord struct {
	UserID      flexString `json:"user_id"`
	UserName    string     `json:"user_name"`
	UserEmail   string     `json:"user_email"`
	UserPhone   string     `json:"user_phone"`
	UserState   string     `json:"user_state"`
	UserCity    string     `json:"user_city"`
	UserStreet  string     `json:"user_street"`
	UserPincode flexString `json:"user_pincode"`
	Role        string     `json:"role"`
}

// ToUser приводит запись к внутренней модели, устаревшая роль courier мигрирует в delivery_partner
func (r UserRecord) ToUser() (*models.User, error) {
	role := models.RoleUser
	if strings.TrimSpace(r.Role) != "" {
		parsed, err := models.ParseRole(r.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	return &models.User{
		ID:    string(r.UserID),
		Name:  r.UserName,
		Email: strings.TrimSpace(r.UserEmail),
		Phone: r.UserPhone,
		Role:  role,
		Address: models.Address{
			Street:  r.UserStreet,
			City:    r.UserCity,
			State:   r.UserState,
			ZipCode: string(r.UserPincode),
		},
	}, nil
}

// SignUpRequest представляет данные регистрации
type SignUpRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Phone    string         `json:"phone"`
	Role     models.Role    `json:"role,omitempty"`
	Address  models.Address `json:"address"`
}

type signUpRecord struct {
	UserName     string `json:"user_name"`
	UserEmail    string `json:"user_email"`
	UserPassword string `json:"user_password"`
	UserPhone    string `json:"user_phone"`
	UserState    string `json:"user_state"`
	UserCity     string `json:"user_city"`
	UserStreet   string `json:"user_street"`
	UserPincode  string `json:"user_pincode"`
	Role         string `json:"role"`
}

// record переводит регистрацию в формат внешнего API, по умолчанию роль user
func (r SignUpRequest) record() signUpRecord {
	role := r.Role
	if role == "" {
		role = models.RoleUser
	}
	return signUpRecord{
		UserName:     strings.TrimSpace(r.Name),
		UserEmail:    strings.TrimSpace(r.Email),
		UserPassword: r.Password,
		UserPhone:    strings.TrimSpace(r.Phone),
		UserState:    strings.TrimSpace(r.Address.State),
		UserCity:     strings.TrimSpace(r.Address.City),
		UserStreet:   strings.TrimSpace(r.Address.Street),
		UserPincode:  strings.TrimSpace(r.Address.ZipCode),
		Role:         string(role),
	}
}
