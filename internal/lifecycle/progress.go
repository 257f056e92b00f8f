package lifecycle

import "uniship/internal/models"

// ProgressPercentage возвращает прогресс в процентах для статуса основного пути.
// Для побочных и неизвестных статусов возвращает 0, см. ShipmentProgress.
func ProgressPercentage(status models.Status) float64 {
	idx := canonicalIndex(status)
	if idx < 0 {
		return 0
	}
	return float64(idx+1) / float64(len(CanonicalSequence)) * 100
}

// ShipmentProgress возвращает прогресс отправления.
// Для exception и returned прогресс замораживается на последнем статусе основного пути из истории.
func ShipmentProgress(s *models.Shipment) float64 {
	if !s.Status.IsSideState() {
		return ProgressPercentage(s.Status)
	}
	for i := len(s.TrackingHistory) - 1; i >= 0; i-- {
		if canonicalIndex(s.TrackingHistory[i].Status) >= 0 {
			return ProgressPercentage(s.TrackingHistory[i].Status)
		}
	}
	return 0
}
