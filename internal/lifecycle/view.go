package lifecycle

import "uniship/internal/models"

// ShipmentView дополняет отправление вычисляемыми полями для клиента
type ShipmentView struct {
	*models.Shipment
	Progress    float64       `json:"progress"`
	StatusLabel string        `json:"statusLabel"`
	NextStatus  models.Status `json:"nextStatus,omitempty"`
	NextAction  *Action       `json:"nextAction,omitempty"`
}

// NewView строит представление отправления
func NewView(s *models.Shipment) ShipmentView {
	view := ShipmentView{
		Shipment:    s,
		Progress:    ShipmentProgress(s),
		StatusLabel: s.Status.Label(),
	}
	if action, ok := NextAction(s.Status); ok {
		view.NextStatus = action.NextStatus
		view.NextAction = &action
	}
	return view
}

// Views строит представления для списка, nil дает пустой список
func Views(list []*models.Shipment) []ShipmentView {
	views := make([]ShipmentView, 0, len(list))
	for _, s := range list {
		views = append(views, NewView(s))
	}
	return views
}
