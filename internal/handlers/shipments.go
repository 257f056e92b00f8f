package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"uniship/internal/lifecycle"
	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/services"
	"uniship/internal/wizard"
)

const defaultPageSize = 50

// ShipmentHandler представляет обработчик отправлений
type ShipmentHandler struct {
	shipments *services.ShipmentService
	pricing   *services.DeliveryPricingService
	log       *logger.Logger
}

// NewShipmentHandler создает новый обработчик отправлений
func NewShipmentHandler(shipments *services.ShipmentService, pricing *services.DeliveryPricingService, log *logger.Logger) *ShipmentHandler {
	return &ShipmentHandler{
		shipments: shipments,
		pricing:   pricing,
		log:       log,
	}
}

// ShipmentListResponse представляет страницу списка отправлений
type ShipmentListResponse struct {
	Shipments []lifecycle.ShipmentView `json:"shipments"`
	Total     int                      `json:"total"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

// ValidateStepRequest представляет запрос проверки шага мастера
type ValidateStepRequest struct {
	Step wizard.Step `json:"step"`
	Form wizard.Form `json:"form"`
}

// ValidateStepResponse представляет результат проверки шага
type ValidateStepResponse struct {
	Step   wizard.Step   `json:"step"`
	Title  string        `json:"title"`
	Valid  bool          `json:"valid"`
	Errors wizard.Errors `json:"errors"`
}

// GetShipments возвращает видимые пользователю отправления
func (h *ShipmentHandler) GetShipments(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := services.ListFilter{Query: query.Get("q")}

	if raw := strings.TrimSpace(query.Get("status")); raw != "" && raw != "all" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid status parameter")
			return
		}
		filter.Status = status
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	filter.Limit, filter.Offset = limit, offset

	page, err := h.shipments.List(r.Context(), user, filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get shipments")
		return
	}

	writeJSONResponse(w, http.StatusOK, ShipmentListResponse{
		Shipments: lifecycle.Views(page.Items),
		Total:     page.Total,
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
}

// CreateShipment принимает заполненную форму мастера и создает отправление
func (h *ShipmentHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	form := wizard.NewForm()
	if !decodeJSON(w, r, &form) {
		return
	}

	shipment, err := h.shipments.Create(r.Context(), form, user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create shipment")
		return
	}

	writeJSONResponse(w, http.StatusCreated, lifecycle.NewView(shipment))
}

// ValidateStep проверяет один шаг мастера, шаг 0 означает проверку всей формы
func (h *ShipmentHandler) ValidateStep(w http.ResponseWriter, r *http.Request) {
	req := ValidateStepRequest{Form: wizard.NewForm()}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs wizard.Errors
	switch {
	case req.Step == 0:
		errs = wizard.ValidateAll(req.Form)
	case req.Step.Valid():
		errs = wizard.ValidateStep(req.Step, req.Form)
	default:
		writeErrorResponse(w, http.StatusBadRequest, "Invalid step")
		return
	}

	writeJSONResponse(w, http.StatusOK, ValidateStepResponse{
		Step:   req.Step,
		Title:  req.Step.Title(),
		Valid:  errs.Empty(),
		Errors: errs,
	})
}

// GetQuote рассчитывает стоимость доставки по тарифу и весу
func (h *ShipmentHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	tier, err := models.ParseServiceTier(query.Get("service"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid service parameter")
		return
	}

	var weight float64
	if raw := strings.TrimSpace(query.Get("weight")); raw != "" {
		weight, err = strconv.ParseFloat(raw, 64)
		if err != nil || weight < 0 {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid weight parameter")
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, h.pricing.CalculateDeliveryCost(tier, weight))
}

// GetShipment возвращает отправление по ID
func (h *ShipmentHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	shipment, err := h.shipments.Get(r.Context(), r.PathValue("id"), user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get shipment")
		return
	}

	writeJSONResponse(w, http.StatusOK, lifecycle.NewView(shipment))
}

// TrackShipment ищет отправление по номеру отслеживания
func (h *ShipmentHandler) TrackShipment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	shipment, err := h.shipments.Track(r.Context(), r.PathValue("trackingNumber"), user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to track shipment")
		return
	}

	writeJSONResponse(w, http.StatusOK, lifecycle.NewView(shipment))
}

// UpdateShipmentStatus переводит отправление в новый статус
func (h *ShipmentHandler) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateShipmentStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Status is required")
		return
	}

	shipment, err := h.shipments.UpdateStatus(r.Context(), r.PathValue("id"), user, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update shipment status")
		return
	}

	writeJSONResponse(w, http.StatusOK, lifecycle.NewView(shipment))
}

// AssignCourier назначает курьера на отправление
func (h *ShipmentHandler) AssignCourier(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.AssignCourierRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	shipment, err := h.shipments.AssignCourier(r.Context(), r.PathValue("id"), user, req.Courier)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to assign courier")
		return
	}

	writeJSONResponse(w, http.StatusOK, lifecycle.NewView(shipment))
}

// UpdateShipmentDetails меняет тариф и особые инструкции
func (h *ShipmentHandler) UpdateShipmentDetails(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateShipmentDetailsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	shipment, err := h.shipments.UpdateDetails(r.Context(), r.PathValue("id"), user, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update shipment details")
		return
	}

	writeJSONResponse(w, http.StatusOK, lifecycle.NewView(shipment))
}
