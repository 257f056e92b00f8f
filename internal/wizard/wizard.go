package wizard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"uniship/internal/lifecycle"
	"uniship/internal/models"

	"github.com/google/uuid"
)

// ErrIncompleteForm возвращается при отправке формы с ошибками
var ErrIncompleteForm = errors.New("shipment form is incomplete")

// ValidationError содержит ошибки полей формы
type ValidationError struct {
	Errors Errors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for path := range e.Errors {
		fields = append(fields, path)
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s: %s", ErrIncompleteForm, strings.Join(fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrIncompleteForm
}

// Wizard хранит состояние мастера создания отправления
type Wizard struct {
	Step   Step
	Form   Form
	Errors Errors

	catalog lifecycle.Catalog
}

// New создает мастер на первом шаге с пустой формой
func New(catalog lifecycle.Catalog) *Wizard {
	return &Wizard{
		Step:    FirstStep,
		Form:    NewForm(),
		Errors:  Errors{},
		catalog: catalog,
	}
}

// Set изменяет поле формы и снимает ошибку этого поля
func (w *Wizard) Set(field Field, value string) error {
	if err := w.Form.Set(field, value); err != nil {
		return err
	}
	delete(w.Errors, field.Path())
	return nil
}

// Next переходит к следующему шагу, если текущий шаг заполнен без ошибок
func (w *Wizard) Next() bool {
	w.Errors = ValidateStep(w.Step, w.Form)
	if !w.Errors.Empty() || w.Step >= LastStep {
		return false
	}
	w.Step++
	return true
}

// Back возвращает на предыдущий шаг без повторной проверки
func (w *Wizard) Back() {
	if w.Step > FirstStep {
		w.Step--
	}
}

// Discard сбрасывает черновик
func (w *Wizard) Discard() {
	w.Step = FirstStep
	w.Form = NewForm()
	w.Errors = Errors{}
}

// Quote возвращает предварительную стоимость доставки
func (w *Wizard) Quote() float64 {
	return Quote(w.Form, w.catalog)
}

// Submit проверяет форму и собирает отправление.
// При ошибках мастер переходит на первый шаг с ошибкой.
func (w *Wizard) Submit(now time.Time) (*models.Shipment, error) {
	shipment, err := Build(w.Form, w.catalog, now)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			w.Errors = verr.Errors
			w.Step = firstInvalidStep(w.Form)
		}
		return nil, err
	}
	w.Errors = Errors{}
	return shipment, nil
}

func firstInvalidStep(form Form) Step {
	for step := FirstStep; step <= LastStep; step++ {
		if !ValidateStep(step, form).Empty() {
			return step
		}
	}
	return LastStep
}

// Quote рассчитывает стоимость по форме, нечисловой вес считается нулевым
func Quote(form Form, catalog lifecycle.Catalog) float64 {
	tier, err := models.ParseServiceTier(string(form.Service))
	if err != nil {
		tier = form.Service
	}
	return catalog.TotalCost(tier, form.Package.WeightKg())
}

// Build собирает новое отправление из проверенной формы
func Build(form Form, catalog lifecycle.Catalog, now time.Time) (*models.Shipment, error) {
	if errs := ValidateAll(form); !errs.Empty() {
		return nil, &ValidationError{Errors: errs}
	}

	tier, _ := models.ParseServiceTier(string(form.Service))
	pkg := buildPackage(form.Package)
	sender := buildParty(form.Sender)
	recipient := buildParty(form.Recipient)
	origin := models.LocationFromAddress(sender.Address)

	s := &models.Shipment{
		ID:                  uuid.NewString(),
		TrackingNumber:      lifecycle.NewTrackingNumber(),
		Sender:              sender,
		Recipient:           recipient,
		Package:             pkg,
		Service:             tier,
		SpecialInstructions: strings.TrimSpace(form.SpecialInstructions),
		Status:              models.StatusCreated,
		CurrentLocation:     &origin,
		EstimatedDelivery:   lifecycle.EstimatedDelivery(now),
		CreatedAt:           now,
		UpdatedAt:           now,
		TotalCost:           catalog.TotalCost(tier, pkg.Weight),
		TrackingHistory: []models.TrackingEvent{{
			Seq:         1,
			Status:      models.StatusCreated,
			Location:    origin.String(),
			Timestamp:   now,
			Description: lifecycle.DefaultDescription(models.StatusCreated),
		}},
	}
	return s, nil
}

func buildParty(p PartyForm) models.Party {
	country := strings.TrimSpace(p.Address.Country)
	if country == "" {
		country = DefaultCountry
	}
	return models.Party{
		Name:  strings.TrimSpace(p.Name),
		Email: strings.TrimSpace(p.Email),
		Phone: strings.TrimSpace(p.Phone),
		Address: models.Address{
			Street:  strings.TrimSpace(p.Address.Street),
			City:    strings.TrimSpace(p.Address.City),
			State:   strings.TrimSpace(p.Address.State),
			ZipCode: strings.TrimSpace(p.Address.ZipCode),
			Country: country,
		},
	}
}

func buildPackage(p PackageForm) models.Package {
	weight, _ := parseAmount(p.Weight)
	length, _ := parseAmount(p.Dimensions.Length)
	width, _ := parseAmount(p.Dimensions.Width)
	height, _ := parseAmount(p.Dimensions.Height)
	value, _ := parseAmount(p.Value)

	kind := strings.ToLower(strings.TrimSpace(p.Type))
	if kind == "" {
		kind = DefaultPackageType
	}

	return models.Package{
		Weight:      weight,
		Dimensions:  models.Dimensions{Length: length, Width: width, Height: height},
		Description: strings.TrimSpace(p.Description),
		Type:        kind,
		Value:       value,
		Fragile:     p.Fragile,
	}
}
