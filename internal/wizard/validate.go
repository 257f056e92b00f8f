package wizard

import (
	"math"
	"strconv"
	"strings"

	"uniship/internal/models"
)

// Step - номер шага мастера
type Step int

const (
	StepSenderInfo Step = iota + 1
	StepRecipientInfo
	StepPackageDetails
	StepServiceAndReview
)

// FirstStep и LastStep ограничивают навигацию
const (
	FirstStep = StepSenderInfo
	LastStep  = StepServiceAndReview
)

var stepTitles = map[Step]string{
	StepSenderInfo:       "Sender Info",
	StepRecipientInfo:    "Recipient Info",
	StepPackageDetails:   "Package Details",
	StepServiceAndReview: "Service & Review",
}

// Title возвращает название шага
func (s Step) Title() string {
	return stepTitles[s]
}

// Valid сообщает, что шаг существует
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Errors - ошибки валидации: путь поля -> сообщение
type Errors map[string]string

// Empty сообщает об отсутствии ошибок
func (e Errors) Empty() bool {
	return len(e) == 0
}

func (e Errors) add(f Field, msg string) {
	e[f.Path()] = msg
}

// merge переносит ошибки из other
func (e Errors) merge(other Errors) {
	for k, v := range other {
		e[k] = v
	}
}

type requiredField struct {
	field Field
	value string
	label string
}

func required(errs Errors, fields ...requiredField) {
	for _, rf := range fields {
		if strings.TrimSpace(rf.value) == "" {
			errs.add(rf.field, rf.label+" is required")
		}
	}
}

func partyFields(p PartyForm, name, email, phone, street, city, state, zip Field) []requiredField {
	return []requiredField{
		{name, p.Name, "Name"},
		{email, p.Email, "Email"},
		{phone, p.Phone, "Phone"},
		{street, p.Address.Street, "Street address"},
		{city, p.Address.City, "City"},
		{state, p.Address.State, "State"},
		{zip, p.Address.ZipCode, "ZIP code"},
	}
}

// parseAmount разбирает число из текстового поля
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ValidateStep проверяет поля указанного шага
func ValidateStep(step Step, form Form) Errors {
	errs := Errors{}

	switch step {
	case StepSenderInfo:
		required(errs, partyFields(form.Sender,
			FieldSenderName, FieldSenderEmail, FieldSenderPhone,
			FieldSenderStreet, FieldSenderCity, FieldSenderState, FieldSenderZipCode)...)
	case StepRecipientInfo:
		required(errs, partyFields(form.Recipient,
			FieldRecipientName, FieldRecipientEmail, FieldRecipientPhone,
			FieldRecipientStreet, FieldRecipientCity, FieldRecipientState, FieldRecipientZipCode)...)
	case StepPackageDetails:
		validatePackage(errs, form.Package)
	case StepServiceAndReview:
		if _, err := models.ParseServiceTier(string(form.Service)); err != nil {
			errs.add(FieldService, "Please select a valid service")
		}
	}

	return errs
}

func validatePackage(errs Errors, p PackageForm) {
	measures := []requiredField{
		{FieldPackageWeight, p.Weight, "Weight"},
		{FieldPackageLength, p.Dimensions.Length, "Length"},
		{FieldPackageWidth, p.Dimensions.Width, "Width"},
		{FieldPackageHeight, p.Dimensions.Height, "Height"},
	}
	required(errs, measures...)
	required(errs, requiredField{FieldPackageDescription, p.Description, "Description"})

	for _, m := range measures {
		if strings.TrimSpace(m.value) == "" {
			continue
		}
		if v, ok := parseAmount(m.value); !ok || v <= 0 {
			errs.add(m.field, m.label+" must be a positive number")
		}
	}

	if strings.TrimSpace(p.Value) != "" {
		if v, ok := parseAmount(p.Value); !ok || v < 0 {
			errs.add(FieldPackageValue, "Value must be a non-negative number")
		}
	}
}

// ValidateAll проверяет все шаги формы
func ValidateAll(form Form) Errors {
	errs := Errors{}
	for step := FirstStep; step <= LastStep; step++ {
		errs.merge(ValidateStep(step, form))
	}
	return errs
}
