// Package wizard реализует пошаговую форму создания отправления:
// типизированное состояние формы, валидацию шагов и сборку отправления.
package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"uniship/internal/models"
)

// ErrUnknownField возвращается для неизвестного пути поля
var ErrUnknownField = errors.New("unknown form field")

// DefaultCountry подставляется в адреса формы по умолчанию
const DefaultCountry = "USA"

// DefaultPackageType - тип посылки по умолчанию
const DefaultPackageType = "other"

// AddressForm представляет адрес в том виде, в котором его вводит пользователь
type AddressForm struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// PartyForm представляет данные отправителя или получателя
type PartyForm struct {
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Phone   string      `json:"phone"`
	Address AddressForm `json:"address"`
}

// DimensionsForm хранит габариты как введенный текст
type DimensionsForm struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// PackageForm хранит параметры посылки как введенный текст
type PackageForm struct {
	Weight      string         `json:"weight"`
	Dimensions  DimensionsForm `json:"dimensions"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Value       string         `json:"value"`
	Fragile     bool           `json:"fragile"`
}

// WeightKg возвращает введенный вес, нечисловое или отрицательное значение дает 0
func (p PackageForm) WeightKg() float64 {
	v, ok := parseAmount(p.Weight)
	if !ok || v < 0 {
		return 0
	}
	return v
}

// Form представляет накопленные данные мастера
type Form struct {
	Sender              PartyForm          `json:"sender"`
	Recipient           PartyForm          `json:"recipient"`
	Package             PackageForm        `json:"package"`
	Service             models.ServiceTier `json:"service"`
	SpecialInstructions string             `json:"specialInstructions"`
}

// NewForm возвращает пустую форму со значениями по умолчанию
func NewForm() Form {
	return Form{
		Sender:    PartyForm{Address: AddressForm{Country: DefaultCountry}},
		Recipient: PartyForm{Address: AddressForm{Country: DefaultCountry}},
		Package:   PackageForm{Type: DefaultPackageType},
		Service:   models.DefaultServiceTier,
	}
}

// Field идентифицирует редактируемое поле формы
type Field int

const (
	FieldUnknown Field = iota
	FieldSenderName
	FieldSenderEmail
	FieldSenderPhone
	FieldSenderStreet
	FieldSenderCity
	FieldSenderState
	FieldSenderZipCode
	FieldSenderCountry
	FieldRecipientName
	FieldRecipientEmail
	FieldRecipientPhone
	FieldRecipientStreet
	FieldRecipientCity
	FieldRecipientState
	FieldRecipientZipCode
	FieldRecipientCountry
	FieldPackageWeight
	FieldPackageLength
	FieldPackageWidth
	FieldPackageHeight
	FieldPackageDescription
	FieldPackageType
	FieldPackageValue
	FieldPackageFragile
	FieldService
	FieldSpecialInstructions
)

var fieldPaths = map[Field]string{
	FieldSenderName:          "sender.name",
	FieldSenderEmail:         "sender.email",
	FieldSenderPhone:         "sender.phone",
	FieldSenderStreet:        "sender.address.street",
	FieldSenderCity:          "sender.address.city",
	FieldSenderState:         "sender.address.state",
	FieldSenderZipCode:       "sender.address.zipCode",
	FieldSenderCountry:       "sender.address.country",
	FieldRecipientName:       "recipient.name",
	FieldRecipientEmail:      "recipient.email",
	FieldRecipientPhone:      "recipient.phone",
	FieldRecipientStreet:     "recipient.address.street",
	FieldRecipientCity:       "recipient.address.city",
	FieldRecipientState:      "recipient.address.state",
	FieldRecipientZipCode:    "recipient.address.zipCode",
	FieldRecipientCountry:    "recipient.address.country",
	FieldPackageWeight:       "package.weight",
	FieldPackageLength:       "package.dimensions.length",
	FieldPackageWidth:        "package.dimensions.width",
	FieldPackageHeight:       "package.dimensions.height",
	FieldPackageDescription:  "package.description",
	FieldPackageType:         "package.type",
	FieldPackageValue:        "package.value",
	FieldPackageFragile:      "package.fragile",
	FieldService:             "service",
	FieldSpecialInstructions: "specialInstructions",
}

var fieldsByPath = func() map[string]Field {
	m := make(map[string]Field, len(fieldPaths))
	for f, p := range fieldPaths {
		m[p] = f
	}
	return m
}()

// Path возвращает путь поля в нотации формы, например "sender.address.city"
func (f Field) Path() string {
	return fieldPaths[f]
}

func (f Field) String() string {
	if p, ok := fieldPaths[f]; ok {
		return p
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField находит поле по пути
func ParseField(path string) (Field, error) {
	if f, ok := fieldsByPath[strings.TrimSpace(path)]; ok {
		return f, nil
	}
	return FieldUnknown, fmt.Errorf("%w: %q", ErrUnknownField, path)
}

// Set записывает значение в поле формы
func (form *Form) Set(field Field, value string) error {
	switch field {
	case FieldSenderName:
		form.Sender.Name = value
	case FieldSenderEmail:
		form.Sender.Email = value
	case FieldSenderPhone:
		form.Sender.Phone = value
	case FieldSenderStreet:
		form.Sender.Address.Street = value
	case FieldSenderCity:
		form.Sender.Address.City = value
	case FieldSenderState:
		form.Sender.Address.State = value
	case FieldSenderZipCode:
		form.Sender.Address.ZipCode = value
	case FieldSenderCountry:
		form.Sender.Address.Country = value
	case FieldRecipientName:
		form.Recipient.Name = value
	case FieldRecipientEmail:
		form.Recipient.Email = value
	case FieldRecipientPhone:
		form.Recipient.Phone = value
	case FieldRecipientStreet:
		form.Recipient.Address.Street = value
	case FieldRecipientCity:
		form.Recipient.Address.City = value
	case FieldRecipientState:
		form.Recipient.Address.State = value
	case FieldRecipientZipCode:
		form.Recipient.Address.ZipCode = value
	case FieldRecipientCountry:
		form.Recipient.Address.Country = value
	case FieldPackageWeight:
		form.Package.Weight = value
	case FieldPackageLength:
		form.Package.Dimensions.Length = value
	case FieldPackageWidth:
		form.Package.Dimensions.Width = value
	case FieldPackageHeight:
		form.Package.Dimensions.Height = value
	case FieldPackageDescription:
		form.Package.Description = value
	case FieldPackageType:
		form.Package.Type = value
	case FieldPackageValue:
		form.Package.Value = value
	case FieldPackageFragile:
		fragile, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", field, err)
		}
		form.Package.Fragile = fragile
	case FieldService:
		form.Service = models.ServiceTier(strings.ToLower(strings.TrimSpace(value)))
	case FieldSpecialInstructions:
		form.SpecialInstructions = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}
