package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole возвращается при разборе неизвестной роли
var ErrUnknownRole = errors.New("unknown user role")

// Role представляет роль пользователя
type Role string

const (
	RoleUser            Role = "user"
	RoleAdmin           Role = "admin"
	RoleDeliveryPartner Role = "delivery_partner"
)

// legacyCourierRole встречается в старых данных вместо delivery_partner
const legacyCourierRole = "courier"

// ParseRole разбирает роль, устаревшее значение "courier" приводится к delivery_partner
func ParseRole(s string) (Role, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case string(RoleUser):
		return RoleUser, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	case string(RoleDeliveryPartner), legacyCourierRole:
		return RoleDeliveryPartner, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Valid сообщает, входит ли роль в закрытый набор
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleDeliveryPartner
}

// UnmarshalText мигрирует устаревшие значения при декодировании JSON, пустая строка оставляет роль незаданной
func (r *Role) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*r = ""
		return nil
	}
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// User представляет пользователя системы
type User struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone,omitempty"`
	Role    Role    `json:"role"`
	Address Address `json:"address"`
}
