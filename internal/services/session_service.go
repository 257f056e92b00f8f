package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"uniship/internal/config"
	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/redis"
	"uniship/internal/wizard"
)

var (
	// ErrSessionNotFound возвращается для неизвестного или истекшего токена
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnknownTheme возвращается для темы вне каталога
	ErrUnknownTheme = errors.New("unknown theme")
)

// Theme представляет тему оформления
type Theme string

const (
	ThemeModern Theme = "modern"
	ThemeOcean  Theme = "ocean"
	ThemeSunset Theme = "sunset"
	ThemeForest Theme = "forest"
	ThemeSpace  Theme = "space"
)

// DefaultTheme применяется, если пользователь не выбрал тему
const DefaultTheme = ThemeModern

// Themes перечисляет доступные темы в порядке отображения
var Themes = []Theme{ThemeModern, ThemeOcean, ThemeSunset, ThemeForest, ThemeSpace}

// ParseTheme разбирает идентификатор темы
func ParseTheme(s string) (Theme, error) {
	theme := Theme(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range Themes {
		if t == theme {
			return theme, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
}

// ClassName возвращает CSS класс фона темы
func (t Theme) ClassName() string {
	return "background-" + string(t)
}

// Session представляет сохраненную сессию пользователя
type Session struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

// SessionService хранит сессии и пользовательские настройки в Redis
type SessionService struct {
	redis  *redis.Client
	config *config.SessionConfig
	log    *logger.Logger
}

// NewSessionService создает сервис сессий
func NewSessionService(redis *redis.Client, cfg *config.SessionConfig, log *logger.Logger) *SessionService {
	return &SessionService{
		redis:  redis,
		config: cfg,
		log:    log,
	}
}

func (s *SessionService) ttl() time.Duration {
	return time.Duration(s.config.TTL) * time.Second
}

// Save сохраняет пользователя под токеном сессии
func (s *SessionService) Save(ctx context.Context, token string, user *models.User) (*Session, error) {
	if token == "" || user == nil {
		return nil, ErrSessionNotFound
	}

	session := &Session{
		Token:     token,
		User:      user,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.redis.Set(ctx, redis.GenerateKey(redis.KeyPrefixSession, token), session, s.ttl()); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("Session saved")
	return session, nil
}

// Get возвращает сессию по токену и продлевает ее срок
func (s *SessionService) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	key := redis.GenerateKey(redis.KeyPrefixSession, token)
	var session Session
	if err := s.redis.Get(ctx, key, &session); err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.User == nil {
		return nil, ErrSessionNotFound
	}

	if err := s.redis.Expire(ctx, key, s.ttl()); err != nil {
		s.log.WithError(err).Warn("Failed to extend session TTL")
	}
	return &session, nil
}

// Delete завершает сессию
func (s *SessionService) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.redis.Delete(ctx, redis.GenerateKey(redis.KeyPrefixSession, token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.log.Info("Session deleted")
	return nil
}

var profileEmailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ProfileUpdate содержит редактируемые поля профиля
type ProfileUpdate struct {
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Phone   string         `json:"phone"`
	Address models.Address `json:"address"`
}

// Validate возвращает ошибки полей профиля
func (p ProfileUpdate) Validate() wizard.Errors {
	errs := wizard.Errors{}
	if strings.TrimSpace(p.Name) == "" {
		errs["name"] = "Name is required"
	}
	switch email := strings.TrimSpace(p.Email); {
	case email == "":
		errs["email"] = "Email is required"
	case !profileEmailPattern.MatchString(email):
		errs["email"] = "Email is invalid"
	}
	if strings.TrimSpace(p.Phone) == "" {
		errs["phone"] = "Phone number is required"
	}
	if strings.TrimSpace(p.Address.Street) == "" {
		errs["address.street"] = "Street address is required"
	}
	if strings.TrimSpace(p.Address.City) == "" {
		errs["address.city"] = "City is required"
	}
	if strings.TrimSpace(p.Address.State) == "" {
		errs["address.state"] = "State is required"
	}
	if strings.TrimSpace(p.Address.ZipCode) == "" {
		errs["address.zipCode"] = "ZIP code is required"
	}
	return errs
}

// UpdateProfile переписывает профиль пользователя сессии.
// Идентификатор и роль берутся из сессии, а не из запроса.
func (s *SessionService) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*Session, error) {
	if errs := update.Validate(); !errs.Empty() {
		return nil, &wizard.ValidationError{Errors: errs}
	}

	session, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	user := *session.User
	user.Name = strings.TrimSpace(update.Name)
	user.Email = strings.TrimSpace(update.Email)
	user.Phone = strings.TrimSpace(update.Phone)
	country := strings.TrimSpace(update.Address.Country)
	if country == "" {
		country = user.Address.Country
	}
	user.Address = models.Address{
		Street:  strings.TrimSpace(update.Address.Street),
		City:    strings.TrimSpace(update.Address.City),
		State:   strings.TrimSpace(update.Address.State),
		ZipCode: strings.TrimSpace(update.Address.ZipCode),
		Country: country,
	}

	return s.Save(ctx, token, &user)
}

// Theme возвращает выбранную пользователем тему
func (s *SessionService) Theme(ctx context.Context, userID string) (Theme, error) {
	var stored string
	if err := s.redis.Get(ctx, redis.GenerateKey(redis.KeyPrefixTheme, userID), &stored); err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return DefaultTheme, nil
		}
		return "", fmt.Errorf("failed to load theme: %w", err)
	}

	theme, err := ParseTheme(stored)
	if err != nil {
		s.log.WithField("theme", stored).Warn("Stored theme is unknown, using default")
		return DefaultTheme, nil
	}
	return theme, nil
}

// SetTheme сохраняет тему пользователя без срока действия
func (s *SessionService) SetTheme(ctx context.Context, userID, value string) (Theme, error) {
	theme, err := ParseTheme(value)
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, redis.GenerateKey(redis.KeyPrefixTheme, userID), string(theme), 0); err != nil {
		return "", fmt.Errorf("failed to save theme: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"user_id": userID,
		"theme":   theme,
	}).Info("Theme changed")
	return theme, nil
}
