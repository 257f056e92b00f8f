// Package uniapi реализует клиент внешнего REST API авторизации и списка отправлений.
package uniapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"uniship/internal/config"
	"uniship/internal/logger"
	"uniship/internal/models"
)

// TokenHeader - заголовок, в котором внешний API ожидает токен сессии
const TokenHeader = "token"

const (
	defaultMaxAttempts = 4
	defaultBackoff     = 200 * time.Millisecond
)

var (
	// ErrUnauthorized возвращается при ответе 401
	ErrUnauthorized = errors.New("upstream rejected credentials")
	// ErrEmptyToken возвращается, если вход прошел без выдачи токена
	ErrEmptyToken = errors.New("upstream returned empty token")
)

// StatusError описывает неуспешный HTTP ответ внешнего API
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded %d: %s", e.Code, e.Body)
}

// Client представляет клиент внешнего API
type Client struct {
	baseURL     string
	http        *http.Client
	log         *logger.Logger
	maxAttempts int
	backoff     time.Duration
}

// NewClient создает клиент внешнего API
func NewClient(cfg *config.UpstreamConfig, log *logger.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        &http.Client{Timeout: timeout},
		log:         log,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
}

// SignInResult содержит токен и профиль пользователя после входа
type SignInResult struct {
	Token string
	User  *models.User
}

type signInRequest struct {
	Email    string `json:"user_email"`
	Password string `json:"user_password"`
}

type signInResponse struct {
	Token string      `json:"token"`
	User  *UserRecord `json:"user,omitempty"`
}

// SignIn выполняет вход. Если API не вернул профиль, пользователь строится по email с ролью user.
func (c *Client) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	var resp signInResponse
	err := c.call(ctx, callOptions{
		path:      "/signin",
		body:      signInRequest{Email: strings.TrimSpace(email), Password: password},
		out:       &resp,
		retryable: true,
	})
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrEmptyToken
	}

	user := &models.User{Email: strings.TrimSpace(email), Role: models.RoleUser}
	if resp.User != nil {
		mapped, err := resp.User.ToUser()
		if err != nil {
			c.log.WithError(err).WithField("email", email).Warn("Upstream user profile ignored")
		} else {
			user = mapped
		}
	}
	if user.ID == "" {
		user.ID = user.Email
	}

	return &SignInResult{Token: resp.Token, User: user}, nil
}

// SignUp регистрирует пользователя
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) error {
	return c.call(ctx, callOptions{path: "/signup", body: req.record()})
}

// passwordRequest - тело /change_password и /delete-account
type passwordRequest struct {
	Password string `json:"user_password"`
}

// ChangePassword устанавливает новый пароль пользователя с указанным токеном
func (c *Client) ChangePassword(ctx context.Context, token, newPassword string) error {
	return c.call(ctx, callOptions{
		path:  "/change_password",
		token: token,
		body:  passwordRequest{Password: newPassword},
	})
}

// DeleteAccount удаляет учетную запись пользователя, API подтверждает ее паролем
func (c *Client) DeleteAccount(ctx context.Context, token, password string) error {
	return c.call(ctx, callOptions{
		path:  "/delete-account",
		token: token,
		body:  passwordRequest{Password: password},
	})
}

// GetShipments возвращает отправления пользователя, приведенные к внутренней модели.
// Пустой ответ или null дают пустой список, записи с неизвестным статусом пропускаются.
func (c *Client) GetShipments(ctx context.Context, token string) ([]*models.Shipment, error) {
	var records []ShipmentRecord
	err := c.call(ctx, callOptions{
		path:      "/get_shipments",
		token:     token,
		body:      struct{}{},
		out:       &records,
		retryable: true,
	})
	if err != nil {
		return nil, err
	}

	return Shipments(records, c.log), nil
}

type callOptions struct {
	path      string
	token     string
	body      interface{}
	out       interface{}
	retryable bool
}

// call выполняет POST запрос и декодирует JSON ответ в opts.out
func (c *Client) call(ctx context.Context, opts callOptions) error {
	payload, err := json.Marshal(opts.body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	makeReq := func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, c.baseURL+opts.path, opts.token, bytes.NewReader(payload))
	}

	attempts := 1
	if opts.retryable {
		attempts = c.maxAttempts
	}

	start := time.Now()
	data, err := c.doWithRetry(ctx, attempts, makeReq)
	entry := c.log.WithField("path", opts.path).WithField("duration", time.Since(start))
	if err != nil {
		entry.WithError(err).Warn("Upstream call failed")
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrUnauthorized, se.Body)
		}
		return err
	}
	entry.Debug("Upstream call completed")

	if opts.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, opts.out); err != nil {
		return fmt.Errorf("decode %s response: %w", opts.path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, url, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	return req, nil
}

// do выполняет запрос и читает тело, ответ с кодом >= 400 превращается в *StatusError
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// doWithRetry повторяет запрос при сетевых ошибках, 429 и 5xx с экспоненциальной задержкой
func (c *Client) doWithRetry(ctx context.Context, maxAttempts int, makeReq func() (*http.Request, error)) ([]byte, error) {
	backoff := c.backoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		data, err := c.do(req)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxAttempts {
			return nil, lastErr
		}

		c.log.WithError(err).WithField("attempt", attempt).Debug("Retrying upstream call")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, lastErr
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
