package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sabg-gob/sabg-sistema/pkg/composables"
	"github.com/sabg-gob/sabg-sistema/pkg/httpapi"
)

var (
	ErrSessionInvalid = errors.New("session invalid or expired")
)

// SessionValidator resolves a raw session token to a Session. The actual
// session store is an external collaborator; this service only consumes it.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*composables.Session, error)
}

// AuthClient validates sessions against the auth collaborator over HTTP:
// GET validateURL with the session cookie attached, expecting a JSON body
// with id/usuario/rol/nombre/dependencia.
type AuthClient struct {
	validateURL string
	cookieKey   string
	client      *http.Client
}

func NewAuthClient(validateURL, cookieKey string, timeout time.Duration) *AuthClient {
	return &AuthClient{
		validateURL: validateURL,
		cookieKey:   cookieKey,
		client:      &http.Client{Timeout: timeout},
	}
}

func (a *AuthClient) Validate(ctx context.Context, token string) (*composables.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.validateURL, nil)
	if err != nil {
		return nil, err
	}
	req.AddCookie(&http.Cookie{Name: a.cookieKey, Value: token})

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrSessionInvalid
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth collaborator returned HTTP %d", resp.StatusCode)
	}

	var session composables.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Authorize requires a valid session cookie and attaches the resolved
// Session to the request context.
func Authorize(validator SessionValidator, cookieKey string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieKey)
			if err != nil || cookie.Value == "" {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "NO_SESSION", "No autenticado (sin sesión)")
				return
			}

			session, err := validator.Validate(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, ErrSessionInvalid) {
					_ = httpapi.WriteError(w, http.StatusUnauthorized, "SESSION_INVALID", "Sesión inválida o expirada")
					return
				}
				composables.UseLogger(r.Context()).WithError(err).Error("session validation failed")
				_ = httpapi.WriteError(w, http.StatusInternalServerError, "AUTH_ERROR", "auth error")
				return
			}

			next.ServeHTTP(w, r.WithContext(composables.WithSession(r.Context(), session)))
		})
	}
}

// RequireAdmin rejects sessions whose role is not an admin variant. Must run
// after Authorize.
func RequireAdmin() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := composables.UseSession(r.Context())
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "NO_SESSION", "No autenticado (sin sesión)")
				return
			}
			if !session.IsAdmin() {
				_ = httpapi.WriteError(w, http.StatusForbidden, "FORBIDDEN", "Solo administradores")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
