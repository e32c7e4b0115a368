package composables

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sabg-gob/sabg-sistema/pkg/constants"
)

var (
	ErrNoLogger  = errors.New("logger not found")
	ErrNoSession = errors.New("session not found")
)

// Session is what the auth collaborator resolves a session cookie to.
type Session struct {
	UserID      int64  `json:"id"`
	Usuario     string `json:"usuario"`
	Nombre      string `json:"nombre"`
	Rol         string `json:"rol"`
	Dependencia string `json:"dependencia"`
}

// IsAdmin mirrors the role check used across the legacy endpoints: any role
// containing "admin" is privileged.
func (s *Session) IsAdmin() bool {
	rol := strings.ToLower(strings.TrimSpace(s.Rol))
	return strings.Contains(rol, "admin")
}

func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, constants.SessionKey, session)
}

func UseSession(ctx context.Context) (*Session, error) {
	session, ok := ctx.Value(constants.SessionKey).(*Session)
	if !ok || session == nil {
		return nil, ErrNoSession
	}
	return session, nil
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request-scoped logger, or a bare entry when the
// middleware did not run (CLI paths, tests).
func UseLogger(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger
}
