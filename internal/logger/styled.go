package logger

import (
	"log/slog"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
	"github.com/Kirosoft/ProductOwnerCoPilot/theme"
)

// StyledLogger is the logging surface the rest of the application sees.
// Pretty for colour terminals, Plain for everything else and for tests.
type StyledLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	InfoWithCount(msg string, count int, args ...any)
	InfoWithEndpoint(msg string, endpoint string, args ...any)
	InfoWithTemplate(msg string, template string, args ...any)
	InfoLivenessStatus(msg string, state domain.LivenessState, args ...any)

	With(args ...any) StyledLogger
	WithRequestID(requestID string) StyledLogger
	GetUnderlying() *slog.Logger
}

func NewStyledLogger(logger *slog.Logger, appTheme *theme.Theme) StyledLogger {
	return NewPrettyStyledLogger(logger, appTheme)
}

func NewWithTheme(cfg *Config) (*slog.Logger, StyledLogger, func(), error) {
	logger, cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	appTheme := theme.GetTheme(cfg.Theme)
	styledLogger := NewStyledLogger(logger, appTheme)

	return logger, styledLogger, cleanup, nil
}
