package security

import (
	"log/slog"

	"golang.org/x/time/rate"
)

const (
	// DefaultRegistrationRate is the default client registrations allowed per second
	DefaultRegistrationRate = 1

	// DefaultRegistrationBurst is the default burst size for registrations
	DefaultRegistrationBurst = 10
)

// RegistrationLimiter throttles client registration to prevent resource
// exhaustion through repeated registrations. Per-caller attribution (IP,
// API key) belongs to the transport layer; this limiter bounds the
// process-wide registration rate.
type RegistrationLimiter struct {
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRegistrationLimiter creates a limiter allowing r registrations per
// second with the given burst. Non-positive values fall back to defaults.
func NewRegistrationLimiter(r float64, burst int, logger *slog.Logger) *RegistrationLimiter {
	if r <= 0 {
		r = DefaultRegistrationRate
	}
	if burst <= 0 {
		burst = DefaultRegistrationBurst
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationLimiter{
		limiter: rate.NewLimiter(rate.Limit(r), burst),
		logger:  logger,
	}
}

// Allow reports whether another registration may proceed now.
func (l *RegistrationLimiter) Allow() bool {
	allowed := l.limiter.Allow()
	if !allowed {
		l.logger.Warn("Client registration rate limit exceeded")
	}
	return allowed
}
