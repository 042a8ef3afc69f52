package driving

import (
	"context"

	"github.com/koyomi/koyomi/internal/core/domain"
)

// AuthService manages OAuth credentials for the configured Google services.
type AuthService interface {
	// Login runs the credential flow for a service, falling back to the
	// interactive browser flow when no usable token exists.
	Login(ctx context.Context, service string) error

	// Status reports the credential state for a service without
	// touching the filesystem or network.
	Status(service string) (domain.AuthStatus, error)

	// Token returns a valid access token for a service, authenticating
	// first if needed.
	Token(ctx context.Context, service string) (string, error)

	// Revoke removes stored credentials for a service.
	Revoke(service string) error

	// Services lists the service names this instance manages, sorted.
	Services() []string
}
