package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"

	"github.com/koyomi/koyomi/internal/auth"
	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/core/ports/driven"
	"github.com/koyomi/koyomi/internal/core/ports/driving"
)

// Ensure AuthService implements the interface.
var _ driving.AuthService = (*AuthService)(nil)

// Google service names managed by the auth service.
const (
	ServiceGmail    = "gmail"
	ServiceCalendar = "calendar"
)

// defaultScopes maps each managed service to the OAuth scopes it needs.
var defaultScopes = map[string][]string{
	ServiceGmail:    {gmail.GmailSendScope},
	ServiceCalendar: {calendar.CalendarScope},
}

// AuthService manages one authenticator per Google service, sharing a
// single credential store and client secret.
type AuthService struct {
	authenticators map[string]*auth.GoogleAuthenticator
}

// NewAuthService builds authenticators for every managed service using
// the auth settings. Token files are named <service>_token.json inside
// the configured token directory.
func NewAuthService(settings domain.AuthSettings, store driven.CredentialStore) *AuthService {
	authenticators := make(map[string]*auth.GoogleAuthenticator, len(defaultScopes))
	for service, scopes := range defaultScopes {
		a := auth.NewGoogleAuthenticator(
			service,
			settings.ClientSecretPath,
			filepath.Join(settings.TokenDir, service+"_token.json"),
			scopes,
			store,
		)
		if settings.FlowTimeout > 0 {
			a.SetFlowTimeout(settings.FlowTimeout)
		}
		authenticators[service] = a
	}
	return &AuthService{authenticators: authenticators}
}

// Authenticator returns the underlying authenticator for a service, for
// callers that need a driven.TokenProvider to hand to an API client.
func (s *AuthService) Authenticator(service string) (*auth.GoogleAuthenticator, error) {
	a, ok := s.authenticators[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", service)
	}
	return a, nil
}

// Login runs the credential flow for a service.
func (s *AuthService) Login(ctx context.Context, service string) error {
	a, err := s.Authenticator(service)
	if err != nil {
		return err
	}
	_, err = a.Authenticate(ctx)
	return err
}

// Status reports the credential state for a service.
func (s *AuthService) Status(service string) (domain.AuthStatus, error) {
	a, err := s.Authenticator(service)
	if err != nil {
		return domain.AuthStatus{}, err
	}
	return a.Status(), nil
}

// Token returns a valid access token for a service.
func (s *AuthService) Token(ctx context.Context, service string) (string, error) {
	a, err := s.Authenticator(service)
	if err != nil {
		return "", err
	}
	return a.Token(ctx)
}

// Revoke removes stored credentials for a service.
func (s *AuthService) Revoke(service string) error {
	a, err := s.Authenticator(service)
	if err != nil {
		return err
	}
	return a.Revoke()
}

// Services lists the managed service names, sorted.
func (s *AuthService) Services() []string {
	names := make([]string, 0, len(s.authenticators))
	for name := range s.authenticators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
