package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koyomi/koyomi/internal/auth"
	"github.com/koyomi/koyomi/internal/core/domain"
)

func newTestAuthService(t *testing.T) (*AuthService, string) {
	t.Helper()
	tmpDir := t.TempDir()
	settings := domain.AuthSettings{
		TokenDir:         filepath.Join(tmpDir, "tokens"),
		ClientSecretPath: filepath.Join(tmpDir, "client_secret.json"),
		FlowTimeout:      time.Second,
	}
	return NewAuthService(settings, auth.NewFileStore()), tmpDir
}

func TestAuthService_Services(t *testing.T) {
	service, _ := newTestAuthService(t)

	assert.Equal(t, []string{ServiceCalendar, ServiceGmail}, service.Services())
}

func TestAuthService_UnknownService(t *testing.T) {
	service, _ := newTestAuthService(t)

	_, err := service.Authenticator("drive")
	assert.Error(t, err)

	_, err = service.Status("drive")
	assert.Error(t, err)

	assert.Error(t, service.Revoke("drive"))
}

func TestAuthService_StatusUnauthenticated(t *testing.T) {
	service, _ := newTestAuthService(t)

	status, err := service.Status(ServiceGmail)

	require.NoError(t, err)
	assert.False(t, status.Authenticated)
	assert.False(t, status.TokenExists)
	assert.Zero(t, status.FailureCount)
}

func TestAuthService_RevokeWithoutToken(t *testing.T) {
	service, _ := newTestAuthService(t)

	// Revoking a service that never authenticated is a no-op.
	assert.NoError(t, service.Revoke(ServiceCalendar))
}

func TestAuthService_PerServiceTokenPaths(t *testing.T) {
	service, _ := newTestAuthService(t)

	gmail, err := service.Authenticator(ServiceGmail)
	require.NoError(t, err)
	cal, err := service.Authenticator(ServiceCalendar)
	require.NoError(t, err)

	assert.NotEqual(t, gmail.Service(), cal.Service())
}
