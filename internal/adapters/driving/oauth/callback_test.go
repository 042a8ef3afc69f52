//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koyomi/koyomi/internal/core/domain"
)

// startServer starts a callback server on an ephemeral port.
func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	server := NewCallbackServer(0, state)
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func TestNewCallbackServer(t *testing.T) {
	server := NewCallbackServer(8080, "test-state-123")

	require.NotNil(t, server)
	assert.Equal(t, 8080, server.port)
	assert.Equal(t, "test-state-123", server.expectedState)
	assert.NotNil(t, server.codeChan)
	assert.NotNil(t, server.errChan)
	assert.Nil(t, server.server)
	assert.Nil(t, server.listener)
}

func TestCallbackServer_StartPicksEphemeralPort(t *testing.T) {
	server := startServer(t, "test-state")

	assert.NotZero(t, server.Port())
	assert.Equal(t, fmt.Sprintf("http://localhost:%d/callback", server.Port()), server.RedirectURI())
}

func TestCallbackServer_Stop_NotStarted(t *testing.T) {
	server := NewCallbackServer(8080, "test-state")

	require.NoError(t, server.Stop())
}

func TestCallbackServer_MultipleStopCalls(t *testing.T) {
	server := startServer(t, "test-state")

	for i := 0; i < 3; i++ {
		require.NoError(t, server.Stop(), "Stop call %d failed", i)
	}
}

func TestCallbackServer_HandleCallback_Success(t *testing.T) {
	expectedState := "test-state-abc123"
	expectedCode := "auth-code-xyz789"
	server := startServer(t, expectedState)

	resp, err := http.Get(fmt.Sprintf("%s?code=%s&state=%s",
		server.RedirectURI(), expectedCode, expectedState))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))

	code, err := server.WaitForCode(time.Second)
	require.NoError(t, err)
	assert.Equal(t, expectedCode, code)
}

func TestCallbackServer_HandleCallback_StateMismatch(t *testing.T) {
	server := startServer(t, "correct-state")

	resp, err := http.Get(fmt.Sprintf("%s?code=somecode&state=wrong-state", server.RedirectURI()))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = server.WaitForCode(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state mismatch")
}

func TestCallbackServer_HandleCallback_MissingCode(t *testing.T) {
	server := startServer(t, "test-state")

	resp, err := http.Get(fmt.Sprintf("%s?state=test-state", server.RedirectURI()))
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = server.WaitForCode(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no authorization code received")
}

func TestCallbackServer_HandleCallback_OAuthError(t *testing.T) {
	server := startServer(t, "test-state")

	resp, err := http.Get(fmt.Sprintf("%s?error=%s&error_description=%s",
		server.RedirectURI(), url.QueryEscape("access_denied"), url.QueryEscape("User denied access")))
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = server.WaitForCode(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
	assert.Contains(t, err.Error(), "User denied access")
}

func TestCallbackServer_StateValidation_CaseSensitive(t *testing.T) {
	server := startServer(t, "TestState123")

	resp, err := http.Get(fmt.Sprintf("%s?code=somecode&state=teststate123", server.RedirectURI()))
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = server.WaitForCode(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state mismatch")
}

func TestCallbackServer_WaitForCode_Timeout(t *testing.T) {
	server := NewCallbackServer(0, "test-state")

	code, err := server.WaitForCode(100 * time.Millisecond)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthTimeout)
	assert.Empty(t, code)
}

func TestCallbackServer_WaitForCode_CodeConsumedOnce(t *testing.T) {
	server := NewCallbackServer(0, "test-state")

	go func() {
		time.Sleep(50 * time.Millisecond)
		server.codeChan <- "auth-code-multi"
	}()

	code, err := server.WaitForCode(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "auth-code-multi", code)

	// Code already consumed: a second waiter times out.
	_, err = server.WaitForCode(100 * time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthTimeout)
}

func TestCallbackServer_ConcurrentCallbacks(t *testing.T) {
	expectedState := "concurrent-state"
	server := startServer(t, expectedState)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			resp, err := http.Get(fmt.Sprintf("%s?code=code-%d&state=%s",
				server.RedirectURI(), index, expectedState))
			if err == nil {
				resp.Body.Close()
			}
		}(i)
	}
	wg.Wait()

	// Only the first code gets through (buffered channel of size 1).
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	select {
	case code := <-server.codeChan:
		assert.NotEmpty(t, code)
	case <-ctx.Done():
		t.Fatal("no code received")
	}
}

func TestCallbackServer_RepeatedErrorCallbacksDoNotBlock(t *testing.T) {
	server := startServer(t, "correct-state")

	// Nobody is draining errChan; every bad request must still get a
	// response instead of wedging a handler on the full channel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			resp, err := http.Get(fmt.Sprintf("%s?code=somecode&state=wrong-%d", server.RedirectURI(), i))
			if err != nil {
				t.Errorf("request %d: %v", i, err)
				return
			}
			resp.Body.Close()
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("error callbacks blocked the handler")
	}

	_, err := server.WaitForCode(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state mismatch")
}

func TestCallbackServer_InvalidPath(t *testing.T) {
	server := startServer(t, "test-state")

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/wrongpath", server.Port()))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResultHTML(t *testing.T) {
	html := resultHTML("Test Title", "Test Message")

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "Test Title")
	assert.Contains(t, html, "Test Message")
	assert.Contains(t, html, "Koyomi - OAuth Callback")
}
