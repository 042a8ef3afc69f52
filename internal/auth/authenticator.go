package auth

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/koyomi/koyomi/internal/adapters/driving/oauth"
	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/core/ports/driven"
	"github.com/koyomi/koyomi/internal/logger"
)

// DefaultFlowTimeout bounds the interactive browser consent flow.
const DefaultFlowTimeout = 300 * time.Second

// Ensure GoogleAuthenticator implements the TokenProvider interface.
var _ driven.TokenProvider = (*GoogleAuthenticator)(nil)

// GoogleAuthenticator manages the OAuth2 credential lifecycle for one
// named Google service: obtain, cache, refresh, persist, revoke.
//
// One instance owns one (client-secret file, token file) pair for the
// process; sharing a token file across processes is unsupported.
// Authenticate is not re-entrant across goroutines for the same
// instance (the interactive flow opens one local listener); callers
// must serialize Authenticate calls per instance. The read-only methods
// are safe for concurrent use.
type GoogleAuthenticator struct {
	service     string
	secretsPath string
	tokenPath   string
	scopes      []string
	store       driven.CredentialStore

	flowTimeout time.Duration
	openBrowser func(url string) error

	mu           sync.RWMutex
	cred         *domain.Credential
	tokenExists  bool
	lastAuthTime time.Time
	failureCount int
}

// NewGoogleAuthenticator creates an authenticator for the named service.
// secretsPath is the OAuth2 client descriptor JSON (read-only);
// tokenPath is where the authorized-user token file lives.
func NewGoogleAuthenticator(
	service string,
	secretsPath, tokenPath string,
	scopes []string,
	store driven.CredentialStore,
) *GoogleAuthenticator {
	a := &GoogleAuthenticator{
		service:     service,
		secretsPath: secretsPath,
		tokenPath:   tokenPath,
		scopes:      append([]string(nil), scopes...),
		store:       store,
		flowTimeout: DefaultFlowTimeout,
		openBrowser: oauth.OpenBrowser,
	}
	if _, err := os.Stat(tokenPath); err == nil {
		a.tokenExists = true
	}
	return a
}

// SetFlowTimeout overrides the interactive flow timeout.
func (a *GoogleAuthenticator) SetFlowTimeout(d time.Duration) {
	a.flowTimeout = d
}

// Authenticate produces a usable credential, trying in order: the
// persisted token file, a silent refresh exchange, and finally the
// interactive browser flow. It returns an *domain.AuthenticationError
// only when none of the three could produce a credential.
func (a *GoogleAuthenticator) Authenticate(ctx context.Context) (*domain.Credential, error) {
	cred, err := a.store.Load(a.tokenPath, a.scopes)
	if err != nil {
		logger.Warn("discarding corrupted token file for %s: %v", a.service, err)
	}
	a.setTokenExists(cred != nil)

	if cred != nil && cred.IsValid() {
		logger.Debug("cached credential for %s still valid", a.service)
		a.cache(cred)
		return cred, nil
	}

	if cred != nil && cred.CanRefresh() {
		refreshed, err := a.refresh(ctx, cred)
		if err == nil {
			if err := a.store.Save(a.tokenPath, refreshed); err != nil {
				return nil, a.fail(fmt.Errorf("persist refreshed credential: %w", err))
			}
			logger.Info("refreshed credential for %s", a.service)
			a.setTokenExists(true)
			a.cache(refreshed)
			return refreshed, nil
		}
		// Transient: fall through to the interactive flow.
		logger.Warn("refresh for %s failed, falling back to interactive flow: %v", a.service, err)
	}

	cred, err = a.interactiveFlow(ctx)
	if err != nil {
		return nil, a.fail(err)
	}
	if err := a.store.Save(a.tokenPath, cred); err != nil {
		return nil, a.fail(fmt.Errorf("persist credential: %w", err))
	}
	logger.Info("completed interactive authorization for %s", a.service)
	a.setTokenExists(true)
	a.cache(cred)
	return cred, nil
}

// IsAuthenticated returns true only if a credential is cached in memory
// and it is valid with the 5-minute safety margin applied.
func (a *GoogleAuthenticator) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cred != nil && a.cred.IsValid()
}

// Credentials returns the cached credential iff IsAuthenticated, else
// nil. It never triggers Authenticate: callers decide when to pay the
// re-auth cost.
func (a *GoogleAuthenticator) Credentials() *domain.Credential {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cred == nil || !a.cred.IsValid() {
		return nil
	}
	return a.cred
}

// Token implements driven.TokenProvider for the Google API service
// constructors. It returns the cached access token without starting any
// flow.
func (a *GoogleAuthenticator) Token(ctx context.Context) (string, error) {
	cred := a.Credentials()
	if cred == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrNotAuthenticated, a.service)
	}
	return cred.AccessToken, nil
}

// Revoke securely deletes the token file and clears the in-memory
// credential. A later Authenticate re-derives state from disk or the
// interactive flow; the previously cached credential is never reused.
func (a *GoogleAuthenticator) Revoke() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.SecureDelete(a.tokenPath); err != nil {
		return fmt.Errorf("revoke %s: %w", a.service, err)
	}
	a.cred = nil
	a.lastAuthTime = time.Time{}
	a.tokenExists = false
	logger.Info("revoked credential for %s", a.service)
	return nil
}

// Status returns a read-only snapshot of the authenticator's state.
// It only reports what is already cached in memory; it never touches
// the network or the filesystem.
func (a *GoogleAuthenticator) Status() domain.AuthStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	status := domain.AuthStatus{
		Authenticated:      a.cred != nil && a.cred.IsValid(),
		TokenExists:        a.tokenExists,
		LastAuthTime:       a.lastAuthTime,
		FailureCount:       a.failureCount,
		SecondsUntilExpiry: -1,
	}
	if a.cred != nil {
		status.Expiry = a.cred.Expiry
		status.SecondsUntilExpiry = a.cred.SecondsUntilExpiry()
	}
	return status
}

// Service returns the Google service name this authenticator manages.
func (a *GoogleAuthenticator) Service() string {
	return a.service
}

// refresh exchanges the refresh token for a new access token against
// the token endpoint recorded in the credential itself.
func (a *GoogleAuthenticator) refresh(ctx context.Context, cred *domain.Credential) (*domain.Credential, error) {
	cfg := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cred.TokenURI},
		Scopes:       cred.Scopes,
	}

	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}

	refreshed := *cred
	refreshed.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	refreshed.Expiry = tok.Expiry
	return &refreshed, nil
}

// interactiveFlow runs the OAuth2 authorization-code grant with a local
// callback listener and browser consent, bounded by flowTimeout.
// Nothing is persisted on failure.
func (a *GoogleAuthenticator) interactiveFlow(ctx context.Context) (*domain.Credential, error) {
	data, err := os.ReadFile(a.secretsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrClientSecretMissing, a.secretsPath)
	}

	cfg, err := google.ConfigFromJSON(data, a.scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	srv := oauth.NewCallbackServer(0, state)
	if err := srv.Start(); err != nil {
		return nil, fmt.Errorf("start callback listener: %w", err)
	}
	defer srv.Stop()
	cfg.RedirectURL = srv.RedirectURI()

	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	logger.Info("authorize %s in your browser: %s", a.service, authURL)
	if err := a.openBrowser(authURL); err != nil {
		logger.Warn("could not open browser: %v", err)
	}

	code, err := srv.WaitForCode(a.flowTimeout)
	if err != nil {
		return nil, fmt.Errorf("authorization callback: %w", err)
	}

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	return &domain.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       append([]string(nil), a.scopes...),
		Expiry:       tok.Expiry,
	}, nil
}

// cache stores a freshly obtained credential and marks the auth time.
func (a *GoogleAuthenticator) cache(cred *domain.Credential) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cred = cred
	a.lastAuthTime = time.Now()
}

// fail counts the failure and wraps the cause in the one error type
// Authenticate surfaces.
func (a *GoogleAuthenticator) fail(err error) error {
	a.mu.Lock()
	a.failureCount++
	a.mu.Unlock()
	return &domain.AuthenticationError{Service: a.service, Err: err}
}

func (a *GoogleAuthenticator) setTokenExists(exists bool) {
	a.mu.Lock()
	a.tokenExists = exists
	a.mu.Unlock()
}
