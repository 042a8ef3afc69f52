package driven

import "github.com/koyomi/koyomi/internal/core/domain"

// CredentialStore persists OAuth credentials for one Google service.
// One token file holds exactly one credential.
type CredentialStore interface {
	// Load reads and validates the token file at path against the
	// requested scopes. Absent, unreadable, or schema-invalid files all
	// yield (nil, nil); a corrupted-but-present file is deleted as a
	// side effect so a repeated Load is idempotent. The returned error
	// is reserved for the deletion itself failing.
	Load(path string, scopes []string) (*domain.Credential, error)

	// Save serializes the credential to path as JSON, creating parent
	// directories as needed. The file carries owner-only permissions
	// from the moment it exists; there is never a group/world-readable
	// window.
	Save(path string, cred *domain.Credential) error

	// SecureDelete overwrites the file's bytes with random data of the
	// same length before unlinking it. No-op when the file is absent.
	SecureDelete(path string) error
}
