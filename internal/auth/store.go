package auth

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/core/ports/driven"
	"github.com/koyomi/koyomi/internal/logger"
)

// Ensure FileStore implements the interface.
var _ driven.CredentialStore = (*FileStore)(nil)

// FileStore persists credentials as JSON token files in the standard
// "authorized user" shape. Corruption is recovered by discarding the
// file, never by raising: a bad token file and a missing token file are
// the same state to callers.
type FileStore struct{}

// NewFileStore creates a file-based credential store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Load reads the token file at path and validates it against scopes.
// Absent, unreadable, or invalid files yield (nil, nil); an invalid file
// that exists is securely deleted so a repeated Load is idempotent.
func (s *FileStore) Load(path string, scopes []string) (*domain.Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		logger.Warn("token file %s unreadable: %v", path, err)
		return nil, nil
	}

	var cred domain.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		logger.Warn("token file %s corrupted, discarding: %v", path, err)
		return nil, s.SecureDelete(path)
	}

	if cred.AccessToken == "" {
		logger.Warn("token file %s has no access token, discarding", path)
		return nil, s.SecureDelete(path)
	}
	if !cred.HasScopes(scopes) {
		logger.Warn("token file %s does not cover requested scopes, discarding", path)
		return nil, s.SecureDelete(path)
	}

	return &cred, nil
}

// Save writes the credential to path with owner-only permissions.
// The bytes land in a 0600 temp file in the same directory which is then
// renamed over path, so the token is never world-readable, even briefly.
func (s *FileStore) Save(path string, cred *domain.Credential) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("restrict token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close token file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// SecureDelete overwrites the file with random bytes of the same length
// before unlinking it, mitigating recovery of token material from disk.
// No-op when the file does not exist.
func (s *FileStore) SecureDelete(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat token file: %w", err)
	}

	if size := info.Size(); size > 0 {
		noise := make([]byte, size)
		if _, err := rand.Read(noise); err != nil {
			return fmt.Errorf("generate overwrite bytes: %w", err)
		}

		f, err := os.OpenFile(path, os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("open token file for overwrite: %w", err)
		}
		if _, err := f.Write(noise); err != nil {
			f.Close()
			return fmt.Errorf("overwrite token file: %w", err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return fmt.Errorf("sync overwritten token file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close overwritten token file: %w", err)
		}
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
