package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spec-kit/catalog-service/internal/api/dto"
	"github.com/spec-kit/catalog-service/internal/domain"
)

// FileSessionStore keeps a session on disk between CLI invocations.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Path is the backing file.
func (s *FileSessionStore) Path() string { return s.path }

// Load returns the stored session, or nil when none is stored.
func (s *FileSessionStore) Load() (*domain.Session, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var stored dto.SessionResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", s.path, err)
	}
	return stored.Session(), nil
}

// Save writes session, replacing any previous one.
func (s *FileSessionStore) Save(session *domain.Session) error {
	if session == nil {
		return s.Clear()
	}
	raw, err := json.MarshalIndent(dto.NewSessionResponse(session), "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return os.WriteFile(s.path, raw, 0o600)
}

// Clear removes the stored session. A missing file is not an error.
func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
