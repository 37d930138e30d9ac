package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore persists the two session entries as files under a directory.
// Writes go through a temp-file rename so a crash mid-write leaves the
// previous entry intact rather than a truncated one.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("session: empty file store directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &FileStore{dir: dir}, nil
}

// Load describes the load operation and its observable behavior.
//
// Load does not mutate shared global state and can be used concurrently.
func (s *FileStore) Load(_ context.Context) (Record, error) {
	credential, err := s.readEntry(KeyCredential)
	if err != nil {
		return Record{}, err
	}
	principal, err := s.readEntry(KeyPrincipal)
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(credential, principal), nil
}

// Save writes both entries through. A nil principal removes the
// principal file.
func (s *FileStore) Save(_ context.Context, rec Record) error {
	principal, err := encodePrincipal(rec.Principal)
	if err != nil {
		return err
	}

	if rec.Token == "" {
		if err := s.removeEntry(KeyCredential); err != nil {
			return err
		}
	} else if err := s.writeEntry(KeyCredential, []byte(rec.Token)); err != nil {
		return err
	}

	if principal == nil {
		return s.removeEntry(KeyPrincipal)
	}
	return s.writeEntry(KeyPrincipal, principal)
}

// Clear removes both entry files.
func (s *FileStore) Clear(_ context.Context) error {
	if err := s.removeEntry(KeyCredential); err != nil {
		return err
	}
	return s.removeEntry(KeyPrincipal)
}

func (s *FileStore) entryPath(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *FileStore) readEntry(key string) ([]byte, error) {
	data, err := os.ReadFile(s.entryPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return data, nil
}

func (s *FileStore) writeEntry(key string, value []byte) error {
	path := s.entryPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *FileStore) removeEntry(key string) error {
	err := os.Remove(s.entryPath(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
