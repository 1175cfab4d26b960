package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// TokenStore persists a single StoredToken.
type TokenStore interface {
	Load() (*StoredToken, error)
	Save(tok *StoredToken) error
	Delete() error
}

// FileStore keeps the token as a JSON file. Writes go to a temporary file in the
// same directory and are renamed into place, so readers never see a partial file.
type FileStore struct {
	path string
}

var _ TokenStore = (*FileStore)(nil)

// NewFileStore creates a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the token file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the token file. It returns ErrTokenNotFound if the file does not exist.
func (s *FileStore) Load() (*StoredToken, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrTokenNotFound
		}
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	var tok StoredToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, &StorageError{Op: "decode", Path: s.path, Err: err}
	}
	return &tok, nil
}

// Save replaces the token file atomically. Parent directories are created with
// 0700 and the file is written with 0600.
func (s *FileStore) Save(tok *StoredToken) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: fmt.Errorf("creating config directory: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "write", Path: s.path, Err: cause}
	}

	if err := tmp.Chmod(0600); err != nil {
		return cleanup(err)
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// Delete removes the token file. It returns ErrTokenNotFound if there was nothing to remove.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrTokenNotFound
		}
		return &StorageError{Op: "delete", Path: s.path, Err: err}
	}
	return nil
}
