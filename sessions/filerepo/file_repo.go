// Package filerepo persists the session record as a JSON file.
package filerepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-storefront/sessions"
)

var _ sessions.Repo = (*FileRepo)(nil)

// FileRepo stores the record at a single path. Writes go to a temporary file in
// the same directory and are renamed over the target, so a reader in another
// process sees either the old or the new record.
type FileRepo struct {
	path string
	mu   sync.Mutex
}

// New returns a repo storing the record at path. The parent directory is
// created on first save.
func New(path string) (*FileRepo, error) {
	if path == "" {
		return nil, errors.New("[filerepo.New] path is required")
	}
	return &FileRepo{path: path}, nil
}

// Path returns the record location.
func (r *FileRepo) Path() string {
	return r.path
}

func (r *FileRepo) Load(_ context.Context) (*sessions.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileRepo.Load] %w", err)
	}
	return sessions.DecodeRecord(data)
}

func (r *FileRepo) Save(_ context.Context, record sessions.Record) error {
	data, err := sessions.EncodeRecord(record)
	if err != nil {
		return fmt.Errorf("[FileRepo.Save] encode: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileRepo.Save] mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("[FileRepo.Save] temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo.Save] write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo.Save] chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileRepo.Save] close: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("[FileRepo.Save] rename: %w", err)
	}
	return nil
}

func (r *FileRepo) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[FileRepo.Clear] %w", err)
	}
	return nil
}
