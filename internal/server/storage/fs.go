package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/taxintake/intakeengine/internal/filex"
)

// FS stores objects as files below a root directory. Keys map to relative
// paths.
type FS struct {
	root string
}

// NewFS creates root if needed.
func NewFS(root string) (*FS, error) {
	dir, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fault("init", root, err)
	}
	return &FS{root: dir}, nil
}

func (s *FS) path(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *FS) Store(ctx context.Context, data []byte, name, category string) (string, error) {
	key := NewObjectKey(category, name)
	return key, s.Put(ctx, key, data, "")
}

func (s *FS) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(p, data, 0o640); err != nil {
		return fault("put", key, err)
	}
	return nil
}

func (s *FS) Fetch(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fault("fetch", key, err)
	}
	return b, nil
}

func (s *FS) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fault("stat", key, err)
	}
}

func (s *FS) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fault("delete", key, err)
	}
	return nil
}
