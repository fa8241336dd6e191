package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

const defaultMediaDir = "media"

// LocalStore keeps files on disk under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore returns a LocalStore rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = defaultMediaDir
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}

	return &LocalStore{root: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, folder, name, contentType string, size int64, r io.Reader) error {
	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create folder %s: %w", folder, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(r, size)); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s/%s: %w", folder, name, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s/%s: %w", folder, name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("store %s/%s: %w", folder, name, err)
	}
	return nil
}

func (s *LocalStore) Open(ctx context.Context, folder, name string) (*Object, error) {
	f, err := os.Open(filepath.Join(s.root, folder, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("open %s/%s: %w", folder, name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s/%s: %w", folder, name, err)
	}

	if info.IsDir() {
		f.Close()
		return nil, ErrNotExist
	}

	return &Object{
		Body:        f,
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}
