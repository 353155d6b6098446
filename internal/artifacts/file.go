package artifacts

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/evalia-ai/evalia/pkg/errors"
)

// FileStore keeps artifacts under a local directory.
type FileStore struct {
	root string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.WrapIO("create", root, err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Put implements Store.
func (s *FileStore) Put(ctx context.Context, key string, r io.Reader) (Object, error) {
	if err := validKey(key); err != nil {
		return Object{}, err
	}
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Object{}, errors.WrapIO("create", filepath.Dir(dst), err)
	}

	// Spool next to the destination so the final rename stays on one filesystem.
	f, size, sum, err := spool(r, filepath.Dir(dst))
	if err != nil {
		return Object{}, err
	}
	_ = f.Close()
	if err := ctx.Err(); err != nil {
		_ = os.Remove(f.Name())
		return Object{}, err
	}
	if err := os.Rename(f.Name(), dst); err != nil {
		_ = os.Remove(f.Name())
		return Object{}, errors.WrapIO("rename", dst, err)
	}
	return Object{Key: key, Size: size, Checksum: sum}, nil
}

// Open implements Store.
func (s *FileStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("artifact", key)
	}
	if err != nil {
		return nil, errors.WrapIO("open", key, err)
	}
	return f, nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.WrapIO("delete", key, err)
	}
	return nil
}
