package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidKey is returned for keys that could escape the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

var validSegment = regexp.MustCompile(`^[A-Za-z0-9._@+-]+$`)

// FSStorage implements Storage on the local filesystem under a root directory.
type FSStorage struct {
	basePath string
}

// NewFS creates the root directory if needed and returns a filesystem store.
func NewFS(basePath string) (*FSStorage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FSStorage{basePath: basePath}, nil
}

var _ Storage = (*FSStorage)(nil)

func (s *FSStorage) path(key string) (string, error) {
	if key == "" || len(key) > 512 {
		return "", ErrInvalidKey
	}
	segs := strings.Split(key, "/")
	for _, seg := range segs {
		if seg == "." || seg == ".." || !validSegment.MatchString(seg) {
			return "", ErrInvalidKey
		}
	}
	return filepath.Join(append([]string{s.basePath}, segs...)...), nil
}

// Put writes to a temporary file, syncs it and renames it into place,
// so a returned key is always complete on disk.
func (s *FSStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return ObjectInfo{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return ObjectInfo{}, err
	}
	tmpName := tmp.Name()
	n, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpName, p)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return ObjectInfo{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Key:          key,
		Size:         n,
		ContentType:  opt.ContentType,
		LastModified: st.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

// Get opens the file for key.
func (s *FSStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ObjectInfo{}, ErrNotFound
	}
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}
	return f, ObjectInfo{Key: key, Size: st.Size(), LastModified: st.ModTime()}, nil
}

// Delete removes the file for key.
func (s *FSStorage) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
