package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"
)

// DiskStore writes images under dir; the router serves dir at URLPrefix.
type DiskStore struct {
	dir       string
	urlPrefix string
	now       func() time.Time
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir, urlPrefix: "/uploads", now: time.Now}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Save(_ context.Context, fh *multipart.FileHeader) (string, error) {
	if !AllowedImage(fh.Filename) {
		return "", ErrUnsupportedImage
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := objectName(fh.Filename, s.now())
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return s.urlPrefix + "/" + name, nil
}
