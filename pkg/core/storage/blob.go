// Package storage stores uploaded documents and hands back their URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrInvalidPath = errors.New("invalid object path")

// BlobStore uploads an object and returns the URL it can be fetched from.
type BlobStore interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error)
}

// LocalStore keeps objects on the local filesystem under root.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes body to a temporary file first so a failed or cancelled
// upload never leaves a partial object behind.
func (s *LocalStore) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error) {
	dst, clean, err := s.Resolve(objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: body}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("commit object: %w", err)
	}

	return s.baseURL + "/" + clean, nil
}

// Resolve maps an object path to its file on disk. Paths escaping root are rejected.
func (s *LocalStore) Resolve(objectPath string) (file string, clean string, err error) {
	clean = path.Clean("/" + strings.TrimSpace(objectPath))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || strings.Contains(objectPath, "..") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, objectPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), clean, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
