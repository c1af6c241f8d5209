// Package storage keeps uploaded product and logo images on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go-pos-server/internal/errs"

	"github.com/gabriel-vasile/mimetype"
)

// URLPrefix is the public path images are served under.
const URLPrefix = "/product-image/"

// MaxImageSize caps a single upload.
const MaxImageSize = 5 << 20

// Image types accepted for products and for the store logo.
var (
	ProductImageTypes = []string{"image/png", "image/jpeg"}
	LogoImageTypes    = []string{"image/png", "image/jpeg", "image/webp"}
)

// Local stores files in a single directory.
type Local struct {
	dir string
	seq atomic.Uint64
}

// NewLocal creates dir if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Dir is the directory served under URLPrefix.
func (l *Local) Dir() string { return l.dir }

// Save writes r under a generated name and returns its public reference.
// The content type is sniffed, not trusted from the client.
func (l *Local) Save(r io.Reader, originalName, prefix string, allowed []string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", errs.Reason(errs.ErrValidation, "image exceeds %d MB", MaxImageSize>>20)
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowed...) {
		return "", errs.Reason(errs.ErrValidation, "only %s images are allowed", strings.Join(allowed, ", "))
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = mt.Extension()
	}
	name := fmt.Sprintf("%s%d%d%s", prefix, time.Now().UnixNano(), l.seq.Add(1), ext)
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return URLPrefix + name, nil
}

// IsLocal reports whether ref points at a file this store owns, as opposed
// to an external URL.
func IsLocal(ref *string) bool {
	return ref != nil && strings.HasPrefix(*ref, URLPrefix)
}

// Delete removes the file behind a local reference. External references are ignored.
func (l *Local) Delete(ref string) error {
	if !strings.HasPrefix(ref, URLPrefix) {
		return nil
	}
	return os.Remove(l.path(strings.TrimPrefix(ref, URLPrefix)))
}

// List returns the names of all stored files.
func (l *Local) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Read returns the contents of a stored file.
func (l *Local) Read(name string) ([]byte, error) {
	return os.ReadFile(l.path(name))
}

// Write stores data under name, replacing any existing file.
func (l *Local) Write(name string, data []byte) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(l.path(name), data, 0o644)
}

// Clear deletes every stored file. Failures are collected, not fatal.
func (l *Local) Clear() []error {
	names, err := l.List()
	if err != nil {
		return []error{err}
	}
	var failed []error
	for _, n := range names {
		if err := os.Remove(l.path(n)); err != nil {
			failed = append(failed, fmt.Errorf("delete %s: %w", n, err))
		}
	}
	return failed
}

// path keeps names inside dir.
func (l *Local) path(name string) string {
	return filepath.Join(l.dir, filepath.Base(filepath.Clean("/"+name)))
}

