// Package archive stores exported client data before a pixel is deleted.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sink persists one export document and returns where it landed.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// DirSink writes exports into a local directory, optionally as a zip archive
// holding the single document.
type DirSink struct {
	Dir      string
	Compress bool
}

func (d DirSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid export name %q", name)
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	if !d.Compress {
		dest := nextAvailable(filepath.Join(dir, name))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return "", fmt.Errorf("write export: %w", err)
		}
		return dest, nil
	}

	dest := nextAvailable(filepath.Join(dir, name+".zip"))
	if err := zipDocument(dest, name, data); err != nil {
		_ = os.Remove(dest)
		return "", err
	}
	return dest, nil
}

// nextAvailable returns p, or p with a -N suffix when p already exists.
func nextAvailable(p string) string {
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return p
	}
	dir := filepath.Dir(p)
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	if strings.HasSuffix(base, ".json.zip") {
		ext = ".json.zip"
	}
	name := strings.TrimSuffix(base, ext)
	for i := 1; i < 10000; i++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s-%d%s", name, i, ext))
		if _, err := os.Stat(cand); errors.Is(err, fs.ErrNotExist) {
			return cand
		}
	}
	return p
}

func zipDocument(dest, name string, data []byte) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("create archive entry: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write archive entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return f.Sync()
}

// Multi saves to each sink in order and stops at the first failure.
// The returned location joins every location with ", ".
type Multi []Sink

func (m Multi) Save(ctx context.Context, name string, data []byte) (string, error) {
	var locs []string
	for _, s := range m {
		loc, err := s.Save(ctx, name, data)
		if err != nil {
			return strings.Join(locs, ", "), err
		}
		locs = append(locs, loc)
	}
	return strings.Join(locs, ", "), nil
}
