// Package media stores uploaded doctor documents (certificates and profile
// pictures) on local disk or S3 and hands back a public URL.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"telehealth-server/internal/config"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("media: unsupported file type")
	ErrTooLarge        = errors.New("media: file too large")
)

// MaxUploadSize bounds a single uploaded file.
const MaxUploadSize = 5 << 20

var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Store persists an object under name and returns its public URL.
type Store interface {
	Put(ctx context.Context, name string, r io.ReadSeeker, size int64, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
}

// New builds the store selected by cfg.Driver.
func New(cfg config.MediaConfig) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalPath, cfg.PublicURL)
	case "s3":
		return NewS3(cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return nil, fmt.Errorf("unsupported media driver %q", cfg.Driver)
	}
}

// Object is a stored upload.
type Object struct {
	Name string
	URL  string
}

// SaveUpload validates a multipart file and stores it under folder with a
// generated name.
func SaveUpload(ctx context.Context, store Store, folder string, fh *multipart.FileHeader) (Object, error) {
	if fh.Size > MaxUploadSize {
		return Object{}, ErrTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return Object{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Object{}, fmt.Errorf("failed to read upload: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := allowedTypes[contentType]
	if !ok {
		return Object{}, ErrUnsupportedType
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Object{}, fmt.Errorf("failed to rewind upload: %w", err)
	}

	name := ObjectName(folder, ext)
	url, err := store.Put(ctx, name, f, fh.Size, contentType)
	if err != nil {
		return Object{}, err
	}
	return Object{Name: name, URL: url}, nil
}

// ObjectName returns a fresh object name under folder.
func ObjectName(folder, ext string) string {
	return path.Join(strings.Trim(folder, "/"), uuid.New().String()+ext)
}
