package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores objects in a directory served by the API under PublicURL.
type Local struct {
	root      string
	publicURL string
}

// NewLocal creates root if needed.
func NewLocal(root, publicURL string) (*Local, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("media: failed to make path %q absolute: %w", root, err)
	}
	if err := mkdirAll(root); err != nil {
		return nil, fmt.Errorf("media: failed to create %q: %w", root, err)
	}
	return &Local{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Root is the directory objects are written to.
func (s *Local) Root() string {
	return s.root
}

func (s *Local) pathFor(name string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(name, "/")))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("media: invalid object name %q", name)
	}
	return full, nil
}

func (s *Local) Put(_ context.Context, name string, r io.ReadSeeker, _ int64, _ string) (string, error) {
	full, err := s.pathFor(name)
	if err != nil {
		return "", err
	}
	if err := mkdirAll(filepath.Dir(full)); err != nil {
		return "", err
	}
	if err := writeFile(full, r); err != nil {
		return "", err
	}
	return s.publicURL + "/" + strings.TrimPrefix(name, "/"), nil
}

func (s *Local) Delete(_ context.Context, name string) error {
	full, err := s.pathFor(name)
	if err != nil {
		return err
	}
	return removeFile(full)
}

func mkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func writeFile(full string, r io.Reader) error {
	f, err := os.Create(full)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full) // cleanup on failure
		return err
	}
	if err := f.Sync(); err != nil {
		os.Remove(full)
		return err
	}
	return nil
}

func removeFile(full string) error {
	err := os.Remove(full)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
