package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hotelbey/bey/backend"
)

const defaultContentType = "application/octet-stream"

// NewLocal creates a document store, which writes documents to a local directory.
// The content type of a document is kept in a sidecar file with the suffix ".meta".
func NewLocal(dir string, publicURL string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %v", dir, err)
	}

	return &Local{dir: dir, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

type Local struct {
	dir       string
	publicURL string
}

func (d *Local) GenerateURL(_ context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return d.publicURL + "/" + name, nil
}

func (d *Local) Get(_ context.Context, name string) ([]byte, string, error) {
	if err := validateName(name); err != nil {
		return nil, "", err
	}

	content, err := os.ReadFile(filepath.Join(d.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", backend.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document %s: %v", name, err)
	}

	contentType := defaultContentType
	if meta, err := os.ReadFile(filepath.Join(d.dir, name+".meta")); err == nil && len(meta) != 0 {
		contentType = string(meta)
	}

	return content, contentType, nil
}

func (d *Local) Save(_ context.Context, name string, content []byte, contentType string) error {
	if err := validateName(name); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(d.dir, name), content, 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, name+".meta"), []byte(contentType), 0o644); err != nil {
		return fmt.Errorf("failed to write metadata of document %s: %v", name, err)
	}
	return nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}
