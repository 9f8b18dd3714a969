package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/turbolytics/pgadmin-init/internal"
)

const DefaultSourcePath = "/pgadmin-init/servers.json"

// Source reads the servers document from the local filesystem.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Location() string {
	return s.path
}

func (s *Source) Exists(ctx context.Context) (bool, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *Source) Read(ctx context.Context) ([]byte, error) {
	bs, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.path, internal.ErrNotFound)
	}
	return bs, err
}
