package seeder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/turbolytics/pgadmin-init/internal"
	"github.com/turbolytics/pgadmin-init/internal/servers"
	"github.com/turbolytics/pgadmin-init/internal/storage"
)

var (
	ErrInputNotFound  = errors.New("servers input not found")
	ErrStorageTimeout = errors.New("timed out waiting for storage directory")
)

type Option func(*Seeder)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Seeder) {
		s.logger = logger
	}
}

func WithSource(source internal.Source) Option {
	return func(s *Seeder) {
		s.source = source
	}
}

func WithRepository(repository internal.Repository) Option {
	return func(s *Seeder) {
		s.repository = repository
	}
}

// WithStorageDir sets the directory pgadmin creates for the user. It should be
// the directory the repository writes into.
func WithStorageDir(dir string) Option {
	return func(s *Seeder) {
		s.storageDir = dir
	}
}

func WithFileName(name string) Option {
	return func(s *Seeder) {
		s.fileName = name
	}
}

func WithWaitOptions(opts storage.WaitOptions) Option {
	return func(s *Seeder) {
		s.wait = opts
	}
}

// Seeder copies a servers document into a pgadmin user's storage directory.
type Seeder struct {
	logger     *zap.Logger
	source     internal.Source
	repository internal.Repository
	storageDir string
	fileName   string
	wait       storage.WaitOptions
}

type Result struct {
	Path     string
	Servers  []string
	Duration time.Duration
}

func New(opts ...Option) (*Seeder, error) {
	s := &Seeder{
		logger:   zap.NewNop(),
		fileName: storage.DefaultFileName,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if s.source == nil {
		return nil, errors.New("seeder requires a source")
	}
	if s.repository == nil {
		return nil, errors.New("seeder requires a repository")
	}
	if s.storageDir == "" {
		return nil, errors.New("seeder requires a storage directory")
	}
	return s, nil
}

// Run performs the copy. A missing input fails before any waiting.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	location := s.source.Location()

	ok, err := s.source.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", location, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", location, ErrInputNotFound)
	}

	wait := s.wait
	if wait.Logger == nil {
		wait.Logger = s.logger
	}
	ready, err := storage.WaitForDir(ctx, s.storageDir, wait)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, fmt.Errorf("%s: %w", s.storageDir, ErrStorageTimeout)
	}

	bs, err := s.source.Read(ctx)
	if errors.Is(err, internal.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", location, ErrInputNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}

	doc, err := servers.Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}

	out, err := doc.Marshal()
	if err != nil {
		return nil, err
	}

	path, err := s.repository.Write(ctx, s.fileName, bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("writing %s: %w", s.fileName, err)
	}

	return &Result{
		Path:     path,
		Servers:  doc.Names(),
		Duration: time.Since(start),
	}, nil
}
