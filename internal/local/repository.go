package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	DefaultMode os.FileMode = 0o600

	// pgadmin's user and group inside the official image
	DefaultUID = 5050
	DefaultGID = 5050
)

type Option func(*Repository)

type Repository struct {
	basePath string
	mode     os.FileMode
	uid      int
	gid      int
	logger   *zap.Logger
}

func WithMode(mode os.FileMode) Option {
	return func(r *Repository) {
		r.mode = mode
	}
}

// WithOwner sets the uid and gid files are chowned to. -1 leaves that id unchanged.
func WithOwner(uid, gid int) Option {
	return func(r *Repository) {
		r.uid = uid
		r.gid = gid
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

func New(basePath string, opts ...Option) *Repository {
	r := &Repository{
		basePath: basePath,
		mode:     DefaultMode,
		uid:      DefaultUID,
		gid:      DefaultGID,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Write stores the reader under basePath/key. The base directory must already
// exist. Permission and ownership changes are best effort.
func (r *Repository) Write(ctx context.Context, key string, reader io.Reader) (string, error) {
	fullPath := filepath.Join(
		r.basePath,
		key,
	)
	r.logger.Info("writing file", zap.String("path", fullPath))

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, r.mode)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}

	// OpenFile is subject to umask and leaves existing files' modes alone
	if err := os.Chmod(fullPath, r.mode); err != nil {
		r.logger.Warn("could not set permissions",
			zap.String("path", fullPath),
			zap.Stringer("mode", r.mode),
			zap.Error(err),
		)
	}

	if r.uid >= 0 || r.gid >= 0 {
		if err := os.Chown(fullPath, r.uid, r.gid); err != nil {
			// expected when not running as root, pgadmin fixes ownership on access
			r.logger.Debug("could not set owner",
				zap.String("path", fullPath),
				zap.Int("uid", r.uid),
				zap.Int("gid", r.gid),
				zap.Error(err),
			)
		}
	}

	return fullPath, nil
}
