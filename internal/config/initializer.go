package config

import (
	"strings"

	"go.uber.org/zap"

	"github.com/turbolytics/pgadmin-init/internal"
	"github.com/turbolytics/pgadmin-init/internal/local"
	"github.com/turbolytics/pgadmin-init/internal/s3"
	"github.com/turbolytics/pgadmin-init/internal/seeder"
)

// NewSource picks the input source from the configured location.
func NewSource(c *Config, l *zap.Logger) (internal.Source, error) {
	if strings.HasPrefix(c.Input, "s3://") {
		bucket, key, err := s3.ParseURL(c.Input)
		if err != nil {
			return nil, err
		}
		return s3.New(
			s3.WithLogger(l),
			s3.WithBucket(bucket),
			s3.WithKey(key),
			s3.WithRegion(c.S3.Region),
			s3.WithEndpoint(c.S3.Endpoint),
			s3.WithForcePathStyle(c.S3.ForcePathStyle),
		)
	}
	return local.NewSource(c.Input), nil
}

func InitializeSeeder(c *Config, l *zap.Logger) (*seeder.Seeder, error) {
	source, err := NewSource(c, l)
	if err != nil {
		return nil, err
	}

	mode, err := c.FileMode()
	if err != nil {
		return nil, err
	}

	paths := c.Paths()
	repository := local.New(
		paths.Dir,
		local.WithMode(mode),
		local.WithOwner(c.Owner.UID, c.Owner.GID),
		local.WithLogger(l),
	)

	return seeder.New(
		seeder.WithLogger(l),
		seeder.WithSource(source),
		seeder.WithRepository(repository),
		seeder.WithStorageDir(paths.Dir),
		seeder.WithFileName(c.Storage.File),
		seeder.WithWaitOptions(c.WaitOptions(l)),
	)
}
