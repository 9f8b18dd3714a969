package servers

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/turbolytics/pgadmin-init/internal/config"
	"github.com/turbolytics/pgadmin-init/internal/seeder"
)

func NewSeedCommand(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Copies the servers json into the pgadmin user's storage directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSeed(cmd, o)
		},
	}
}

// RunSeed seeds the servers file. Failures are logged and only returned when
// strict mode is enabled, so a missing file never stops the container.
func RunSeed(cmd *cobra.Command, o *Options) error {
	c, logger, err := o.Load("seed")
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("initializing pgadmin configuration",
		zap.String("email", c.Email),
		zap.String("input", c.Input),
	)

	s, err := config.InitializeSeeder(c, logger)
	if err != nil {
		logger.Error("could not initialize seeder", zap.Error(err))
		return strict(c, err)
	}

	res, err := s.Run(cmd.Context())
	if err != nil {
		switch {
		case errors.Is(err, seeder.ErrInputNotFound):
			logger.Warn("servers input not found", zap.String("input", c.Input), zap.Error(err))
		case errors.Is(err, seeder.ErrStorageTimeout):
			logger.Error("failed to initialize storage directory",
				zap.String("dir", c.Paths().Dir),
				zap.Duration("timeout", c.Wait.Timeout),
			)
		default:
			logger.Error("error copying servers json", zap.Error(err))
		}
		return strict(c, err)
	}

	logger.Info("pgadmin server configuration initialized",
		zap.String("file", res.Path),
		zap.Strings("servers", res.Servers),
		zap.Duration("duration", res.Duration),
	)
	return nil
}

func strict(c *config.Config, err error) error {
	if c.Strict {
		return err
	}
	return nil
}
