package servers

import (
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/turbolytics/pgadmin-init/internal/config"
	"github.com/turbolytics/pgadmin-init/internal/local"
	"github.com/turbolytics/pgadmin-init/internal/storage"
)

// Options carries the configuration sources shared by the servers commands.
type Options struct {
	Viper      *viper.Viper
	ConfigPath string
	EnvFile    string
}

func NewOptions() *Options {
	return &Options{Viper: viper.New()}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigPath, "config", "c", "", "Path to config file")
	fs.StringVar(&o.EnvFile, "env-file", "", "Path to a dotenv file loaded into the environment first")

	fs.String("email", config.DefaultEmail, "pgadmin login email (falls back to $"+config.EmailEnv+")")
	fs.StringP("input", "i", local.DefaultSourcePath, "servers json to seed, a path or s3://bucket/key")
	fs.String("storage-root", storage.DefaultRoot, "pgadmin storage root")
	fs.Duration("wait-timeout", storage.DefaultWaitTimeout, "How long to wait for pgadmin to create the storage directory")
	fs.Duration("wait-interval", storage.DefaultWaitInterval, "Polling interval while waiting for the storage directory")
	fs.Int("owner-uid", local.DefaultUID, "uid to chown the servers file to, -1 to skip")
	fs.Int("owner-gid", local.DefaultGID, "gid to chown the servers file to, -1 to skip")
	fs.String("mode", "0600", "Permission bits of the servers file")
	fs.Bool("strict", false, "Exit non-zero when seeding fails")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")

	o.Viper.BindPFlag("email", fs.Lookup("email"))
	o.Viper.BindPFlag("input", fs.Lookup("input"))
	o.Viper.BindPFlag("storage.root", fs.Lookup("storage-root"))
	o.Viper.BindPFlag("wait.timeout", fs.Lookup("wait-timeout"))
	o.Viper.BindPFlag("wait.interval", fs.Lookup("wait-interval"))
	o.Viper.BindPFlag("owner.uid", fs.Lookup("owner-uid"))
	o.Viper.BindPFlag("owner.gid", fs.Lookup("owner-gid"))
	o.Viper.BindPFlag("mode", fs.Lookup("mode"))
	o.Viper.BindPFlag("strict", fs.Lookup("strict"))
	o.Viper.BindPFlag("logger.level", fs.Lookup("log-level"))
}

// Load resolves the config and builds a logger named after the command.
func (o *Options) Load(name string) (*config.Config, *zap.Logger, error) {
	if o.EnvFile != "" {
		if err := config.LoadEnvFile(o.EnvFile); err != nil {
			return nil, nil, err
		}
	}

	c, err := config.New(o.Viper, o.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := c.Logger.Build()
	if err != nil {
		return nil, nil, err
	}

	l := logger.Named("pgadmin-init." + name).With(
		zap.String("run_id", uuid.NewString()),
	)
	return c, l, nil
}
