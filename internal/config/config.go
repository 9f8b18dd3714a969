package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/turbolytics/pgadmin-init/internal/local"
	"github.com/turbolytics/pgadmin-init/internal/storage"
)

const (
	EnvPrefix = "PGADMIN_INIT"

	// EmailEnv is read by the pgadmin image itself.
	EmailEnv     = "PGADMIN_DEFAULT_EMAIL"
	DefaultEmail = "admin@pgadmin.org"
)

type Logger struct {
	Level string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
}

// Build returns a development console logger at the configured level.
func (l Logger) Build() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	lvl, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}

type Storage struct {
	Root string `yaml:"root" mapstructure:"root" validate:"required"`
	File string `yaml:"file" mapstructure:"file" validate:"required"`
}

type Wait struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	Interval      time.Duration `yaml:"interval" mapstructure:"interval" validate:"gt=0"`
	ProgressEvery time.Duration `yaml:"progress_every" mapstructure:"progress_every" validate:"gte=0"`
}

type Owner struct {
	UID int `yaml:"uid" mapstructure:"uid" validate:"gte=-1"`
	GID int `yaml:"gid" mapstructure:"gid" validate:"gte=-1"`
}

type S3 struct {
	Region         string `yaml:"region" mapstructure:"region"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

type Config struct {
	Email   string  `yaml:"email" mapstructure:"email" validate:"required,email"`
	Input   string  `yaml:"input" mapstructure:"input" validate:"required"`
	Mode    string  `yaml:"mode" mapstructure:"mode" validate:"required"`
	Strict  bool    `yaml:"strict" mapstructure:"strict"`
	Storage Storage `yaml:"storage" mapstructure:"storage"`
	Wait    Wait    `yaml:"wait" mapstructure:"wait"`
	Owner   Owner   `yaml:"owner" mapstructure:"owner"`
	S3      S3      `yaml:"s3" mapstructure:"s3"`
	Logger  Logger  `yaml:"logger" mapstructure:"logger"`
}

func (c *Config) Paths() storage.Paths {
	return storage.Resolve(c.Storage.Root, c.Email, c.Storage.File)
}

// FileMode parses Mode as an octal permission string such as "0600".
func (c *Config) FileMode() (os.FileMode, error) {
	m, err := strconv.ParseUint(strings.TrimPrefix(c.Mode, "0o"), 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode %q: %w", c.Mode, err)
	}
	if m == 0 || m > 0o777 {
		return 0, fmt.Errorf("invalid mode %q: must be between 0001 and 0777", c.Mode)
	}
	return os.FileMode(m), nil
}

func (c *Config) WaitOptions(l *zap.Logger) storage.WaitOptions {
	return storage.WaitOptions{
		Timeout:       c.Wait.Timeout,
		Interval:      c.Wait.Interval,
		ProgressEvery: c.Wait.ProgressEvery,
		Logger:        l,
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.FileMode(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("email", DefaultEmail)
	v.SetDefault("input", local.DefaultSourcePath)
	v.SetDefault("mode", "0600")
	v.SetDefault("strict", false)
	v.SetDefault("storage.root", storage.DefaultRoot)
	v.SetDefault("storage.file", storage.DefaultFileName)
	v.SetDefault("wait.timeout", storage.DefaultWaitTimeout)
	v.SetDefault("wait.interval", storage.DefaultWaitInterval)
	v.SetDefault("wait.progress_every", storage.DefaultProgressEvery)
	v.SetDefault("owner.uid", local.DefaultUID)
	v.SetDefault("owner.gid", local.DefaultGID)
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.force_path_style", false)
	v.SetDefault("logger.level", "info")
}

// BindEnv maps PGADMIN_INIT_<KEY> variables onto config keys. The email also
// falls back to PGADMIN_DEFAULT_EMAIL so the init container can share the
// pgadmin container's environment.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v.BindEnv("email", EnvPrefix+"_EMAIL", EmailEnv)
}

// LoadEnvFile loads a dotenv file into the process environment. Variables
// already set are not overridden.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// New layers defaults, the optional config file at path, the environment and
// any flags already bound to v, then validates the result.
func New(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
