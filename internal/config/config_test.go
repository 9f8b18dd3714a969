package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbolytics/pgadmin-init/internal/local"
	"github.com/turbolytics/pgadmin-init/internal/s3"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EmailEnv, "PGADMIN_INIT_EMAIL", "PGADMIN_INIT_INPUT", "PGADMIN_INIT_WAIT_TIMEOUT", "PGADMIN_INIT_OWNER_UID"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)
		c, err := New(viper.New(), "")
		require.NoError(t, err)

		assert.Equal(t, "admin@pgadmin.org", c.Email)
		assert.Equal(t, "/pgadmin-init/servers.json", c.Input)
		assert.Equal(t, 120*time.Second, c.Wait.Timeout)
		assert.Equal(t, 2*time.Second, c.Wait.Interval)
		assert.Equal(t, 10*time.Second, c.Wait.ProgressEvery)
		assert.Equal(t, 5050, c.Owner.UID)
		assert.Equal(t, 5050, c.Owner.GID)
		assert.False(t, c.Strict)

		mode, err := c.FileMode()
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), mode)

		p := c.Paths()
		assert.Equal(t, "/var/lib/pgadmin/storage/admin_pgadmin_org", p.Dir)
		assert.Equal(t, "/var/lib/pgadmin/storage/admin_pgadmin_org/servers.json", p.ServersFile)
	})

	t.Run("pgadmin email from environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EmailEnv, "ops@taskforge.io")

		c, err := New(viper.New(), "")
		require.NoError(t, err)
		assert.Equal(t, "ops@taskforge.io", c.Email)
		assert.Equal(t, "/var/lib/pgadmin/storage/ops_taskforge_io", c.Paths().Dir)
	})

	t.Run("prefixed environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PGADMIN_INIT_WAIT_TIMEOUT", "45s")
		t.Setenv("PGADMIN_INIT_OWNER_UID", "-1")

		c, err := New(viper.New(), "")
		require.NoError(t, err)
		assert.Equal(t, 45*time.Second, c.Wait.Timeout)
		assert.Equal(t, -1, c.Owner.UID)
	})

	t.Run("config file", func(t *testing.T) {
		clearEnv(t)
		c, err := New(viper.New(), "testdata/pgadmin-init.yml")
		require.NoError(t, err)

		assert.Equal(t, "dev@taskforge.local", c.Email)
		assert.Equal(t, "/srv/pgadmin/storage", c.Storage.Root)
		assert.Equal(t, "servers.json", c.Storage.File)
		assert.Equal(t, 30*time.Second, c.Wait.Timeout)
		assert.Equal(t, 500*time.Millisecond, c.Wait.Interval)
		assert.Equal(t, -1, c.Owner.UID)
		assert.Equal(t, "debug", c.Logger.Level)

		mode, err := c.FileMode()
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o640), mode)
	})

	t.Run("environment overrides config file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PGADMIN_INIT_EMAIL", "override@taskforge.local")

		c, err := New(viper.New(), "testdata/pgadmin-init.yml")
		require.NoError(t, err)
		assert.Equal(t, "override@taskforge.local", c.Email)
	})

	t.Run("missing config file", func(t *testing.T) {
		clearEnv(t)
		_, err := New(viper.New(), "testdata/missing.yml")
		assert.Error(t, err)
	})

	t.Run("invalid email", func(t *testing.T) {
		clearEnv(t)
		v := viper.New()
		v.Set("email", "not-an-email")
		_, err := New(v, "")
		assert.Error(t, err)
	})

	t.Run("invalid mode", func(t *testing.T) {
		clearEnv(t)
		v := viper.New()
		v.Set("mode", "0999")
		_, err := New(v, "")
		assert.Error(t, err)
	})

	t.Run("zero timeout", func(t *testing.T) {
		clearEnv(t)
		v := viper.New()
		v.Set("wait.timeout", "0s")
		_, err := New(v, "")
		assert.Error(t, err)
	})
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	require.NoError(t, LoadEnvFile("testdata/dev.env"))
	t.Cleanup(func() { os.Unsetenv(EmailEnv) })

	c, err := New(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "env-file@taskforge.local", c.Email)

	assert.Error(t, LoadEnvFile("testdata/missing.env"))
}

func TestNewSource(t *testing.T) {
	clearEnv(t)

	t.Run("local path", func(t *testing.T) {
		c, err := New(viper.New(), "")
		require.NoError(t, err)

		src, err := NewSource(c, nil)
		require.NoError(t, err)
		assert.IsType(t, &local.Source{}, src)
		assert.Equal(t, "/pgadmin-init/servers.json", src.Location())
	})

	t.Run("s3 url", func(t *testing.T) {
		v := viper.New()
		v.Set("input", "s3://taskforge-config/pgadmin/servers.json")
		v.Set("s3.region", "us-east-1")
		c, err := New(v, "")
		require.NoError(t, err)

		src, err := NewSource(c, nil)
		require.NoError(t, err)
		assert.IsType(t, &s3.Source{}, src)
		assert.Equal(t, "s3://taskforge-config/pgadmin/servers.json", src.Location())
	})

	t.Run("bad s3 url", func(t *testing.T) {
		v := viper.New()
		v.Set("input", "s3://bucket-only")
		c, err := New(v, "")
		require.NoError(t, err)

		_, err = NewSource(c, nil)
		assert.Error(t, err)
	})
}

func TestInitializeSeeder(t *testing.T) {
	clearEnv(t)
	c, err := New(viper.New(), "testdata/pgadmin-init.yml")
	require.NoError(t, err)

	s, err := InitializeSeeder(c, nil)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNewFromExample(t *testing.T) {
	clearEnv(t)
	c, err := New(viper.New(), "../../dev/examples/pgadmin-init.yml")
	assert.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, "/var/lib/pgadmin/storage/admin_pgadmin_org/servers.json", c.Paths().ServersFile)
}
