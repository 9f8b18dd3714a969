package servers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePassword(t *testing.T) {
	for _, k := range []string{"PGPASSWORD", "PGADMIN_DEFAULT_EMAIL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	envFile := filepath.Join(t.TempDir(), "pgadmin.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PGPASSWORD=from-env-file\n"), 0o600))

	o := NewOptions()
	o.EnvFile = envFile
	_, _, err := o.Load("verify")
	require.NoError(t, err)

	t.Run("env file fallback", func(t *testing.T) {
		assert.Equal(t, "from-env-file", resolvePassword(""))
	})

	t.Run("flag wins", func(t *testing.T) {
		assert.Equal(t, "s3cret", resolvePassword("s3cret"))
	})
}
