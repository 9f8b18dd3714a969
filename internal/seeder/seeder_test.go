package seeder

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbolytics/pgadmin-init/internal/local"
	"github.com/turbolytics/pgadmin-init/internal/storage"
)

const serversJSON = `{"Servers": {"1": {"Name": "TaskForge DB", "Group": "Servers", "Host": "postgres", "Port": 5432, "MaintenanceDB": "postgres", "Username": "postgres", "SSLMode": "prefer"}}}`

type fixture struct {
	input      string
	storageDir string
}

func newFixture(t *testing.T, input string, createStorage bool) fixture {
	t.Helper()
	root := t.TempDir()

	f := fixture{
		input:      filepath.Join(root, "pgadmin-init", "servers.json"),
		storageDir: filepath.Join(root, "storage", storage.DirName("admin@pgadmin.org")),
	}

	if input != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(f.input), 0o755))
		require.NoError(t, os.WriteFile(f.input, []byte(input), 0o644))
	}
	if createStorage {
		require.NoError(t, os.MkdirAll(f.storageDir, 0o700))
	}
	return f
}

func (f fixture) seeder(t *testing.T, timeout time.Duration) *Seeder {
	t.Helper()
	s, err := New(
		WithSource(local.NewSource(f.input)),
		WithRepository(local.New(f.storageDir, local.WithOwner(-1, -1))),
		WithStorageDir(f.storageDir),
		WithWaitOptions(storage.WaitOptions{
			Timeout:  timeout,
			Interval: 10 * time.Millisecond,
		}),
	)
	require.NoError(t, err)
	return s
}

func TestSeeder_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("copies servers json", func(t *testing.T) {
		f := newFixture(t, serversJSON, true)

		res, err := f.seeder(t, time.Second).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(f.storageDir, "servers.json"), res.Path)
		assert.Equal(t, []string{"TaskForge DB"}, res.Servers)

		bs, err := os.ReadFile(res.Path)
		require.NoError(t, err)
		assert.JSONEq(t, serversJSON, string(bs))

		var doc map[string]any
		require.NoError(t, json.Unmarshal(bs, &doc))
		assert.Contains(t, doc, "Servers")

		info, err := os.Stat(res.Path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("missing input fails without waiting", func(t *testing.T) {
		f := newFixture(t, "", false)

		start := time.Now()
		_, err := f.seeder(t, 10*time.Second).Run(ctx)
		assert.ErrorIs(t, err, ErrInputNotFound)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("storage never appears", func(t *testing.T) {
		f := newFixture(t, serversJSON, false)

		_, err := f.seeder(t, 50*time.Millisecond).Run(ctx)
		assert.ErrorIs(t, err, ErrStorageTimeout)
		assert.NoDirExists(t, f.storageDir)
	})

	t.Run("storage created by pgadmin while waiting", func(t *testing.T) {
		f := newFixture(t, serversJSON, false)
		go func() {
			time.Sleep(30 * time.Millisecond)
			_ = os.MkdirAll(f.storageDir, 0o700)
		}()

		res, err := f.seeder(t, 5*time.Second).Run(ctx)
		require.NoError(t, err)
		assert.FileExists(t, res.Path)
	})

	t.Run("invalid json is not written", func(t *testing.T) {
		inputs := map[string]string{
			"truncated":             `{"Servers": `,
			"extra closing brace":   `{"Servers": {}}}`,
			"extra closing bracket": `{"Servers": {}}]`,
			"invalid utf-8":         "{\"Servers\": {}, \"Comment\": \"a\xffb\"}",
		}
		for name, input := range inputs {
			t.Run(name, func(t *testing.T) {
				f := newFixture(t, input, true)

				_, err := f.seeder(t, time.Second).Run(ctx)
				assert.Error(t, err)
				assert.NoFileExists(t, filepath.Join(f.storageDir, "servers.json"))
			})
		}
	})
}

func TestNew(t *testing.T) {
	_, err := New(WithStorageDir("/tmp"))
	assert.Error(t, err)

	_, err = New(WithSource(local.NewSource("/x")), WithRepository(local.New("/tmp")))
	assert.Error(t, err)
}
