package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultRoot     = "/var/lib/pgadmin/storage"
	DefaultFileName = "servers.json"

	DefaultWaitTimeout   = 120 * time.Second
	DefaultWaitInterval  = 2 * time.Second
	DefaultProgressEvery = 10 * time.Second
)

var emailReplacer = strings.NewReplacer("@", "_", ".", "_")

// DirName converts a pgadmin login email into the name pgadmin uses for the
// user's storage directory: admin@pgadmin.org -> admin_pgadmin_org.
func DirName(email string) string {
	return emailReplacer.Replace(email)
}

type Paths struct {
	Dir         string `yaml:"dir"`
	ServersFile string `yaml:"servers_file"`
}

func Resolve(root, email, fileName string) Paths {
	if root == "" {
		root = DefaultRoot
	}
	if fileName == "" {
		fileName = DefaultFileName
	}
	dir := filepath.Join(root, DirName(email))
	return Paths{
		Dir:         dir,
		ServersFile: filepath.Join(dir, fileName),
	}
}

type WaitOptions struct {
	Timeout       time.Duration
	Interval      time.Duration
	ProgressEvery time.Duration
	Logger        *zap.Logger
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultWaitTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultWaitInterval
	}
	if o.ProgressEvery < 0 {
		o.ProgressEvery = 0
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// WaitForDir polls until dir exists or the timeout elapses. The directory is
// never created here: pgadmin creates it with the ownership it expects.
// Returns false, nil on timeout.
func WaitForDir(ctx context.Context, dir string, opts WaitOptions) (bool, error) {
	opts = opts.withDefaults()

	var waited, lastLogged time.Duration
	for !dirExists(dir) && waited < opts.Timeout {
		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}

		waited += opts.Interval
		if opts.ProgressEvery > 0 && waited-lastLogged >= opts.ProgressEvery {
			lastLogged = waited
			opts.Logger.Info("waiting for pgadmin initialization",
				zap.String("dir", dir),
				zap.Duration("waited", waited),
				zap.Duration("max", opts.Timeout),
			)
		}
	}

	return dirExists(dir), nil
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil {
		return false
	}
	return info.IsDir()
}
