package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/turbolytics/pgadmin-init/internal/servers"
)

const (
	defaultPort    = 5432
	defaultDB      = "postgres"
	defaultTimeout = 5 * time.Second
)

type CheckerOption func(*Checker)

func WithLogger(l *zap.Logger) CheckerOption {
	return func(c *Checker) {
		c.logger = l
	}
}

// WithPassword sets the password used for every server. pgadmin's servers
// file never carries passwords.
func WithPassword(password string) CheckerOption {
	return func(c *Checker) {
		c.password = password
	}
}

func WithTimeout(d time.Duration) CheckerOption {
	return func(c *Checker) {
		c.timeout = d
	}
}

// Checker confirms the servers in a pgadmin servers file accept connections.
type Checker struct {
	logger   *zap.Logger
	password string
	timeout  time.Duration
}

type Status struct {
	Server   servers.Server
	Err      error
	Duration time.Duration
}

func (s Status) OK() bool {
	return s.Err == nil
}

func NewChecker(opts ...CheckerOption) *Checker {
	c := Checker{
		logger:  zap.NewNop(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return &c
}

// ConnString builds a postgres URL for srv, filling pgadmin's defaults.
func (c *Checker) ConnString(srv servers.Server) string {
	host := srv.Host
	if host == "" {
		host = "localhost"
	}
	port := srv.Port
	if port == 0 {
		port = defaultPort
	}
	db := srv.MaintenanceDB
	if db == "" {
		db = defaultDB
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + db,
	}
	if srv.Username != "" {
		if c.password != "" {
			u.User = url.UserPassword(srv.Username, c.password)
		} else {
			u.User = url.User(srv.Username)
		}
	}

	q := url.Values{}
	if srv.SSLMode != "" {
		q.Set("sslmode", srv.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func (c *Checker) Check(ctx context.Context, srv servers.Server) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, c.ConnString(srv))
	if err != nil {
		return fmt.Errorf("connecting to %q: %w", srv.Name, err)
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("pinging %q: %w", srv.Name, err)
	}
	return nil
}

func (c *Checker) CheckAll(ctx context.Context, srvs []servers.Server) []Status {
	statuses := make([]Status, 0, len(srvs))
	for _, srv := range srvs {
		start := time.Now()
		err := c.Check(ctx, srv)
		st := Status{
			Server:   srv,
			Err:      err,
			Duration: time.Since(start),
		}

		fields := []zap.Field{
			zap.String("server", srv.Name),
			zap.String("host", srv.Host),
			zap.Int("port", srv.Port),
			zap.Duration("duration", st.Duration),
		}
		if err != nil {
			c.logger.Warn("server unreachable", append(fields, zap.Error(err))...)
		} else {
			c.logger.Info("server reachable", fields...)
		}
		statuses = append(statuses, st)
	}
	return statuses
}
