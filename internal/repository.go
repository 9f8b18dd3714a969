package internal

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("not found")

// Source provides the servers document that gets seeded into pgadmin storage.
type Source interface {
	Location() string
	Exists(ctx context.Context) (bool, error)
	Read(ctx context.Context) ([]byte, error)
}

// Repository persists a document under key and returns the path it was written to.
type Repository interface {
	Write(ctx context.Context, key string, reader io.Reader) (string, error)
}
