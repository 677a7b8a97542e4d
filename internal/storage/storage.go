// Package storage persists rendered certificate files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/eduplatforme/exam-backend/internal/config"
)

// ErrNotFound is returned when the named object does not exist.
var ErrNotFound = errors.New("object not found")

// Object is an open stored file.
type Object struct {
	io.ReadCloser
	Size        int64
	ContentType string
}

// Provider stores whole objects atomically: a failed Put leaves nothing readable under name.
type Provider interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Open(ctx context.Context, name string) (*Object, error)
	Delete(ctx context.Context, name string) error
}

// New builds the provider selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Provider, error) {
	switch cfg.Driver {
	case config.StorageDriverLocal, "":
		return NewLocal(cfg.CertificateDir)
	case config.StorageDriverMinio:
		return NewMinio(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
