// Package storage persists uploaded images and hands back a public URL.
package storage

import (
	"context"
	"errors"
)

// Object is a stored image. Key is what Delete expects.
type Object struct {
	URL string
	Key string
}

// Store saves and removes image objects.
type Store interface {
	Save(ctx context.Context, data []byte, contentType, ext string) (Object, error)
	Delete(ctx context.Context, key string) error
}

var ErrEmptyKey = errors.New("storage key is required")
