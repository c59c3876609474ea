// Package storage is the small key-value persistence layer behind the cart
// and the order history.
package storage

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound   = errors.New("storage key not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
