// Package settings is a small key/value configuration store shared by the
// pipeline components. Keys have the form "Section:name" and values are raw
// bytes, usually the text form of a number or boolean.
//
// Components bind their parameters once at construction through a Section,
// which writes each default into the store before reading it back. A fresh
// store therefore ends up documenting every tunable the pipeline uses.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("settings: key not found")

// Store is a settings backend.
type Store interface {
	// Get returns the value of key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores val under key, replacing any existing value.
	Set(ctx context.Context, key string, val []byte) error
	// SetDefault stores val only when key has no value yet.
	SetDefault(ctx context.Context, key string, val []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key joins key parts with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// splitKey breaks a "Section:name" key into its two parts.
func splitKey(key string) (section, name string, err error) {
	i := strings.LastIndex(key, ":")
	if i <= 0 || i == len(key)-1 {
		return "", "", fmt.Errorf("settings: malformed key %q, want Section:name", key)
	}
	return key[:i], key[i+1:], nil
}
