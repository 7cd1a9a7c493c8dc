package settings

import (
	"context"
	"fmt"
	"strconv"
)

// Section reads typed values from one settings section. Each accessor first
// registers its default, then reads and parses the stored value. The first
// failure is kept and returned by Err; later accessors return their default.
type Section struct {
	ctx   context.Context
	store Store
	name  string
	err   error
}

// NewSection returns a reader for the named section of store.
func NewSection(ctx context.Context, store Store, name string) *Section {
	return &Section{ctx: ctx, store: store, name: name}
}

// Err returns the first error encountered.
func (s *Section) Err() error { return s.err }

func (s *Section) raw(name, def string) (string, bool) {
	if s.err != nil {
		return "", false
	}
	key := Key(s.name, name)
	if err := s.store.SetDefault(s.ctx, key, []byte(def)); err != nil {
		s.err = fmt.Errorf("default %s: %w", key, err)
		return "", false
	}
	v, err := s.store.Get(s.ctx, key)
	if err != nil {
		s.err = fmt.Errorf("read %s: %w", key, err)
		return "", false
	}
	return string(v), true
}

func (s *Section) parseErr(name string, err error) {
	s.err = fmt.Errorf("parse %s: %w", Key(s.name, name), err)
}

// Int returns the integer setting name.
func (s *Section) Int(name string, def int) int {
	v, ok := s.raw(name, strconv.Itoa(def))
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.parseErr(name, err)
		return def
	}
	return n
}

// Int64 returns the 64-bit integer setting name.
func (s *Section) Int64(name string, def int64) int64 {
	v, ok := s.raw(name, strconv.FormatInt(def, 10))
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		s.parseErr(name, err)
		return def
	}
	return n
}

// Float returns the floating point setting name.
func (s *Section) Float(name string, def float64) float64 {
	v, ok := s.raw(name, strconv.FormatFloat(def, 'g', -1, 64))
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		s.parseErr(name, err)
		return def
	}
	return f
}

// Bool returns the boolean setting name.
func (s *Section) Bool(name string, def bool) bool {
	v, ok := s.raw(name, strconv.FormatBool(def))
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		s.parseErr(name, err)
		return def
	}
	return b
}

// String returns the string setting name.
func (s *Section) String(name string, def string) string {
	v, ok := s.raw(name, def)
	if !ok {
		return def
	}
	return v
}
