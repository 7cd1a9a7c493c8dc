package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// File persists settings in a YAML document of the form
//
//	PanelLocatorParameters:
//	  match_ratio: "0.7"
//
// Every mutation is written back to disk immediately. A namespace, when set,
// is prepended to each section name as "namespace.Section" so several
// instances can share one file.
type File struct {
	path      string
	namespace string

	mu       sync.RWMutex
	sections map[string]map[string]string
}

// OpenFile loads the YAML settings at path. A missing file is treated as
// empty and created on the first write.
func OpenFile(path, namespace string) (*File, error) {
	f := &File{path: path, namespace: namespace}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Reload re-reads the backing file, discarding in-memory state.
func (f *File) Reload() error {
	sections := make(map[string]map[string]string)
	data, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read settings: %w", err)
	default:
		if err := yaml.Unmarshal(data, &sections); err != nil {
			return fmt.Errorf("parse settings %s: %w", f.path, err)
		}
		if sections == nil {
			sections = make(map[string]map[string]string)
		}
	}

	f.mu.Lock()
	f.sections = sections
	f.mu.Unlock()
	return nil
}

func (f *File) locate(key string) (string, string, error) {
	section, name, err := splitKey(key)
	if err != nil {
		return "", "", err
	}
	if f.namespace != "" {
		section = f.namespace + "." + section
	}
	return section, name, nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	section, name, err := f.locate(key)
	if err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.sections[section][name]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (f *File) Set(_ context.Context, key string, val []byte) error {
	return f.update(key, func(sec map[string]string, name string) bool {
		sec[name] = string(val)
		return true
	})
}

func (f *File) SetDefault(_ context.Context, key string, val []byte) error {
	return f.update(key, func(sec map[string]string, name string) bool {
		if _, ok := sec[name]; ok {
			return false
		}
		sec[name] = string(val)
		return true
	})
}

func (f *File) Delete(_ context.Context, key string) error {
	return f.update(key, func(sec map[string]string, name string) bool {
		if _, ok := sec[name]; !ok {
			return false
		}
		delete(sec, name)
		return true
	})
}

// update applies fn to the section holding key and saves when fn reports a
// change.
func (f *File) update(key string, fn func(sec map[string]string, name string) bool) error {
	section, name, err := f.locate(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sec := f.sections[section]
	if sec == nil {
		sec = make(map[string]string)
		f.sections[section] = sec
	}
	if !fn(sec, name) {
		return nil
	}
	return f.saveLocked()
}

func (f *File) saveLocked() error {
	data, err := yaml.Marshal(f.sections)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
