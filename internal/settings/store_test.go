package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := Key("PanelLocatorParameters", "match_ratio")

	if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store: got %v, want ErrNotFound", err)
	}

	if err := s.SetDefault(ctx, key, []byte("0.7")); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if err := s.SetDefault(ctx, key, []byte("0.9")); err != nil {
		t.Fatalf("second SetDefault: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "0.7" {
		t.Errorf("after SetDefault: got %q, want %q", got, "0.7")
	}

	if err := s.Set(ctx, key, []byte("0.8")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ = s.Get(ctx, key)
	if string(got) != "0.8" {
		t.Errorf("after Set: got %q, want %q", got, "0.8")
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: got %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Errorf("Delete of absent key: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	f, err := OpenFile(filepath.Join(t.TempDir(), "settings.yaml"), "")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	exerciseStore(t, f)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer r.Close()
	exerciseStore(t, r)
}

func TestRedis_Namespace(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), RedisOptions{Addr: mr.Addr(), Namespace: "kitchen"})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer r.Close()

	if err := r.Set(context.Background(), "DigitReaderParameters:led_threshold_h_min", []byte("150")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := mr.Get("kitchen:DigitReaderParameters:led_threshold_h_min")
	if err != nil {
		t.Fatalf("miniredis Get: %v", err)
	}
	if got != "150" {
		t.Errorf("got %q, want %q", got, "150")
	}
}

func TestFile_PersistsWithNamespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "settings.yaml")
	ctx := context.Background()

	f, err := OpenFile(path, "kitchen")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := f.Set(ctx, "DigitReaderParameters:segment_fill", []byte("0.55")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "kitchen.DigitReaderParameters:") {
		t.Errorf("file does not contain namespaced section:\n%s", data)
	}

	reopened, err := OpenFile(path, "kitchen")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, "DigitReaderParameters:segment_fill")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "0.55" {
		t.Errorf("got %q, want %q", got, "0.55")
	}

	other, _ := OpenFile(path, "garage")
	if _, err := other.Get(ctx, "DigitReaderParameters:segment_fill"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other namespace: got %v, want ErrNotFound", err)
	}
}

func TestFile_MalformedKey(t *testing.T) {
	f, _ := OpenFile(filepath.Join(t.TempDir(), "s.yaml"), "")
	for _, key := range []string{"nosection", ":name", "Section:"} {
		if err := f.Set(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("Set(%q): expected error", key)
		}
	}
}

func TestFile_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("not: [valid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFile(path, ""); err == nil {
		t.Error("expected parse error")
	}
}

func TestWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(path, 10*time.Millisecond)
	changed := make(chan struct{}, 4)
	w.OnChange(func() { changed <- struct{}{} })
	w.Start()
	defer w.Stop()

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("change not detected")
	}

	// The baseline moved, so no second notification without another write.
	select {
	case <-changed:
		t.Error("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}
