package version

import "testing"

func TestString(t *testing.T) {
	Version, GitCommit, BuildTime = "1.2.3", "abc123", "2026-01-02T03:04:05Z"
	want := "potwatch 1.2.3 (commit abc123, built 2026-01-02T03:04:05Z)"
	if got := String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
