package export

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestExportChannels(t *testing.T) {
	dir := t.TempDir()
	e, err := New(filepath.Join(dir, "results"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := e.Unverified("a@example.com", "pw1"); err != nil {
		t.Fatalf("unverified: %v", err)
	}
	if err := e.Banned("b@example.com", "pw2"); err != nil {
		t.Fatalf("banned: %v", err)
	}
	if err := e.Registered("c@example.com", "pw3"); err != nil {
		t.Fatalf("registered: %v", err)
	}
	if err := e.Registered("d@example.com", "pw4"); err != nil {
		t.Fatalf("registered: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "results", "registered.txt"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "c@example.com:pw3\nd@example.com:pw4\n"
	if string(got) != want {
		t.Fatalf("registered.txt = %q, want %q", got, want)
	}

	if _, err := os.Stat(filepath.Join(dir, "results", "unverified.txt")); err != nil {
		t.Fatalf("unverified.txt missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "results", "banned.txt")); err != nil {
		t.Fatalf("banned.txt missing: %v", err)
	}
}

func TestExportConcurrentAppends(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Banned("x@example.com", "pw"); err != nil {
				t.Errorf("banned: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := os.ReadFile(filepath.Join(dir, "banned.txt"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Count(string(got), "\n")
	if lines != 50 {
		t.Fatalf("lines = %d, want 50 (no torn writes)", lines)
	}
}
