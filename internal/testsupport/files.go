package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates the target path with placeholder content, making any
// missing parent directories. Used to fake model artifacts on disk.
func WriteFile(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("placeholder"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
