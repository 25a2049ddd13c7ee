package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteReceiptFile drops a small placeholder file at the target path and
// returns the path. Receipt content is never inspected locally, so a short
// byte pattern is enough for pipeline tests.
func WriteReceiptFile(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("%PDF-1.4 test receipt"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
