package pageprobe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// MatchSnapshot compares the element's rendered text against a golden file
// stored in testdata/<sanitized-test-name>-<hash>/<sanitized-name>.txt.
//
// Set PAGEPROBE_UPDATE=1 to create or update golden files.
func (e *Element) MatchSnapshot(t testing.TB, name string) {
	t.Helper()
	text, err := e.Text()
	if err != nil {
		t.Fatalf("pageprobe: snapshot: %v", err)
	}
	if err := matchSnapshot(snapshotDir(t), name, text, shouldUpdate()); err != nil {
		t.Fatal(err)
	}
}

func matchSnapshot(dir, name, text string, update bool) error {
	path := filepath.Join(dir, sanitizeName(name)+".txt")
	content := normalizeForSnapshot(text)

	if update {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("pageprobe: snapshot: failed to create directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("pageprobe: snapshot: failed to write golden file: %w", err)
		}
		return nil
	}

	golden, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("pageprobe: snapshot: golden file not found: %s\nRun with PAGEPROBE_UPDATE=1 to create it.\n\nActual text:\n%s", path, content)
		}
		return fmt.Errorf("pageprobe: snapshot: failed to read golden file: %w", err)
	}

	if string(golden) != content {
		return fmt.Errorf("pageprobe: snapshot: mismatch for %q\nGolden file: %s\nRun with PAGEPROBE_UPDATE=1 to update.\n\ndiff (-golden +actual):\n%s",
			name, path, cmp.Diff(strings.Split(string(golden), "\n"), strings.Split(content, "\n")))
	}
	return nil
}

// snapshotDir returns testdata/<sanitized-test-name>-<hash>/ for t.
func snapshotDir(t testing.TB) string {
	t.Helper()
	fullName := t.Name()
	h := sha256.Sum256([]byte(fullName))
	return filepath.Join("testdata", sanitizeName(fullName)+"-"+hex.EncodeToString(h[:4]))
}

// normalizeForSnapshot trims trailing spaces and blank lines and ends the
// text with a single newline.
func normalizeForSnapshot(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}

func shouldUpdate() bool {
	v := os.Getenv("PAGEPROBE_UPDATE")
	return v == "1" || v == "true" || v == "yes"
}

// sanitizeName replaces characters that are not filesystem-safe.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
