package modresolve

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileResolverFindsInRoot(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "Geometry.sws"), "struct Point {}\n")

	r := NewFileResolver(root, []string{root})
	abs, err := r.Resolve("Geometry")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(root, "Geometry.sws")
	if abs != want {
		t.Errorf("Resolve = %q, want %q", abs, want)
	}
}

func TestFileResolverRelativeImport(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "Scripts")
	write(t, filepath.Join(sub, "main.sws"), "// entry\n")
	write(t, filepath.Join(sub, "Helper.sws"), "// helper\n")

	r := NewFileResolver(sub, []string{sub})
	abs, err := r.Resolve("./Helper")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(sub, "Helper.sws")
	if abs != want {
		t.Errorf("Resolve = %q, want %q", abs, want)
	}
}

func TestFileResolverNotFound(t *testing.T) {
	root := t.TempDir()
	r := NewFileResolver(root, []string{root})
	if _, err := r.Resolve("DoesNotExist"); err == nil {
		t.Fatal("expected an error for a missing import")
	}
}

func TestFileResolverCaches(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "Geometry.sws"), "struct Point {}\n")

	r := NewFileResolver(root, []string{root})
	first, err := r.Resolve("Geometry")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := os.Remove(filepath.Join(root, "Geometry.sws")); err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve("Geometry")
	if err != nil {
		t.Fatalf("Resolve (cached): %v", err)
	}
	if first != second {
		t.Errorf("cached resolution changed: %q vs %q", first, second)
	}
}
