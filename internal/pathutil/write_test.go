package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteOutput(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TMPDIR", filepath.Join(tmpDir, "tmp"))
	root := filepath.Join(tmpDir, "project")
	if err := os.MkdirAll(root, 0700); err != nil {
		t.Fatal(err)
	}

	t.Run("relative to root", func(t *testing.T) {
		got, err := WriteOutput(filepath.Join("charts", "view.svg"), root, []byte("<svg/>"), ".svg")
		if err != nil {
			t.Fatalf("WriteOutput: %v", err)
		}
		if want := filepath.Join(root, "charts", "view.svg"); got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
		data, err := os.ReadFile(got)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(data) != "<svg/>" {
			t.Errorf("content = %q", data)
		}
		if runtime.GOOS != "windows" {
			info, err := os.Stat(got)
			if err != nil {
				t.Fatal(err)
			}
			if perm := info.Mode().Perm(); perm != 0600 {
				t.Errorf("mode = %o, want 600", perm)
			}
		}
	})

	rejected := []struct {
		name string
		path string
		ext  string
	}{
		{"empty", "", ".svg"},
		{"outside allowed dirs", filepath.Join(tmpDir, "elsewhere", "view.svg"), ".svg"},
		{"escapes root", filepath.Join("..", "view.svg"), ".svg"},
		{"wrong extension", "view.txt", ".json"},
		{"directory", ".", ".svg"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := WriteOutput(tt.path, root, []byte("x"), tt.ext); !errors.Is(err, ErrInvalidOutputPath) {
				t.Errorf("err = %v, want ErrInvalidOutputPath", err)
			}
		})
	}
	if runtime.GOOS != "windows" {
		if _, err := os.Stat(filepath.Join(tmpDir, "elsewhere")); !os.IsNotExist(err) {
			t.Error("rejected write created its directory")
		}
	}
}
