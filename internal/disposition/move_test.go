package disposition

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUniqueDestination(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		existing []string
		file     string
		want     string
	}{
		{"free name", nil, "a.exe", "a.exe"},
		{"one collision", []string{"b.exe"}, "b.exe", "b_1.exe"},
		{"two collisions", []string{"c.exe", "c_1.exe"}, "c.exe", "c_2.exe"},
		{"no extension", []string{"README"}, "README", "README_1"},
		{"double extension", []string{"x.tar.gz"}, "x.tar.gz", "x.tar_1.gz"},
		{"dotfile", []string{".bashrc"}, ".bashrc", ".bashrc_1"},
		{"dotfile with extension", []string{".env.local"}, ".env.local", ".env_1.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, e := range tt.existing {
				if err := os.WriteFile(filepath.Join(dir, e), nil, 0600); err != nil {
					t.Fatal(err)
				}
			}
			got := uniqueDestination(dir, tt.file)
			if got != filepath.Join(dir, tt.want) {
				t.Errorf("uniqueDestination() = %q, want %q", filepath.Base(got), tt.want)
			}
		})
	}
}

func TestCopyPath_Directory(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "b")

	dst := filepath.Join(t.TempDir(), "dst")
	if err := copyPath(src, dst); err != nil {
		t.Fatalf("copyPath() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dst, "sub", "b.txt"))
	if err != nil || string(data) != "b" {
		t.Errorf("nested file = %q, err %v", data, err)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	writeFile(t, src, "content")
	dst := filepath.Join(dir, "dst.bin")

	if err := moveFile(src, dst); err != nil {
		t.Fatalf("moveFile() error: %v", err)
	}
	if exists(src) {
		t.Error("source should be removed")
	}
	if data, _ := os.ReadFile(dst); string(data) != "content" {
		t.Errorf("destination content = %q", data)
	}
}

func TestVault_LazyCreation(t *testing.T) {
	base := filepath.Join(t.TempDir(), "q")
	v := NewVault(base, fixedNow)

	if v.Root() != "" {
		t.Fatal("vault should be empty before Ensure")
	}
	if files, err := v.ListFiles(); err != nil || files != nil {
		t.Errorf("ListFiles() before Ensure = %v, %v", files, err)
	}
	if exists(base) {
		t.Fatal("base directory created too early")
	}

	root, err := v.Ensure()
	if err != nil {
		t.Fatalf("Ensure() error: %v", err)
	}
	if filepath.Base(root) != "quarantine_20240309_140507" {
		t.Errorf("vault name = %q", filepath.Base(root))
	}

	again, err := v.Ensure()
	if err != nil || again != root {
		t.Errorf("second Ensure() = %q, %v; want same root", again, err)
	}
}

func TestVault_EmptyBase(t *testing.T) {
	if _, err := NewVault("", nil).Ensure(); err == nil {
		t.Error("expected error for empty base")
	}
}
