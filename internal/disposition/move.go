package disposition

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// uniqueDestination returns dir/name, or dir/stem_N.ext for the smallest
// N >= 1 that does not exist yet.
func uniqueDestination(dir, name string) string {
	dest := filepath.Join(dir, name)
	if !exists(dest) {
		return dest
	}

	stem, ext := splitExt(name)
	for i := 1; ; i++ {
		dest = filepath.Join(dir, stem+"_"+strconv.Itoa(i)+ext)
		if !exists(dest) {
			return dest
		}
	}
}

// splitExt splits name into stem and extension. Leading dots belong to the
// stem, so ".bashrc" has no extension and ".env.local" has ".local".
func splitExt(name string) (stem, ext string) {
	rest := strings.TrimLeft(name, ".")
	ext = filepath.Ext(rest)
	return strings.TrimSuffix(name, ext), ext
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// moveInto moves src into dir under a collision-free name and returns the
// final path.
func moveInto(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	dest := uniqueDestination(dir, filepath.Base(src))
	if err := moveFile(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// moveFile renames src to dst. When the rename fails, typically because the
// two paths are on different volumes, it copies and then removes src.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}

	if err := copyPath(src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("copied %s but failed to remove the original: %w", src, err)
	}
	return nil
}

func copyPath(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst, info.Mode().Perm())
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			// Symlinks and devices are not carried into quarantine.
			return nil
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
