//go:build darwin

package platform

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

func platformVolumes() ([]Volume, error) {
	var vols []Volume

	// Add root filesystem first
	root := Volume{Path: "/", Label: "Macintosh HD"}
	root.TotalBytes, root.FreeBytes = diskSpace("/")
	vols = append(vols, root)

	// Scan /Volumes for mounted drives
	entries, err := os.ReadDir("/Volumes")
	if err != nil {
		return vols, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		volumePath := filepath.Join("/Volumes", entry.Name())

		var stat unix.Statfs_t
		if err := unix.Statfs(volumePath, &stat); err != nil {
			// Skip volumes we can't access
			continue
		}
		fsType := unix.ByteSliceToString(stat.Fstypename[:])
		if isFilteredFilesystem(fsType) {
			continue
		}
		// The boot volume also appears under /Volumes as a symlink to /.
		if target, err := filepath.EvalSymlinks(volumePath); err == nil && target == "/" {
			continue
		}

		v := Volume{Path: volumePath, Label: entry.Name(), FSType: fsType}
		v.TotalBytes, v.FreeBytes = diskSpace(volumePath)
		if v.TotalBytes > 0 {
			vols = append(vols, v)
		}
	}

	return vols, nil
}

func diskSpace(path string) (total, free int64) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0
	}
	total = int64(stat.Blocks) * int64(stat.Bsize)
	free = int64(stat.Bavail) * int64(stat.Bsize)
	return total, free
}
