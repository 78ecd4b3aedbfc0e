//go:build linux

package platform

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const mountsFile = "/proc/self/mounts"

func platformVolumes() ([]Volume, error) {
	f, err := os.Open(mountsFile)
	if err != nil {
		// If we can't read the mount table, just return root
		return []Volume{rootVolume()}, nil
	}
	defer f.Close()

	vols := parseMounts(f)
	if len(vols) == 0 {
		return []Volume{rootVolume()}, nil
	}
	for i := range vols {
		vols[i].TotalBytes, vols[i].FreeBytes = diskSpace(vols[i].Path)
	}
	return vols, nil
}

// parseMounts reads /proc/mounts formatted lines and returns one Volume per
// distinct local mount point.
func parseMounts(r io.Reader) []Volume {
	var vols []Volume
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		device, mountPoint, fsType := fields[0], unescapeMount(fields[1]), fields[2]
		if isFilteredFilesystem(fsType) || seen[mountPoint] {
			continue
		}
		seen[mountPoint] = true
		vols = append(vols, Volume{
			Path:   mountPoint,
			Label:  device,
			FSType: fsType,
		})
	}
	return vols
}

// unescapeMount decodes the octal escapes the kernel uses for spaces and tabs.
func unescapeMount(s string) string {
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
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

func rootVolume() Volume {
	v := Volume{Path: "/", Label: "/"}
	v.TotalBytes, v.FreeBytes = diskSpace("/")
	return v
}
