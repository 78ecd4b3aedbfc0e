package platform

// Volume represents a mounted drive/volume that a full scan should cover.
type Volume struct {
	Path       string // mount point or drive root, e.g. "/" or "C:\"
	Label      string
	FSType     string
	TotalBytes int64
	FreeBytes  int64
}

// UsedBytes returns bytes used on this volume
func (v Volume) UsedBytes() int64 {
	return v.TotalBytes - v.FreeBytes
}

// UsedPercent returns percentage of volume used
func (v Volume) UsedPercent() float64 {
	if v.TotalBytes == 0 {
		return 0
	}
	return float64(v.UsedBytes()) / float64(v.TotalBytes) * 100
}

// Volumes returns all locally mounted volumes. Network and pseudo filesystems
// are left out. The result is never empty on a working system: when nothing
// can be enumerated the filesystem root is returned.
func Volumes() ([]Volume, error) {
	return platformVolumes()
}

// VolumeRoots returns just the mount points of Volumes.
func VolumeRoots() ([]string, error) {
	vols, err := Volumes()
	if err != nil {
		return nil, err
	}
	roots := make([]string, 0, len(vols))
	for _, v := range vols {
		roots = append(roots, v.Path)
	}
	return roots, nil
}

// filteredFilesystems lists network and pseudo filesystem types that a
// malware scan should never descend into.
var filteredFilesystems = map[string]bool{
	// Network filesystems
	"smbfs": true, "nfs": true, "nfs4": true, "afpfs": true, "webdav": true,
	"cifs": true, "smb3": true, "fuse.sshfs": true, "9p": true,
	// Pseudo filesystems
	"proc": true, "sysfs": true, "devtmpfs": true, "devpts": true, "devfs": true,
	"tmpfs": true, "cgroup": true, "cgroup2": true, "securityfs": true,
	"pstore": true, "debugfs": true, "tracefs": true, "configfs": true,
	"fusectl": true, "mqueue": true, "hugetlbfs": true, "bpf": true,
	"autofs": true, "binfmt_misc": true, "rpc_pipefs": true, "nsfs": true,
	"squashfs": true, "efivarfs": true, "ramfs": true, "mtmfs": true, "nullfs": true,
}

// isFilteredFilesystem returns true if the filesystem type should be filtered out
func isFilteredFilesystem(fsType string) bool {
	return filteredFilesystems[fsType]
}
