//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func platformVolumes() ([]Volume, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("failed to list logical drives: %w", err)
	}

	var vols []Volume
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := string(rune('A' + i))
		path := letter + `:\`

		ptr, err := windows.UTF16PtrFromString(path)
		if err != nil {
			continue
		}
		switch windows.GetDriveType(ptr) {
		case windows.DRIVE_REMOTE, windows.DRIVE_CDROM, windows.DRIVE_NO_ROOT_DIR, windows.DRIVE_UNKNOWN:
			continue
		}

		v := Volume{Path: path, Label: letter}
		var freeAvail, total, totalFree uint64
		if err := windows.GetDiskFreeSpaceEx(ptr, &freeAvail, &total, &totalFree); err == nil {
			v.TotalBytes = int64(total)
			v.FreeBytes = int64(freeAvail)
		}
		vols = append(vols, v)
	}

	if len(vols) == 0 {
		vols = append(vols, Volume{Path: `C:\`, Label: "C"})
	}
	return vols, nil
}
