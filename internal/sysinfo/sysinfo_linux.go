//go:build linux

package sysinfo

import (
	"time"

	"golang.org/x/sys/unix"
)

func fillPlatform(info *Info) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		info.Kernel = unix.ByteSliceToString(uts.Release[:])
	}

	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err == nil {
		unit := uint64(si.Unit)
		if unit == 0 {
			unit = 1
		}
		info.MemoryTotal = uint64(si.Totalram) * unit
		info.MemoryFree = uint64(si.Freeram) * unit
		info.Uptime = time.Duration(int64(si.Uptime)) * time.Second
		info.Processes = int(si.Procs)
	}
}
