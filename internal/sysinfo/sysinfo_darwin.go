//go:build darwin

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

	if mem, err := unix.SysctlUint64("hw.memsize"); err == nil {
		info.MemoryTotal = mem
	}

	if tv, err := unix.SysctlTimeval("kern.boottime"); err == nil {
		boot := time.Unix(tv.Unix())
		info.Uptime = time.Since(boot).Truncate(time.Second)
	}
}
