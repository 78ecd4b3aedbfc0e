//go:build windows

package sysinfo

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func fillPlatform(info *Info) {
	v := windows.RtlGetVersion()
	info.Kernel = fmt.Sprintf("%d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber)
	info.Uptime = windows.DurationSinceBoot()
}
