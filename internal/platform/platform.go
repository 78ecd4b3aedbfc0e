// Package platform describes the host the scanner runs on and the volumes it can reach.
package platform

import (
	"fmt"
	"runtime"
)

// Platform represents the host OS/Architecture combination.
type Platform struct {
	OS         string // windows, linux, mac
	Arch       string // x64, aarch64, x86, arm
	Classifier string // e.g. linux-x64
}

// CurrentPlatform returns the platform for the current system.
func CurrentPlatform() Platform {
	return buildPlatform(mapOS(runtime.GOOS), mapArch(runtime.GOARCH))
}

// IsWindows reports whether the platform is Windows, the only platform with
// a native Defender command-line tool.
func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}

// String returns the classifier.
func (p Platform) String() string {
	return p.Classifier
}

// mapOS converts Go's GOOS to our platform OS naming
func mapOS(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin":
		return "mac"
	default:
		return "linux"
	}
}

// mapArch converts Go's GOARCH to our platform architecture naming
func mapArch(goarch string) string {
	switch goarch {
	case "arm64":
		return "aarch64"
	case "386":
		return "x86"
	case "arm":
		return "arm"
	default:
		return "x64"
	}
}

// buildPlatform constructs a Platform from OS and architecture strings
func buildPlatform(os, arch string) Platform {
	return Platform{
		OS:         os,
		Arch:       arch,
		Classifier: fmt.Sprintf("%s-%s", os, arch),
	}
}
