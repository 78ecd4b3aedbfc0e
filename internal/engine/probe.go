package engine

import (
	"os"
	"os/exec"
)

// Default binary names looked up on PATH.
var (
	DefaultScannerNames = []string{"clamscan", "clamscan.exe"}
	DefaultNativeName   = "MpCmdRun.exe"
)

// Availability is the result of probing the host for scan engines.
type Availability struct {
	ScannerPath string `json:"clamav,omitempty"`
	NativePath  string `json:"defender,omitempty"`
}

// ScannerAvailable reports whether a ClamAV scanner was found.
func (a Availability) ScannerAvailable() bool { return a.ScannerPath != "" }

// NativeAvailable reports whether Defender's MpCmdRun was found.
func (a Availability) NativeAvailable() bool { return a.NativePath != "" }

// ProbeOptions controls where Probe looks. Zero values use the defaults.
type ProbeOptions struct {
	ScannerNames     []string
	NativeName       string
	NativeCandidates []string

	DisableScanner bool
	DisableNative  bool

	LookPath func(file string) (string, error)
	Exists   func(path string) bool
}

// Probe looks for the ClamAV and Defender executables. It has no side effects
// and never fails; a missing engine simply leaves its path empty.
func Probe(opts ProbeOptions) Availability {
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	exists := opts.Exists
	if exists == nil {
		exists = fileExists
	}

	var a Availability

	if !opts.DisableScanner {
		names := opts.ScannerNames
		if len(names) == 0 {
			names = DefaultScannerNames
		}
		for _, name := range names {
			if p, err := lookPath(name); err == nil && p != "" {
				a.ScannerPath = p
				break
			}
		}
	}

	if !opts.DisableNative {
		name := opts.NativeName
		if name == "" {
			name = DefaultNativeName
		}
		if p, err := lookPath(name); err == nil && p != "" {
			a.NativePath = p
		} else {
			for _, c := range opts.NativeCandidates {
				if exists(c) {
					a.NativePath = c
					break
				}
			}
		}
	}

	return a
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
