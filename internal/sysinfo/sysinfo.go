// Package sysinfo collects the host details shown at start-up.
package sysinfo

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/clean-dependency-project/cyberscan/internal/platform"
)

// Info describes the host.
type Info struct {
	Hostname    string            `json:"hostname"`
	OS          string            `json:"os"`
	Kernel      string            `json:"kernel,omitempty"`
	Platform    string            `json:"platform"`
	CPUs        int               `json:"cpus"`
	MemoryTotal uint64            `json:"memory_total,omitempty"`
	MemoryFree  uint64            `json:"memory_free,omitempty"`
	Uptime      time.Duration     `json:"uptime,omitempty"`
	Processes   int               `json:"processes,omitempty"`
	User        string            `json:"user,omitempty"`
	IPAddress   string            `json:"ip_address,omitempty"`
	Volumes     []platform.Volume `json:"volumes,omitempty"`
	GoVersion   string            `json:"go_version"`
	CollectedAt time.Time         `json:"collected_at"`
}

// Field is one labelled line of the report.
type Field struct {
	Key   string
	Value string
}

// Collect gathers host information. Only a missing hostname is an error;
// every other detail is best effort.
func Collect() (Info, error) {
	return collect(os.Hostname)
}

func collect(hostname func() (string, error)) (Info, error) {
	name, err := hostname()
	if err != nil {
		return Info{}, fmt.Errorf("failed to read hostname: %w", err)
	}

	info := Info{
		Hostname:    name,
		OS:          runtime.GOOS,
		Platform:    platform.CurrentPlatform().String(),
		CPUs:        runtime.NumCPU(),
		GoVersion:   runtime.Version(),
		CollectedAt: time.Now(),
	}

	if u, err := user.Current(); err == nil {
		info.User = u.Username
	}
	info.IPAddress = primaryIPv4()
	if vols, err := platform.Volumes(); err == nil {
		info.Volumes = vols
	}

	fillPlatform(&info)
	return info, nil
}

// primaryIPv4 returns the first non-loopback IPv4 interface address.
func primaryIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}

// Fields returns the report rows in display order.
func (i Info) Fields() []Field {
	fields := []Field{
		{"Hostname", i.Hostname},
		{"OS", strings.TrimSpace(i.OS + " " + i.Kernel)},
		{"Platform", i.Platform},
		{"Cores (Logical)", fmt.Sprintf("%d", i.CPUs)},
	}
	if i.MemoryTotal > 0 {
		fields = append(fields,
			Field{"RAM Total", FormatGB(i.MemoryTotal)},
			Field{"RAM Available", FormatGB(i.MemoryFree)},
		)
	}
	for _, v := range i.Volumes {
		fields = append(fields, Field{
			"Disk " + v.Path,
			fmt.Sprintf("%s used of %s (%.0f%%)", FormatGB(nonNegative(v.UsedBytes())), FormatGB(nonNegative(v.TotalBytes)), v.UsedPercent()),
		})
	}
	if i.Uptime > 0 {
		fields = append(fields, Field{"Uptime", fmt.Sprintf("%d hours", int(i.Uptime.Hours()))})
	}
	if i.Processes > 0 {
		fields = append(fields, Field{"Processes", fmt.Sprintf("%d", i.Processes)})
	}
	fields = append(fields,
		Field{"Logged User", orNA(i.User)},
		Field{"IP Address", orNA(i.IPAddress)},
		Field{"Runtime", i.GoVersion},
	)
	return fields
}

// FormatGB formats a byte count in gigabytes.
func FormatGB(b uint64) string {
	return fmt.Sprintf("%.2f GB", float64(b)/(1<<30))
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
