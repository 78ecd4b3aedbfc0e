package clamav

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

const foundSuffix = " FOUND"

// Infection is a single clamscan detection.
type Infection struct {
	Path      string
	Signature string
}

// ParseOutput extracts infections from clamscan output.
//
// Only lines ending in " FOUND" are considered. Paths may themselves contain
// colons (Windows drive letters), so the line is split on the last colon.
// Lines that do not match are ignored.
func ParseOutput(output []byte) []Infection {
	var infections []Infection

	sc := bufio.NewScanner(bytes.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if inf, ok := parseLine(sc.Text()); ok {
			infections = append(infections, inf)
		}
	}

	return infections
}

// parseLine handles "/path/to/file: Signature-Name FOUND".
func parseLine(line string) (Infection, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasSuffix(line, foundSuffix) {
		return Infection{}, false
	}

	idx := strings.LastIndex(line, ":")
	if idx <= 0 {
		return Infection{}, false
	}

	path := strings.TrimSpace(line[:idx])
	signature := strings.TrimSpace(strings.TrimSuffix(line[idx+1:], foundSuffix))
	if path == "" || signature == "" {
		return Infection{}, false
	}

	return Infection{Path: path, Signature: signature}, true
}

var databaseDatePattern = regexp.MustCompile(`ClamAV \d+\.\d+\.\d+/\d+/([A-Za-z]{3} [A-Za-z]{3}\s+\d+\s+\d+:\d+:\d+ \d{4})`)

// DatabaseDate returns the signature database date from a
// "clamscan --version" banner, or "unknown" when absent.
// Example version: "ClamAV 1.5.1/27805/Mon Oct 27 09:50:30 2025"
func DatabaseDate(version string) string {
	matches := databaseDatePattern.FindStringSubmatch(version)
	if len(matches) >= 2 {
		return matches[1]
	}

	return "unknown"
}
