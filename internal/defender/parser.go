package defender

import (
	"bufio"
	"bytes"
	"strings"
)

// Threat is a single resource flagged by Defender.
type Threat struct {
	Resource string
	Name     string
}

// ParseThreats parses the output of
// "Get-MpThreat | Format-List -Property Resources,ThreatName".
//
// A Resources line sets the pending resource list; the ThreatName line that
// follows emits one Threat per resource. Records that arrive out of order or
// incomplete are dropped.
func ParseThreats(output []byte) []Threat {
	var (
		threats []Threat
		pending []string
	)

	sc := bufio.NewScanner(bytes.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		key, value, ok := splitField(sc.Text())
		if !ok {
			continue
		}

		switch key {
		case "Resources":
			pending = splitResources(value)
		case "ThreatName":
			if value == "" {
				pending = nil
				continue
			}
			for _, r := range pending {
				threats = append(threats, Threat{Resource: r, Name: value})
			}
			pending = nil
		}
	}

	return threats
}

// splitField splits a Format-List line "Key : Value".
func splitField(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key != "Resources" && key != "ThreatName" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// splitResources handles both "{a, b}" and a bare single value.
func splitResources(value string) []string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "{")
	value = strings.TrimSuffix(value, "}")

	var resources []string
	for _, part := range strings.Split(value, ",") {
		if r := normalizeResource(part); r != "" {
			resources = append(resources, r)
		}
	}
	return resources
}

// normalizeResource strips Defender's resource scheme prefix ("file:_C:\x").
func normalizeResource(r string) string {
	r = strings.TrimSpace(r)
	if scheme, rest, ok := strings.Cut(r, ":_"); ok && !strings.ContainsAny(scheme, `\/`) {
		return strings.TrimSpace(rest)
	}
	return r
}
