package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Allowlist lists paths that are never reported as detections.
// Structure examples:
//
//	["/opt/av-samples/*", "eicar.com"]
//
//	{"all": ["*.eicar"], "windows": ["C:\\Samples\\*"], "linux": ["/srv/samples/"]}
//
//	  - A top-level array applies on every OS.
//	  - An object may hold "all" plus OS keys ("windows", "linux", "mac").
//	  - Patterns are shell globs matched against the full path and the base name.
//	    A pattern ending in a path separator matches everything beneath it.
type Allowlist map[string][]string

// allowAll is the key for patterns that apply on every OS.
const allowAll = "all"

// LoadAllowlist loads an allow list file if provided.
// Returns an empty list if filePath is empty.
func LoadAllowlist(filePath string) (Allowlist, error) {
	if filePath == "" {
		return Allowlist{}, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read allowlist file %s: %w", filePath, err)
	}
	var raw any
	switch ext := filepath.Ext(filePath); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML allowlist file %s: %w", filePath, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON allowlist file %s: %w", filePath, err)
		}
	}
	list, err := allowlistFrom(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid allowlist file %s: %w", filePath, err)
	}
	return list, nil
}

func allowlistFrom(raw any) (Allowlist, error) {
	list := Allowlist{}
	switch v := raw.(type) {
	case nil:
		return list, nil
	case []any:
		list[allowAll] = stringsOf(v)
	case map[string]any:
		for key, val := range v {
			arr, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("key %q must hold a list of patterns", key)
			}
			list[strings.ToLower(key)] = stringsOf(arr)
		}
	default:
		return nil, fmt.Errorf("unexpected top-level type %T", raw)
	}
	return list, nil
}

func stringsOf(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsAllowed reports whether path matches a pattern for every OS or for osName.
func (a Allowlist) IsAllowed(path, osName string) bool {
	if matchPatterns(a[allowAll], path) {
		return true
	}
	return osName != "" && matchPatterns(a[strings.ToLower(osName)], path)
}

// Len returns the total number of patterns.
func (a Allowlist) Len() int {
	n := 0
	for _, p := range a {
		n += len(p)
	}
	return n
}

func matchPatterns(patterns []string, path string) bool {
	clean := filepath.Clean(path)
	base := filepath.Base(clean)
	for _, p := range patterns {
		if p == path || p == clean {
			return true
		}
		if strings.HasSuffix(p, "/") || strings.HasSuffix(p, `\`) {
			dir := filepath.Clean(p)
			if strings.HasPrefix(clean, dir+string(filepath.Separator)) {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(p, clean); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}
