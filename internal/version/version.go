// Package version parses and compares antivirus engine versions
package version

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// String constants for operations (used in ErrVersionParseFailed)
const (
	OpExtractVersion  = "extract_version"
	OpParseVersion    = "parse_version"
	OpParseMinimum    = "parse_minimum"
	OpParseVersion1   = "parse_version1"
	OpParseVersion2   = "parse_version2"
	OpValidateVersion = "validate_version"
)

// Custom error types for better error handling and comparison
var (
	ErrInvalidVersion = errors.New("invalid version format")
	ErrNoVersionFound = errors.New("no version found in output")
)

// ErrVersionParseFailed represents a version parsing error
type ErrVersionParseFailed struct {
	Version string
	Op      string
	Cause   error
}

func (e ErrVersionParseFailed) Error() string {
	return fmt.Sprintf("failed to parse version %s in operation %s: %v", e.Version, e.Op, e.Cause)
}

func (e ErrVersionParseFailed) Unwrap() error {
	return e.Cause
}

func (e ErrVersionParseFailed) Is(target error) bool {
	var parseErr ErrVersionParseFailed
	return errors.As(target, &parseErr)
}

// ErrBelowMinimum is returned by Require when an engine is older than allowed.
type ErrBelowMinimum struct {
	Engine  string
	Version string
	Minimum string
}

func (e ErrBelowMinimum) Error() string {
	return fmt.Sprintf("%s %s is older than the minimum supported version %s", e.Engine, e.Version, e.Minimum)
}

func (e ErrBelowMinimum) Is(target error) bool {
	var belowErr ErrBelowMinimum
	return errors.As(target, &belowErr)
}

// Engine banners look like "ClamAV 1.4.1/27400/Mon Sep 16 08:35:23 2024"
// or "Product Version: 4.18.24090.11". Only the first three numeric
// components are kept so four-part Windows versions still parse as semver.
var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?(?:\.\d+)*`)

// Extract finds the first dotted version number in an engine's version output.
func Extract(output string) (string, error) {
	m := versionPattern.FindStringSubmatch(output)
	if m == nil {
		return "", ErrVersionParseFailed{
			Version: output,
			Op:      OpExtractVersion,
			Cause:   ErrNoVersionFound,
		}
	}

	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v := fmt.Sprintf("%s.%s.%s", m[1], m[2], patch)

	if err := Validate(v); err != nil {
		return "", err
	}
	return v, nil
}

// Validate checks that a version string is valid semver.
func Validate(v string) error {
	if _, err := semver.NewVersion(v); err != nil {
		return ErrVersionParseFailed{
			Version: v,
			Op:      OpValidateVersion,
			Cause:   err,
		}
	}
	return nil
}

// Compare compares two versions (-1 if v1 < v2, 0 if equal, 1 if v1 > v2).
func Compare(v1, v2 string) (int, error) {
	ver1, err := semver.NewVersion(v1)
	if err != nil {
		return 0, ErrVersionParseFailed{
			Version: v1,
			Op:      OpParseVersion1,
			Cause:   err,
		}
	}

	ver2, err := semver.NewVersion(v2)
	if err != nil {
		return 0, ErrVersionParseFailed{
			Version: v2,
			Op:      OpParseVersion2,
			Cause:   err,
		}
	}

	return ver1.Compare(ver2), nil
}

// AtLeast reports whether current >= minimum.
// An empty minimum always succeeds.
func AtLeast(current, minimum string) (bool, error) {
	if minimum == "" {
		return true, nil
	}

	cur, err := semver.NewVersion(current)
	if err != nil {
		return false, ErrVersionParseFailed{
			Version: current,
			Op:      OpParseVersion,
			Cause:   err,
		}
	}

	constraint, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return false, ErrVersionParseFailed{
			Version: minimum,
			Op:      OpParseMinimum,
			Cause:   err,
		}
	}

	return constraint.Check(cur), nil
}

// Require returns ErrBelowMinimum when current is older than minimum.
func Require(engine, current, minimum string) error {
	ok, err := AtLeast(current, minimum)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBelowMinimum{Engine: engine, Version: current, Minimum: minimum}
	}
	return nil
}
