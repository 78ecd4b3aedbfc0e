//go:build !linux && !darwin && !windows

package sysinfo

func fillPlatform(*Info) {}
