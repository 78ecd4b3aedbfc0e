//go:build !linux && !darwin && !windows

package platform

func platformVolumes() ([]Volume, error) {
	return []Volume{{Path: "/", Label: "/"}}, nil
}
