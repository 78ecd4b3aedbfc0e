package engine

// FilterAllowed splits detections into those kept and those whose path the
// allow list accepts. A nil allowed func keeps everything.
func FilterAllowed(detections []Detection, allowed func(path string) bool) (kept, dropped []Detection) {
	if allowed == nil {
		return detections, nil
	}
	for _, d := range detections {
		if allowed(d.Path) {
			dropped = append(dropped, d)
			continue
		}
		kept = append(kept, d)
	}
	return kept, dropped
}
