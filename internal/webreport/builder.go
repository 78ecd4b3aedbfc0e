package webreport

import (
	"sort"
	"time"
)

// BuildModel transforms loaded runs into a SiteModel with deterministic sorting.
// Sorting order: hostname (asc), start time (desc), run ID (asc).
func BuildModel(runs []RunWithDetails, generatedAt time.Time) *SiteModel {
	model := &SiteModel{GeneratedAt: generatedAt, Hosts: []HostModel{}}
	if len(runs) == 0 {
		return model
	}

	hostMap := make(map[string]*HostModel)
	for _, rwd := range runs {
		host := hostMap[rwd.Run.Hostname]
		if host == nil {
			host = &HostModel{Hostname: rwd.Run.Hostname, Platform: rwd.Run.Platform}
			hostMap[rwd.Run.Hostname] = host
		}

		run := buildRunModel(rwd)
		host.Runs = append(host.Runs, run)

		model.Totals.Runs++
		model.Totals.Detections += len(run.Detections)
		model.Totals.Suppressed += run.Suppressed
		model.Totals.Dispositions += len(run.Dispositions)
		if run.Status == StatusInterrupted {
			model.Totals.Interrupted++
		}
	}

	for _, name := range sortedStringKeys(hostMap) {
		host := hostMap[name]
		sort.SliceStable(host.Runs, func(i, j int) bool {
			a, b := host.Runs[i], host.Runs[j]
			if !a.StartedAt.Equal(b.StartedAt) {
				return a.StartedAt.After(b.StartedAt)
			}
			return a.RunID < b.RunID
		})
		model.Hosts = append(model.Hosts, *host)
	}

	return model
}

// buildRunModel converts one run, marking each detection with the last
// action recorded for its path.
func buildRunModel(rwd RunWithDetails) RunModel {
	r := rwd.Run
	run := RunModel{
		RunID:        r.RunID,
		ShortID:      shortID(r.RunID),
		Engine:       r.Engine,
		Mode:         r.Mode,
		Simulated:    r.Simulated,
		Status:       runStatus(r.Interrupted, r.ErrorMessage),
		ErrorMessage: r.ErrorMessage,
		StartedAt:    r.StartedAt,
		Targets:      rwd.Targets,
		Suppressed:   r.SuppressedCount,
	}
	if r.FinishedAt.After(r.StartedAt) {
		run.Duration = r.FinishedAt.Sub(r.StartedAt)
	}

	lastAction := make(map[string]string)
	for _, d := range rwd.Dispositions {
		action := d.Action
		if !d.Success {
			action += " (failed)"
		}
		lastAction[d.Path] = action
		run.Dispositions = append(run.Dispositions, DispositionModel{
			Action:      d.Action,
			Path:        d.Path,
			Success:     d.Success,
			Message:     d.Message,
			Destination: d.Destination,
			At:          d.At,
		})
	}

	for _, det := range rwd.Detections {
		run.Detections = append(run.Detections, DetectionModel{
			Path:   det.Path,
			Label:  det.Label,
			Action: lastAction[det.Path],
		})
	}

	return run
}

func runStatus(interrupted bool, errMsg string) string {
	switch {
	case interrupted:
		return StatusInterrupted
	case errMsg != "":
		return StatusError
	default:
		return StatusComplete
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// sortedStringKeys returns map keys sorted alphabetically.
func sortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
