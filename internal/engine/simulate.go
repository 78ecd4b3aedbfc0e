package engine

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"time"
)

// Simulation defaults
const (
	DefaultSimulationDuration = 4 * time.Second
	DefaultSimulationChance   = 0.5
	DefaultMaxDetections      = 5
)

var (
	simulatedFiles = []string{
		"kernel_exploit.dll",
		"rootkit.sys",
		"trojan_backdoor.exe",
		"ransomware.tmp",
		"spyware.dat",
		"phishing_script.js",
		"malware_payload.bin",
		"virus_infected.pdf",
		"worm_network.exe",
		"adware_popup.tmp",
	}
	simulatedLabels = []string{"Trojan", "Worm", "Ransomware", "Spyware"}
)

// SimulatorOptions configures a Simulator. Zero values use the defaults.
type SimulatorOptions struct {
	Duration      time.Duration
	Probability   float64
	MaxDetections int
	// Rand overrides the random source, mainly for tests.
	Rand *rand.Rand
}

// Simulator fabricates plausible results when no real engine is installed.
// Its detections point at files that do not exist.
type Simulator struct {
	duration    time.Duration
	probability float64
	max         int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a simulation engine.
func NewSimulator(opts SimulatorOptions) *Simulator {
	s := &Simulator{
		duration:    opts.Duration,
		probability: opts.Probability,
		max:         opts.MaxDetections,
		rng:         opts.Rand,
	}
	if s.duration <= 0 {
		s.duration = DefaultSimulationDuration
	}
	if s.probability <= 0 {
		s.probability = DefaultSimulationChance
	}
	if s.probability > 1 {
		s.probability = 1
	}
	if s.max <= 0 {
		s.max = DefaultMaxDetections
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	return s
}

// Name returns the engine name.
func (s *Simulator) Name() string { return NameSimulation }

// Duration returns how long a simulated scan takes.
func (s *Simulator) Duration() time.Duration { return s.duration }

// Scan waits for the simulated duration, then returns 0 or 1..max fabricated
// detections. An interrupted simulation returns no detections.
func (s *Simulator) Scan(ctx context.Context, targets []string) ([]Detection, error) {
	timer := time.NewTimer(s.duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return s.fabricate(targets), nil
}

func (s *Simulator) fabricate(targets []string) []Detection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() >= s.probability {
		return nil
	}

	n := 1 + s.rng.IntN(s.max)
	detections := make([]Detection, 0, n)
	for range n {
		file := simulatedFiles[s.rng.IntN(len(simulatedFiles))]
		path := file
		if len(targets) > 0 {
			path = filepath.Join(targets[s.rng.IntN(len(targets))], file)
		}
		detections = append(detections, Detection{
			Path:  path,
			Label: simulatedLabels[s.rng.IntN(len(simulatedLabels))],
		})
	}
	return detections
}
