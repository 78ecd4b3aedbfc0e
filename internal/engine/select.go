package engine

import "log/slog"

// Factory builds engines for the tiers Select decides to use.
type Factory struct {
	ClamAV     func(path string) Engine
	Defender   func(path string) Engine
	Simulation func() Engine
}

// Select builds the engine chain for avail.
//
// Real engines are chained ClamAV first, then Defender. The simulation engine
// is used if and only if neither real engine was found and allowSimulation is
// set; otherwise an empty probe yields ErrNoEngine.
func Select(avail Availability, f Factory, allowSimulation bool, logger *slog.Logger) (*Chain, error) {
	var engines []Engine

	if avail.ScannerAvailable() && f.ClamAV != nil {
		engines = append(engines, f.ClamAV(avail.ScannerPath))
	}
	if avail.NativeAvailable() && f.Defender != nil {
		engines = append(engines, f.Defender(avail.NativePath))
	}

	if !avail.ScannerAvailable() && !avail.NativeAvailable() {
		if !allowSimulation || f.Simulation == nil {
			return nil, ErrNoEngine
		}
		engines = append(engines, f.Simulation())
	}

	if len(engines) == 0 {
		return nil, ErrNoEngine
	}

	return NewChain(logger, engines...), nil
}
