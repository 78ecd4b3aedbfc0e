package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// stubEngine is a hand-written Engine for chain and selection tests.
type stubEngine struct {
	name       string
	detections []Detection
	err        error
	calls      int
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Scan(_ context.Context, _ []string) ([]Detection, error) {
	s.calls++
	return s.detections, s.err
}

func TestChain_FirstEngineWins(t *testing.T) {
	first := &stubEngine{name: NameClamAV, detections: []Detection{{Path: "/a", Label: "X"}}}
	second := &stubEngine{name: NameDefender}

	c := NewChain(nil, first, second)
	got, err := c.Scan(context.Background(), []string{"/"})
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 detection, got %d", len(got))
	}
	if second.calls != 0 {
		t.Error("second engine should not run when the first launches")
	}
	if c.Name() != NameClamAV {
		t.Errorf("Name() = %q, want %q", c.Name(), NameClamAV)
	}
}

func TestChain_LaunchFailureFallsThrough(t *testing.T) {
	first := &stubEngine{name: NameClamAV, err: ErrLaunch}
	second := &stubEngine{name: NameDefender, detections: []Detection{{Path: `C:\x`, Label: "Y"}}}

	c := NewChain(nil, first, second)
	got, err := c.Scan(context.Background(), []string{`C:\`})
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Label != "Y" {
		t.Errorf("unexpected detections: %+v", got)
	}
	if c.Name() != NameDefender {
		t.Errorf("Name() = %q, want %q", c.Name(), NameDefender)
	}
}

func TestChain_NonLaunchErrorStops(t *testing.T) {
	first := &stubEngine{
		name:       NameClamAV,
		detections: []Detection{{Path: "/partial", Label: "Z"}},
		err:        context.Canceled,
	}
	second := &stubEngine{name: NameDefender}

	got, err := NewChain(nil, first, second).Scan(context.Background(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(got) != 1 {
		t.Errorf("partial detections should be returned, got %+v", got)
	}
	if second.calls != 0 {
		t.Error("interrupt must not fall through to the next engine")
	}
}

func TestChain_NoFallThroughAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubEngine{name: NameClamAV, err: ErrLaunch}
	second := &stubEngine{name: NameDefender}

	_, err := NewChain(nil, first, second).Scan(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if second.calls != 0 {
		t.Error("a cancelled scan must not start the next engine")
	}
}

func TestChain_AllLaunchFailures(t *testing.T) {
	c := NewChain(nil,
		&stubEngine{name: NameClamAV, err: ErrLaunch},
		&stubEngine{name: NameDefender, err: ErrLaunch},
	)
	got, err := c.Scan(context.Background(), nil)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no detections, got %+v", got)
	}
}

func TestChain_Empty(t *testing.T) {
	c := NewChain(nil)
	if _, err := c.Scan(context.Background(), nil); !errors.Is(err, ErrNoEngine) {
		t.Errorf("expected ErrNoEngine, got %v", err)
	}
	if c.Name() != "" {
		t.Errorf("Name() = %q, want empty", c.Name())
	}
}

func TestSelect(t *testing.T) {
	factory := Factory{
		ClamAV:     func(string) Engine { return &stubEngine{name: NameClamAV} },
		Defender:   func(string) Engine { return &stubEngine{name: NameDefender} },
		Simulation: func() Engine { return &stubEngine{name: NameSimulation} },
	}

	tests := []struct {
		name      string
		avail     Availability
		allowSim  bool
		want      []string
		wantErr   error
		simulated bool
	}{
		{
			name:  "both engines",
			avail: Availability{ScannerPath: "/usr/bin/clamscan", NativePath: `C:\MpCmdRun.exe`},
			want:  []string{NameClamAV, NameDefender},
		},
		{
			name:     "clamav only, simulation allowed but not used",
			avail:    Availability{ScannerPath: "/usr/bin/clamscan"},
			allowSim: true,
			want:     []string{NameClamAV},
		},
		{
			name:     "defender only, simulation allowed but not used",
			avail:    Availability{NativePath: `C:\MpCmdRun.exe`},
			allowSim: true,
			want:     []string{NameDefender},
		},
		{
			name:      "nothing found, simulation allowed",
			avail:     Availability{},
			allowSim:  true,
			want:      []string{NameSimulation},
			simulated: true,
		},
		{
			name:    "nothing found, simulation not allowed",
			avail:   Availability{},
			wantErr: ErrNoEngine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := Select(tt.avail, factory, tt.allowSim, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() unexpected error: %v", err)
			}
			if got := chain.Engines(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Engines() = %v, want %v", got, tt.want)
			}
			if chain.Simulated() != tt.simulated {
				t.Errorf("Simulated() = %v, want %v", chain.Simulated(), tt.simulated)
			}
		})
	}
}

func TestFilterAllowed(t *testing.T) {
	dets := []Detection{
		{Path: "/home/user/a.exe", Label: "A"},
		{Path: "/opt/tools/nc", Label: "HackTool"},
		{Path: "/tmp/b.bin", Label: "B"},
	}

	kept, dropped := FilterAllowed(dets, func(p string) bool { return p == "/opt/tools/nc" })
	if len(kept) != 2 || len(dropped) != 1 {
		t.Fatalf("kept=%v dropped=%v", kept, dropped)
	}
	if dropped[0].Label != "HackTool" {
		t.Errorf("dropped wrong detection: %+v", dropped[0])
	}

	kept, dropped = FilterAllowed(dets, nil)
	if len(kept) != 3 || dropped != nil {
		t.Errorf("nil allow func should keep everything")
	}
}
