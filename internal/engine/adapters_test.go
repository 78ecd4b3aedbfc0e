package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/clean-dependency-project/cyberscan/internal/clamav"
	"github.com/clean-dependency-project/cyberscan/internal/command"
	"github.com/clean-dependency-project/cyberscan/internal/defender"
)

type fakeClamScanner struct {
	result clamav.Result
	err    error
}

func (f *fakeClamScanner) Scan(_ context.Context, _ []string) (clamav.Result, error) {
	return f.result, f.err
}

type fakeThreatScanner struct {
	threats []defender.Threat
	err     error
}

func (f *fakeThreatScanner) Scan(_ context.Context, _ []string) ([]defender.Threat, error) {
	return f.threats, f.err
}

func TestClamAV_Scan(t *testing.T) {
	scanner := &fakeClamScanner{
		result: clamav.Result{
			Infections: []clamav.Infection{
				{Path: "/home/user/a.exe", Signature: "Eicar-Test-Signature"},
			},
			Metadata: clamav.Metadata{EngineVersion: "ClamAV 1.5.1/27805/Mon Oct 27 09:50:30 2025"},
		},
	}

	var logs bytes.Buffer
	a := NewClamAV(scanner, "1.0.0", slog.New(slog.NewTextHandler(&logs, nil)))
	got, err := a.Scan(context.Background(), []string{"/home/user"})
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}

	want := []Detection{{Path: "/home/user/a.exe", Label: "Eicar-Test-Signature"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %+v, want %+v", got, want)
	}
	if !strings.Contains(logs.String(), `database_date="Mon Oct 27 09:50:30 2025"`) {
		t.Errorf("scan metadata not logged: %s", logs.String())
	}
	if a.Name() != NameClamAV {
		t.Errorf("Name() = %q", a.Name())
	}
}

func TestClamAV_Scan_LaunchFailure(t *testing.T) {
	scanner := &fakeClamScanner{err: fmt.Errorf("%w: not found", clamav.ErrLaunchFailed)}

	_, err := NewClamAV(scanner, "", nil).Scan(context.Background(), []string{"/"})
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got %v", err)
	}
}

func TestClamAV_Scan_PartialOnInterrupt(t *testing.T) {
	scanner := &fakeClamScanner{
		result: clamav.Result{Infections: []clamav.Infection{{Path: "/x", Signature: "S"}}},
		err:    context.Canceled,
	}

	got, err := NewClamAV(scanner, "", nil).Scan(context.Background(), []string{"/"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected partial detections, got %+v", got)
	}
}

// signalExit reports a child process killed by a signal.
type signalExit struct{}

func (signalExit) Error() string { return "signal: interrupt" }
func (signalExit) ExitCode() int { return -1 }

func TestChain_KilledClamscanKeepsDetections(t *testing.T) {
	runner := &command.MockRunner{
		Handler: func(_ string, args []string) ([]byte, error) {
			if len(args) == 1 && args[0] == "--version" {
				return []byte("ClamAV 1.4.1/27400/Tue Sep 10 08:00:00 2024\n"), nil
			}
			return []byte("/home/user/a.exe: Eicar-Test-Signature FOUND\n"), signalExit{}
		},
	}
	fallback := &stubEngine{name: NameDefender}
	chain := NewChain(nil, NewClamAV(clamav.NewLocalScanner(runner, "", nil, nil), "", nil), fallback)

	got, err := chain.Scan(context.Background(), []string{"/home/user"})
	if !errors.Is(err, clamav.ErrTerminated) {
		t.Fatalf("expected ErrTerminated, got %v", err)
	}
	if errors.Is(err, ErrLaunch) {
		t.Error("a killed scan must not count as a launch failure")
	}
	want := []Detection{{Path: "/home/user/a.exe", Label: "Eicar-Test-Signature"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %+v, want %+v", got, want)
	}
	if fallback.calls != 0 {
		t.Error("the next engine must not run after clamscan produced results")
	}
	if chain.Name() != NameClamAV {
		t.Errorf("Name() = %q, want %q", chain.Name(), NameClamAV)
	}
}

func TestDefender_Scan(t *testing.T) {
	scanner := &fakeThreatScanner{
		threats: []defender.Threat{
			{Resource: `C:\Temp\eicar.com`, Name: "Virus:DOS/EICAR_Test_File"},
		},
	}

	got, err := NewDefender(scanner).Scan(context.Background(), []string{`C:\`})
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}
	want := []Detection{{Path: `C:\Temp\eicar.com`, Label: "Virus:DOS/EICAR_Test_File"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %+v, want %+v", got, want)
	}
}

func TestDefender_Scan_LaunchFailure(t *testing.T) {
	scanner := &fakeThreatScanner{err: fmt.Errorf("%w: no powershell", defender.ErrLaunchFailed)}

	_, err := NewDefender(scanner).Scan(context.Background(), []string{`C:\`})
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got %v", err)
	}
}
