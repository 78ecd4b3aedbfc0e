package clamav

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/clean-dependency-project/cyberscan/internal/command"
)

const testVersion = "ClamAV 1.5.1/27805/Mon Oct 27 09:50:30 2025"

// mockExitError simulates an exec.ExitError
type mockExitError struct {
	code int
}

func (e *mockExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *mockExitError) ExitCode() int {
	return e.code
}

// mockResponse represents a single call response
type mockResponse struct {
	output []byte
	err    error
}

// mockCommandRunnerMulti returns different responses per call
type mockCommandRunnerMulti struct {
	responses []mockResponse
	callCount int
	calls     [][]string
	onCall    func(call int)
}

func (m *mockCommandRunnerMulti) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if m.onCall != nil {
		m.onCall(m.callCount)
	}
	if m.callCount >= len(m.responses) {
		return nil, fmt.Errorf("unexpected call %d", m.callCount)
	}
	resp := m.responses[m.callCount]
	m.callCount++
	return resp.output, resp.err
}

func TestBuildArgs(t *testing.T) {
	args := buildArgs([]string{"/home/user", "/tmp"}, []string{"--max-filesize=100M"})

	expected := []string{
		"-r",
		"--infected",
		"--no-summary",
		"--max-filesize=100M",
		"/home/user",
		"/tmp",
	}

	if !reflect.DeepEqual(args, expected) {
		t.Errorf("buildArgs() = %v, want %v", args, expected)
	}
}

func TestNewLocalScanner_DefaultBinary(t *testing.T) {
	s := NewLocalScanner(&command.MockRunner{}, "", nil, nil)
	if s.binary != DefaultBinary {
		t.Errorf("binary = %q, want %q", s.binary, DefaultBinary)
	}
}

func TestLocalScanner_Scan_Clean(t *testing.T) {
	runner := &mockCommandRunnerMulti{
		responses: []mockResponse{
			{output: []byte(testVersion + "\n")}, // clamscan --version
			{output: nil},                        // clamscan scan
		},
	}

	scanner := NewLocalScanner(runner, "", nil, nil)

	result, err := scanner.Scan(context.Background(), []string{"/home/user"})
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}

	if len(result.Infections) != 0 {
		t.Errorf("expected clean result, got %v", result.Infections)
	}
	if result.Metadata.EngineVersion != testVersion {
		t.Errorf("EngineVersion = %q, want %q", result.Metadata.EngineVersion, testVersion)
	}
	if result.Metadata.DatabaseDate != "Mon Oct 27 09:50:30 2025" {
		t.Errorf("DatabaseDate = %q", result.Metadata.DatabaseDate)
	}

	wantCall := []string{"clamscan", "-r", "--infected", "--no-summary", "/home/user"}
	if !reflect.DeepEqual(runner.calls[1], wantCall) {
		t.Errorf("scan call = %v, want %v", runner.calls[1], wantCall)
	}
}

func TestLocalScanner_Scan_Infected(t *testing.T) {
	runner := &mockCommandRunnerMulti{
		responses: []mockResponse{
			{output: []byte(testVersion)},
			{
				output: []byte("/home/user/a.exe: Eicar-Test-Signature FOUND\n/tmp/b.bin: Trojan.Generic FOUND\n"),
				err:    &mockExitError{code: 1},
			},
		},
	}

	scanner := NewLocalScanner(runner, "", nil, nil)

	result, err := scanner.Scan(context.Background(), []string{"/home/user", "/tmp"})
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}

	want := []Infection{
		{Path: "/home/user/a.exe", Signature: "Eicar-Test-Signature"},
		{Path: "/tmp/b.bin", Signature: "Trojan.Generic"},
	}
	if !reflect.DeepEqual(result.Infections, want) {
		t.Errorf("Infections = %+v, want %+v", result.Infections, want)
	}
	if result.Metadata.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", result.Metadata.ExitCode)
	}
}

func TestLocalScanner_Scan_ErrorExitKeepsInfections(t *testing.T) {
	runner := &mockCommandRunnerMulti{
		responses: []mockResponse{
			{output: []byte(testVersion)},
			{
				output: []byte("/srv/x.js: JS.Phish FOUND\n"),
				err:    &mockExitError{code: 2},
			},
		},
	}

	result, err := NewLocalScanner(runner, "", nil, nil).Scan(context.Background(), []string{"/srv"})
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}
	if len(result.Infections) != 1 {
		t.Fatalf("expected 1 infection, got %d", len(result.Infections))
	}
	if result.Metadata.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", result.Metadata.ExitCode)
	}
}

func TestLocalScanner_Scan_LaunchFailure(t *testing.T) {
	runner := &command.MockRunner{
		Err: errors.New("exec: \"clamscan\": executable file not found in $PATH"),
	}

	_, err := NewLocalScanner(runner, "", nil, nil).Scan(context.Background(), []string{"/tmp"})
	if !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("expected ErrLaunchFailed, got %v", err)
	}
	if runner.CallCount() != 1 {
		t.Errorf("expected scan to stop after version probe, got %d calls", runner.CallCount())
	}
}

func TestLocalScanner_Scan_VersionFailureIsNotFatal(t *testing.T) {
	runner := &mockCommandRunnerMulti{
		responses: []mockResponse{
			{output: nil, err: &mockExitError{code: 2}},
			{output: []byte("/tmp/x: Eicar-Signature FOUND\n"), err: &mockExitError{code: 1}},
		},
	}

	result, err := NewLocalScanner(runner, "", nil, nil).Scan(context.Background(), []string{"/tmp"})
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}
	if result.Metadata.EngineVersion != "unknown" {
		t.Errorf("EngineVersion = %q, want unknown", result.Metadata.EngineVersion)
	}
	if len(result.Infections) != 1 {
		t.Errorf("expected 1 infection, got %d", len(result.Infections))
	}
}

func TestLocalScanner_Scan_InterruptReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &mockCommandRunnerMulti{
		responses: []mockResponse{
			{output: []byte(testVersion)},
			{
				output: []byte("/home/user/a.exe: Eicar-Test-Signature FOUND\n/home/user/partial"),
				err:    errors.New("signal: killed"),
			},
		},
		onCall: func(call int) {
			if call == 1 {
				cancel()
			}
		},
	}

	result, err := NewLocalScanner(runner, "", nil, nil).Scan(ctx, []string{"/home/user"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	want := []Infection{{Path: "/home/user/a.exe", Signature: "Eicar-Test-Signature"}}
	if !reflect.DeepEqual(result.Infections, want) {
		t.Errorf("Infections = %+v, want %+v", result.Infections, want)
	}
}

func TestLocalScanner_Scan_KilledBySignalKeepsInfections(t *testing.T) {
	runner := &mockCommandRunnerMulti{
		responses: []mockResponse{
			{output: []byte(testVersion)},
			{
				output: []byte("/home/user/a.exe: Eicar-Test-Signature FOUND\n"),
				err:    &mockExitError{code: -1},
			},
		},
	}

	result, err := NewLocalScanner(runner, "", nil, nil).Scan(context.Background(), []string{"/home/user"})
	if !errors.Is(err, ErrTerminated) {
		t.Fatalf("expected ErrTerminated, got %v", err)
	}
	if errors.Is(err, ErrLaunchFailed) {
		t.Error("a process that ran must not be reported as a launch failure")
	}
	want := []Infection{{Path: "/home/user/a.exe", Signature: "Eicar-Test-Signature"}}
	if !reflect.DeepEqual(result.Infections, want) {
		t.Errorf("Infections = %+v, want %+v", result.Infections, want)
	}
	if result.Metadata.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", result.Metadata.ExitCode)
	}
}

func TestLocalScanner_Scan_VersionKilledIsNotLaunchFailure(t *testing.T) {
	runner := &mockCommandRunnerMulti{
		responses: []mockResponse{
			{err: &mockExitError{code: -1}},
			{output: []byte("/tmp/x: Eicar-Signature FOUND\n"), err: &mockExitError{code: 1}},
		},
	}

	result, err := NewLocalScanner(runner, "", nil, nil).Scan(context.Background(), []string{"/tmp"})
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}
	if len(result.Infections) != 1 {
		t.Errorf("expected 1 infection, got %d", len(result.Infections))
	}
}

func TestLocalScanner_Scan_NoTargets(t *testing.T) {
	runner := &command.MockRunner{}
	_, err := NewLocalScanner(runner, "", nil, nil).Scan(context.Background(), nil)
	if !errors.Is(err, ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
	if runner.CallCount() != 0 {
		t.Errorf("expected no commands, got %d", runner.CallCount())
	}
}
