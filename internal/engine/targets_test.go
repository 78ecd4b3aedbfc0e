package engine

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"1", ModeQuick, false},
		{"quick", ModeQuick, false},
		{" 2 ", ModeFull, false},
		{"FULL", ModeFull, false},
		{"3", ModeCustom, false},
		{"custom", ModeCustom, false},
		{"4", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMode) {
					t.Errorf("expected ErrInvalidMode, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveTargets(t *testing.T) {
	volumes := func() ([]string, error) { return []string{"/", "/mnt/data"}, nil }

	tests := []struct {
		name    string
		opts    TargetOptions
		want    []string
		wantErr bool
	}{
		{
			name: "quick scans home",
			opts: TargetOptions{Mode: ModeQuick, Home: "/home/user"},
			want: []string{"/home/user"},
		},
		{
			name: "empty mode defaults to quick",
			opts: TargetOptions{Home: "/home/user"},
			want: []string{"/home/user"},
		},
		{
			name: "full scans every volume",
			opts: TargetOptions{Mode: ModeFull, Volumes: volumes},
			want: []string{"/", "/mnt/data"},
		},
		{
			name: "custom existing path",
			opts: TargetOptions{
				Mode:       ModeCustom,
				CustomPath: "/srv/www",
				Home:       "/home/user",
				Exists:     fakeExists("/srv/www"),
			},
			want: []string{"/srv/www"},
		},
		{
			name: "custom missing path falls back to home",
			opts: TargetOptions{
				Mode:       ModeCustom,
				CustomPath: "/does/not/exist",
				Home:       "/home/user",
				Exists:     fakeExists(),
			},
			want: []string{"/home/user"},
		},
		{
			name: "explicit paths override mode",
			opts: TargetOptions{
				Mode:     ModeFull,
				Explicit: []string{"/a", "/a/b"},
				Volumes:  volumes,
			},
			want: []string{"/a", "/a/b"},
		},
		{
			name: "volume enumeration error",
			opts: TargetOptions{
				Mode:    ModeFull,
				Volumes: func() ([]string, error) { return nil, errors.New("boom") },
			},
			wantErr: true,
		},
		{
			name:    "unknown mode",
			opts:    TargetOptions{Mode: "deep", Home: "/home/user"},
			wantErr: true,
		},
		{
			name:    "quick without home",
			opts:    TargetOptions{Mode: ModeQuick},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTargets(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveTargets() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveTargets() = %v, want %v", got, tt.want)
			}
		})
	}
}
