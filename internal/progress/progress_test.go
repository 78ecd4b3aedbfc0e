package progress

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"
)

func newTestSignal(now func() time.Time) *Signal {
	opts := []Option{WithRand(rand.New(rand.NewPCG(3, 9)))}
	if now != nil {
		opts = append(opts, WithClock(now))
	}
	return New(opts...)
}

func TestSignal_MonotonicAndCapped(t *testing.T) {
	s := newTestSignal(nil)

	prev := 0.0
	for i := 0; i < 2000; i++ {
		s.Step()
		p := s.Snapshot().Percent
		if p < prev {
			t.Fatalf("percent decreased from %v to %v at step %d", prev, p, i)
		}
		if p > ceiling {
			t.Fatalf("percent %v exceeded ceiling before Finish", p)
		}
		prev = p
	}
	if prev < 90 {
		t.Errorf("expected estimate to approach the ceiling, got %v", prev)
	}
	if s.Snapshot().Done {
		t.Error("Done must be false before Finish")
	}
}

func TestSignal_FinishReachesHundred(t *testing.T) {
	s := newTestSignal(nil)
	for i := 0; i < 10; i++ {
		s.Step()
	}
	before := s.Snapshot().Percent

	s.Finish()
	if s.Snapshot().Done {
		t.Fatal("Done should wait for the percent to reach 100")
	}

	steps := 0
	for !s.Snapshot().Done {
		s.Step()
		steps++
		if steps > 20 {
			t.Fatal("signal did not complete after Finish")
		}
	}

	st := s.Snapshot()
	if st.Percent != 100 {
		t.Errorf("Percent = %v, want 100", st.Percent)
	}
	if st.Percent < before {
		t.Error("percent decreased after Finish")
	}
	s.Step()
	if s.Snapshot().Percent != 100 {
		t.Error("percent must stay at 100")
	}
}

func TestSignal_ScannedEstimate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	s := newTestSignal(func() time.Time { return now })

	if got := s.Snapshot().Scanned; got != 0 {
		t.Errorf("Scanned at 0%% = %d, want 0", got)
	}

	s.Finish()
	for !s.Snapshot().Done {
		s.Step()
	}
	now = start.Add(10 * time.Second)

	st := s.Snapshot()
	if st.Elapsed != 10*time.Second {
		t.Errorf("Elapsed = %v, want 10s", st.Elapsed)
	}
	if st.Scanned < int64(minSpeed*10) || st.Scanned > int64(maxSpeed*10) {
		t.Errorf("Scanned = %d, want within [%v, %v]", st.Scanned, minSpeed*10, maxSpeed*10)
	}
}

func TestDrive_StopsWhenDone(t *testing.T) {
	s := newTestSignal(nil)
	s.Finish()

	done := make(chan struct{})
	go func() {
		Drive(context.Background(), s, time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Drive did not return after completion")
	}
	if !s.Snapshot().Done {
		t.Error("signal should be complete")
	}
}

func TestDrive_StopsOnCancel(t *testing.T) {
	s := newTestSignal(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Drive(ctx, s, time.Millisecond)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Drive did not return after cancel")
	}
	if s.Snapshot().Done {
		t.Error("signal should not be complete without Finish")
	}
}
