package game

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSchedulerStartsStopped(t *testing.T) {
	s := NewScheduler()
	if s.IsRunning() {
		t.Fatal("new scheduler should be stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait on stopped scheduler = %v, want deadline exceeded", err)
	}
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	s := NewScheduler()
	if !s.Start() {
		t.Error("first Start should report a transition")
	}
	if s.Start() {
		t.Error("second Start should not report a transition")
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running")
	}

	s.Stop()
	s.Stop()
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}

func TestSchedulerWaitWakesOnStart(t *testing.T) {
	s := NewScheduler()

	done := make(chan error, 1)
	go func() {
		done <- s.Wait(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Start")
	case <-time.After(20 * time.Millisecond):
	}

	s.Start()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Start")
	}
}

func TestSchedulerWaitReturnsImmediatelyWhenRunning(t *testing.T) {
	s := NewScheduler()
	s.Start()
	if err := s.Wait(context.Background()); err != nil {
		t.Errorf("Wait = %v, want nil", err)
	}
}

func TestSchedulerStopIfQuiet(t *testing.T) {
	s := NewScheduler()
	s.Start()

	epoch := s.Epoch()
	// A stimulus arrives between the idle check and the stop.
	s.Start()
	if s.StopIfQuiet(epoch) {
		t.Error("StopIfQuiet should refuse a stale epoch")
	}
	if !s.IsRunning() {
		t.Fatal("scheduler should still be running")
	}

	if !s.StopIfQuiet(s.Epoch()) {
		t.Error("StopIfQuiet should stop with the current epoch")
	}
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
	if s.StopIfQuiet(s.Epoch()) {
		t.Error("StopIfQuiet on a stopped scheduler should report false")
	}
}

func TestSchedulerRestartAfterStop(t *testing.T) {
	s := NewScheduler()
	s.Start()
	s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Fatal("Wait should block after Stop")
	}

	if !s.Start() {
		t.Error("Start after Stop should report a transition")
	}
	if err := s.Wait(context.Background()); err != nil {
		t.Errorf("Wait = %v, want nil", err)
	}
}
