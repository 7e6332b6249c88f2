package game

import (
	"context"
	"sync"
)

// Scheduler gates the tick loop. Drivers call Wait before each tick; the game
// stops the scheduler when the field is idle and any stimulus starts it again.
type Scheduler struct {
	mu      sync.Mutex
	running bool
	epoch   uint64        // bumped by every Start
	wake    chan struct{} // closed while running
}

// NewScheduler creates a stopped scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{wake: make(chan struct{})}
}

// Start runs the scheduler. It is idempotent and reports whether the
// scheduler was stopped before the call.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	if s.running {
		return false
	}
	s.running = true
	close(s.wake)
	return true
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if !s.running {
		return
	}
	s.running = false
	s.wake = make(chan struct{})
}

// Epoch returns a token for StopIfQuiet.
func (s *Scheduler) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// StopIfQuiet stops the scheduler only if Start has not been called since
// epoch was read, so a stimulus that raced with the idle check is not lost.
func (s *Scheduler) StopIfQuiet(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.epoch != epoch {
		return false
	}
	s.stopLocked()
	return true
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until the scheduler is running or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	wake := s.wake
	s.mu.Unlock()

	select {
	case <-wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
