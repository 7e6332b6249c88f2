// Package telemetry provides windowed field statistics, bookmarking, and snapshots.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventResample EventType = iota
	EventIdlePause
	EventWake
	EventExplode
	EventNaNReset
)

// String returns the event name used in logs.
func (t EventType) String() string {
	switch t {
	case EventResample:
		return "resample"
	case EventIdlePause:
		return "idle_pause"
	case EventWake:
		return "wake"
	case EventExplode:
		return "explode"
	case EventNaNReset:
		return "nan_reset"
	default:
		return "unknown"
	}
}

// Event represents a single telemetry event.
type Event struct {
	Type EventType
	Tick int32

	// Optional fields depending on event type
	Count int    // particles affected (resample size, NaN resets)
	Text  string // text being sampled (resample)
}

// NewResampleEvent creates a resample event.
func NewResampleEvent(tick int32, particles int, text string) Event {
	return Event{Type: EventResample, Tick: tick, Count: particles, Text: text}
}

// NewIdlePauseEvent creates an event for the scheduler stopping on an idle field.
func NewIdlePauseEvent(tick int32) Event {
	return Event{Type: EventIdlePause, Tick: tick}
}

// NewWakeEvent creates an event for the scheduler restarting.
func NewWakeEvent(tick int32) Event {
	return Event{Type: EventWake, Tick: tick}
}

// NewExplodeEvent creates an explode event.
func NewExplodeEvent(tick int32, particles int) Event {
	return Event{Type: EventExplode, Tick: tick, Count: particles}
}

// NewNaNResetEvent creates an event for particles reset after a non-finite update.
func NewNaNResetEvent(tick int32, resets int) Event {
	return Event{Type: EventNaNReset, Tick: tick, Count: resets}
}
