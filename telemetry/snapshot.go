package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flowtext/components"
	"github.com/pthm-cable/flowtext/config"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the particle field state for inspection or restore.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`

	CanvasWidth  int `json:"canvas_width"`
	CanvasHeight int `json:"canvas_height"`

	Text     string          `json:"text"`
	Tunables config.Tunables `json:"tunables"`

	Tick int32 `json:"tick"`

	// Pointer is nil when the pointer was absent.
	Pointer *PointState `json:"pointer,omitempty"`

	Particles []ParticleState `json:"particles"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// PointState is a JSON-friendly 2D point.
type PointState struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ParticleState holds one particle's complete state. Index order is the
// pool order.
type ParticleState struct {
	AnchorX float64 `json:"anchor_x"`
	AnchorY float64 `json:"anchor_y"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VelX    float64 `json:"vel_x"`
	VelY    float64 `json:"vel_y"`
	Mass    float64 `json:"mass"`
	Radius  float64 `json:"radius"`
	Regime  string  `json:"regime"`
}

// Validate checks that s can be restored into a live field: positive canvas
// dimensions, valid tunables, a finite pointer, and particles with finite
// vectors, positive mass, non-negative radius and a known regime.
func (s *Snapshot) Validate() error {
	if s.CanvasWidth <= 0 || s.CanvasHeight <= 0 {
		return fmt.Errorf("canvas %dx%d must be positive", s.CanvasWidth, s.CanvasHeight)
	}
	if err := s.Tunables.Validate(); err != nil {
		return fmt.Errorf("tunables: %w", err)
	}
	if s.Pointer != nil && !finite(s.Pointer.X, s.Pointer.Y) {
		return fmt.Errorf("pointer (%v, %v) is not finite", s.Pointer.X, s.Pointer.Y)
	}
	for i, p := range s.Particles {
		if err := p.validate(); err != nil {
			return fmt.Errorf("particle %d: %w", i, err)
		}
	}
	return nil
}

func (p ParticleState) validate() error {
	if !finite(p.AnchorX, p.AnchorY, p.X, p.Y, p.VelX, p.VelY) {
		return errors.New("non-finite anchor, position or velocity")
	}
	if !(p.Mass > 0) || math.IsInf(p.Mass, 1) {
		return fmt.Errorf("mass %v must be positive and finite", p.Mass)
	}
	if !(p.Radius >= 0) || math.IsInf(p.Radius, 1) {
		return fmt.Errorf("radius %v must be non-negative and finite", p.Radius)
	}
	switch p.Regime {
	case "", components.AnchorReturn.String(), components.MouseControlled.String():
	default:
		return fmt.Errorf("unknown regime %q", p.Regime)
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CaptureParticles converts a pool to its serializable form.
func CaptureParticles(pool []components.Particle) []ParticleState {
	states := make([]ParticleState, len(pool))
	for i := range pool {
		p := &pool[i]
		states[i] = ParticleState{
			AnchorX: p.Anchor.X,
			AnchorY: p.Anchor.Y,
			X:       p.Position.X,
			Y:       p.Position.Y,
			VelX:    p.Velocity.X,
			VelY:    p.Velocity.Y,
			Mass:    p.Mass,
			Radius:  p.Radius,
			Regime:  p.Regime.String(),
		}
	}
	return states
}

// RestoreParticles converts serialized states back into a pool.
func RestoreParticles(states []ParticleState) []components.Particle {
	pool := make([]components.Particle, len(states))
	for i, s := range states {
		regime := components.AnchorReturn
		if s.Regime == components.MouseControlled.String() {
			regime = components.MouseControlled
		}
		pool[i] = components.Particle{
			Anchor:   r2.Vec{X: s.AnchorX, Y: s.AnchorY},
			Position: r2.Vec{X: s.X, Y: s.Y},
			Velocity: r2.Vec{X: s.VelX, Y: s.VelY},
			Mass:     s.Mass,
			Radius:   s.Radius,
			Regime:   regime,
		}
	}
	return pool
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
