package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/flowtext/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSettled     BookmarkType = "settled"
	BookmarkDisturbance BookmarkType = "disturbance"
	BookmarkNaNRecovery BookmarkType = "nan_recovery"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the field's life.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	disturbanceFraction float64
	disturbanceMin      int

	// State tracking
	disturbed     bool // inside a disturbance episode
	activeWindows int  // consecutive active windows since the field last settled
}

// NewBookmarkDetector creates a detector with the given history size.
// Thresholds come from the global config.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 2 {
		historySize = 2
	}
	bc := config.Cfg().Bookmarks
	return &BookmarkDetector{
		history:             make([]WindowStats, historySize),
		historySize:         historySize,
		disturbanceFraction: bc.DisturbanceFraction,
		disturbanceMin:      bc.DisturbanceMin,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkNaNRecovery(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkDisturbance(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// disturbanceThreshold is the controlled-particle count that marks a disturbance.
func (bd *BookmarkDetector) disturbanceThreshold(particles int) int {
	threshold := int(bd.disturbanceFraction * float64(particles))
	if threshold < bd.disturbanceMin {
		threshold = bd.disturbanceMin
	}
	if threshold < 1 {
		threshold = 1
	}
	return threshold
}

func (bd *BookmarkDetector) checkNaNRecovery(stats WindowStats) *Bookmark {
	if stats.NaNResets == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkNaNRecovery,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d particles reset to anchor after non-finite update", stats.NaNResets),
	}
}

func (bd *BookmarkDetector) checkDisturbance(stats WindowStats) *Bookmark {
	threshold := bd.disturbanceThreshold(stats.Particles)
	if stats.PeakControlled < threshold {
		bd.disturbed = false
		return nil
	}
	if bd.disturbed {
		return nil
	}
	bd.disturbed = true

	return &Bookmark{
		Type:        BookmarkDisturbance,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d of %d particles under pointer control", stats.PeakControlled, stats.Particles),
	}
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if stats.IdlePauses == 0 {
		if stats.Active() {
			bd.activeWindows++
		}
		return nil
	}

	// The field paused this window; report it if anything had moved it.
	active := bd.activeWindows
	if stats.Active() {
		active++
	}
	bd.activeWindows = 0
	if active == 0 {
		return nil
	}

	var peak int
	for _, h := range bd.getHistory() {
		if h.PeakControlled > peak {
			peak = h.PeakControlled
		}
	}
	if stats.PeakControlled > peak {
		peak = stats.PeakControlled
	}

	return &Bookmark{
		Type:        BookmarkSettled,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Field settled after %d active windows (recent peak %d controlled)", active, peak),
	}
}
