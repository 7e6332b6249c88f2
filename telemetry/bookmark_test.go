package telemetry

import (
	"testing"

	"github.com/pthm-cable/flowtext/config"
)

func init() {
	config.MustInit("")
}

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Disturbance(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Quiet windows
	for i := 0; i < 3; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int32(i * 120), Particles: 400, PeakControlled: 2})
		if hasBookmark(bookmarks, BookmarkDisturbance) {
			t.Fatalf("window %d: unexpected disturbance", i)
		}
	}

	// Pointer sweeps through a third of the field
	bookmarks := bd.Check(WindowStats{WindowEndTick: 480, Particles: 400, PeakControlled: 130})
	if !hasBookmark(bookmarks, BookmarkDisturbance) {
		t.Error("expected disturbance bookmark")
	}

	// Still disturbed: no repeat
	bookmarks = bd.Check(WindowStats{WindowEndTick: 600, Particles: 400, PeakControlled: 150})
	if hasBookmark(bookmarks, BookmarkDisturbance) {
		t.Error("disturbance bookmark repeated within one episode")
	}

	// Calm, then disturbed again: re-armed
	bd.Check(WindowStats{WindowEndTick: 720, Particles: 400})
	bookmarks = bd.Check(WindowStats{WindowEndTick: 840, Particles: 400, PeakControlled: 200})
	if !hasBookmark(bookmarks, BookmarkDisturbance) {
		t.Error("expected disturbance bookmark after re-arm")
	}
}

func TestBookmarkDetector_DisturbanceMinimum(t *testing.T) {
	bd := NewBookmarkDetector(10)
	// 25% of 12 particles is 3, but the configured minimum is 8.
	bookmarks := bd.Check(WindowStats{Particles: 12, PeakControlled: 5})
	if hasBookmark(bookmarks, BookmarkDisturbance) {
		t.Error("disturbance below configured minimum")
	}
}

func TestBookmarkDetector_Settled(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEndTick: 120, Particles: 100, PeakControlled: 40})
	bd.Check(WindowStats{WindowEndTick: 240, Particles: 100, PeakControlled: 10})
	bookmarks := bd.Check(WindowStats{WindowEndTick: 360, Particles: 100, IdlePauses: 1})
	if !hasBookmark(bookmarks, BookmarkSettled) {
		t.Fatal("expected settled bookmark")
	}

	// Pausing again without activity is not news.
	bookmarks = bd.Check(WindowStats{WindowEndTick: 480, Particles: 100, IdlePauses: 1})
	if hasBookmark(bookmarks, BookmarkSettled) {
		t.Error("settled bookmark without preceding activity")
	}
}

func TestBookmarkDetector_NaNRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bookmarks := bd.Check(WindowStats{WindowEndTick: 120, Particles: 10, NaNResets: 3})
	if !hasBookmark(bookmarks, BookmarkNaNRecovery) {
		t.Error("expected nan_recovery bookmark")
	}
}
