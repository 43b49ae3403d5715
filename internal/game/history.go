package game

import (
	"time"

	"github.com/cardlang/cardlang-go/internal/game/model"
)

// HistoryEntry records one committed move and the state it produced. The
// entry with Turn 0 is the position after setup.
type HistoryEntry struct {
	Turn     int
	Player   int
	Move     model.Move
	Checksum string
	At       time.Time
}

// History keeps the most recent commits of a game in memory.
// A nil *History records nothing.
type History struct {
	limit   int
	entries []HistoryEntry
}

// NewHistory returns a history holding at most limit entries; 0 means no limit.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Record appends an entry, evicting the oldest one when full.
func (h *History) Record(e HistoryEntry) {
	if h == nil {
		return
	}
	h.entries = append(h.entries, e)
	if h.limit > 0 && len(h.entries) > h.limit {
		over := len(h.entries) - h.limit
		h.entries = append(h.entries[:0:0], h.entries[over:]...)
	}
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Last returns the newest entry.
func (h *History) Last() (HistoryEntry, bool) {
	if h.Len() == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Entries returns a copy of the retained entries, oldest first.
func (h *History) Entries() []HistoryEntry {
	if h == nil {
		return nil
	}
	return append([]HistoryEntry(nil), h.entries...)
}
