package stream

import (
	"sync"
	"time"
)

// DefaultJournalSize is the number of entries a Journal keeps by default.
const DefaultJournalSize = 1000

// EntryKind classifies a journal Entry.
type EntryKind int

const (
	EntryInfo EntryKind = iota
	EntrySent
	EntryReceived
	EntryImmediate
	EntryError
)

func (k EntryKind) String() string {
	switch k {
	case EntryInfo:
		return "info"
	case EntrySent:
		return "sent"
	case EntryReceived:
		return "received"
	case EntryImmediate:
		return "immediate"
	case EntryError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one line of the session log.
type Entry struct {
	Time time.Time
	Kind EntryKind
	Text string
}

func (e Entry) String() string {
	switch e.Kind {
	case EntrySent:
		return "→ " + e.Text
	case EntryReceived:
		return "← " + e.Text
	case EntryImmediate:
		return "Sent immediate: " + e.Text
	case EntryError:
		return "ERROR: " + e.Text
	default:
		return e.Text
	}
}

// Journal is a bounded, chronological log. When full, the oldest entry is
// dropped.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	size    int
}

// NewJournal creates a Journal holding at most size entries.
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = DefaultJournalSize
	}

	return &Journal{entries: make([]Entry, 0, min(size, 64)), size: size}
}

func (j *Journal) append(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.entries) < j.size {
		j.entries = append(j.entries, e)
		return
	}

	j.entries[j.start] = e
	j.start = (j.start + 1) % j.size
}

// Entries returns the retained entries, oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Entry, 0, len(j.entries))
	out = append(out, j.entries[j.start:]...)
	out = append(out, j.entries[:j.start]...)

	return out
}

// Len returns the number of retained entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.entries)
}

// Clear drops every entry.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = j.entries[:0]
	j.start = 0
}
