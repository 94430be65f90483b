// Package deliverylog keeps the ordered record of send outcomes for a run and
// converts it to and from CSV.
package deliverylog

import (
	"strings"
	"sync"

	"github.com/blockedby/autorecruit/internal/models"
)

// Log is an append-only, ordered sequence of entries. One dispatcher writes
// it; the mutex lets observers take snapshots while a run is in progress.
type Log struct {
	mu      sync.RWMutex
	entries []models.LogEntry
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Append records one outcome. Line breaks in free-text fields are stored as
// "\n" because CSV readers drop the "\r" of "\r\n".
func (l *Log) Append(e models.LogEntry) {
	e.AgencyName = normalizeNewlines(e.AgencyName)
	e.Detail = normalizeNewlines(e.Detail)
	e.Subject = normalizeNewlines(e.Subject)
	e.Preview = normalizeNewlines(e.Preview)

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

// Entries returns a copy of the entries in append order.
func (l *Log) Entries() []models.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Counts returns the number of sent and failed entries.
func (l *Log) Counts() (sent, failed int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		switch e.Status {
		case models.DeliveryStatusSent:
			sent++
		case models.DeliveryStatusFailed:
			failed++
		}
	}
	return sent, failed
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
