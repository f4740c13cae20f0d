// Package ledger keeps the in-memory, append-only record of every statement a
// session ran or was refused.
package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/querybot/querybot/internal/observability"
)

// Outcome is the part of a run result the ledger keeps.
type Outcome interface {
	StatusText() string
	RowCount() int
}

type Entry struct {
	ID         string    `json:"id"`
	Request    string    `json:"request"`
	Statement  string    `json:"sql"`
	Confirmed  bool      `json:"confirmed"`
	Status     string    `json:"status"`
	RowCount   int       `json:"row_count"`
	RecordedAt time.Time `json:"recorded_at"`
}

type Ledger struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

func New() *Ledger {
	return &Ledger{now: time.Now}
}

// Record appends one entry. Confirmed is stored exactly as the caller passed
// it; refused runs are therefore recorded unconfirmed.
func (l *Ledger) Record(request, statement string, confirmed bool, outcome Outcome) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Request:   request,
		Statement: statement,
		Confirmed: confirmed,
	}
	if outcome != nil {
		entry.Status = outcome.StatusText()
		entry.RowCount = outcome.RowCount()
	}

	l.mu.Lock()
	entry.RecordedAt = l.now().UTC()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	observability.ObserveLedgerEntry()
	return entry
}

// All returns a copy of the entries in insertion order.
func (l *Ledger) All() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
