package processors

import (
	"errors"
	"sync"
	"time"

	"github.com/username/istisna/backend/src/models"
)

// ErrInvariantViolation marks an entry whose stored TRY value is not positive.
// Callers validate input before building entries, so hitting this is a
// programming error; the ledger declines the write instead of corrupting the
// running total.
var ErrInvariantViolation = errors.New("income entry violates ledger invariant")

// Ledger is the append-only, newest-first collection of income entries for one
// user session. Entries are never mutated or removed. addEntry is a
// read-modify-write of the cached total, so all access is serialized.
type Ledger struct {
	mu      sync.Mutex
	entries []models.IncomeEntry
	total   float64
	lastID  int64
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// NextID issues a monotonically increasing, timestamp-derived entry id.
// Millisecond timestamps collide under rapid insertion, so the last issued id
// is bumped when needed.
func (l *Ledger) NextID() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

// Add prepends an entry to the ledger. The entry must already carry its
// computed TryValue; a non-positive value is rejected as an invariant
// violation.
func (l *Ledger) Add(entry models.IncomeEntry) error {
	if entry.TryValue <= 0 {
		return ErrInvariantViolation
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]models.IncomeEntry{entry}, l.entries...)
	l.total += entry.TryValue
	return nil
}

// Total returns the cached sum of all TryValue fields.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Entries returns a newest-first snapshot of the ledger.
func (l *Ledger) Entries() []models.IncomeEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.IncomeEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// LedgerSet hands out one ledger per user id, creating it on first use.
type LedgerSet struct {
	mu      sync.Mutex
	ledgers map[int64]*Ledger
}

func NewLedgerSet() *LedgerSet {
	return &LedgerSet{ledgers: make(map[int64]*Ledger)}
}

func (s *LedgerSet) For(userID int64) *Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[userID]
	if !ok {
		l = NewLedger()
		s.ledgers[userID] = l
	}
	return l
}
