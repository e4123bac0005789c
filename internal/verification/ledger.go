package verification

import (
	"sort"
	"sync"
	"time"

	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
)

// Ledger tracks which methods one identity has completed and the running
// total. Safe for concurrent use.
//
// The total always equals the sum of record points, a method completes at
// most once, and a stored record's points never change.
type Ledger struct {
	mu        sync.Mutex
	identity  domain.IdentityKey
	records   map[string]Record
	total     int
	version   int64
	updatedAt time.Time
	clock     func() time.Time

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock overrides time.Now for completion timestamps.
func WithClock(clock func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// NewLedger returns an empty ledger for identity.
func NewLedger(identity domain.IdentityKey, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		identity: identity,
		records:  make(map[string]Record),
		clock:    time.Now,
		subs:     make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Identity returns the owner of the ledger.
func (l *Ledger) Identity() domain.IdentityKey {
	return l.identity
}

// Complete records methodID as completed with points, timestamped by the
// ledger clock. See CompleteAt.
func (l *Ledger) Complete(methodID string, category Category, points int) (Record, bool, error) {
	return l.CompleteAt(methodID, category, points, l.clock())
}

// CompleteAt inserts a record completed at at. If methodID is already
// completed the stored record is returned unchanged with inserted=false.
func (l *Ledger) CompleteAt(methodID string, category Category, points int, at time.Time) (rec Record, inserted bool, err error) {
	if methodID == "" {
		return Record{}, false, dErrors.New(dErrors.CodeInvalidInput, "method id is required")
	}
	if !category.IsValid() {
		return Record{}, false, dErrors.New(dErrors.CodeInvalidInput, "unknown category: "+string(category))
	}
	if points < 0 {
		return Record{}, false, dErrors.New(dErrors.CodeInvalidInput, "points must not be negative")
	}

	l.mu.Lock()
	if existing, ok := l.records[methodID]; ok {
		l.mu.Unlock()
		return existing, false, nil
	}
	rec = Record{
		MethodID:    methodID,
		Category:    category,
		Completed:   true,
		CompletedAt: at.UTC(),
		Points:      points,
	}
	l.records[methodID] = rec
	l.total += points
	change := l.bumpLocked(ChangeCompleted, methodID, category, points, at)
	l.mu.Unlock()

	l.notify(change)
	return rec, true, nil
}

// Reset removes methodID and subtracts its stored points. Returns false when
// the method was not completed.
func (l *Ledger) Reset(methodID string) bool {
	l.mu.Lock()
	rec, ok := l.records[methodID]
	if !ok {
		l.mu.Unlock()
		return false
	}
	delete(l.records, methodID)
	l.total -= rec.Points
	change := l.bumpLocked(ChangeReset, methodID, rec.Category, rec.Points, l.clock())
	l.mu.Unlock()

	l.notify(change)
	return true
}

// ResetAll clears every record. Returns the number of records removed; an
// already empty ledger is left as is.
func (l *Ledger) ResetAll() int {
	l.mu.Lock()
	n := len(l.records)
	if n == 0 {
		l.mu.Unlock()
		return 0
	}
	removed := l.total
	l.records = make(map[string]Record)
	l.total = 0
	change := l.bumpLocked(ChangeResetAll, "", "", removed, l.clock())
	l.mu.Unlock()

	l.notify(change)
	return n
}

// IsCompleted reports whether methodID has a record.
func (l *Ledger) IsCompleted(methodID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.records[methodID]
	return ok
}

// StatusOf returns the record for methodID, if any.
func (l *Ledger) StatusOf(methodID string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[methodID]
	return rec, ok
}

// Total returns the sum of record points.
func (l *Ledger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Version returns the mutation counter.
func (l *Ledger) Version() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

// Records returns completed records sorted by method id.
func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sortedLocked()
}

// Snapshot captures the full ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		Identity:  l.identity,
		Records:   l.sortedLocked(),
		Total:     l.total,
		Version:   l.version,
		UpdatedAt: l.updatedAt,
	}
}

// Restore replaces the ledger state with snap verbatim. The snapshot is
// rejected, leaving the ledger untouched, if its records are malformed or its
// total is not their sum.
func (l *Ledger) Restore(snap Snapshot) error {
	if err := ValidateSnapshot(snap); err != nil {
		return err
	}
	records := make(map[string]Record, len(snap.Records))
	for _, r := range snap.Records {
		records[r.MethodID] = r
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = records
	l.total = snap.Total
	l.version = snap.Version
	l.updatedAt = snap.UpdatedAt
	return nil
}

// Subscribe registers fn to receive every effective mutation. fn runs on the
// mutating goroutine after the ledger lock is released and must not block.
func (l *Ledger) Subscribe(fn func(Change)) (unsubscribe func()) {
	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.subMu.Lock()
			delete(l.subs, id)
			l.subMu.Unlock()
		})
	}
}

// ValidateSnapshot checks record shape and that the total is the record sum.
func ValidateSnapshot(snap Snapshot) error {
	seen := make(map[string]struct{}, len(snap.Records))
	sum := 0
	for _, r := range snap.Records {
		if r.MethodID == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "snapshot record without method id")
		}
		if r.Points < 0 {
			return dErrors.New(dErrors.CodeInvariantViolation, "snapshot record with negative points: "+r.MethodID)
		}
		if _, dup := seen[r.MethodID]; dup {
			return dErrors.New(dErrors.CodeInvariantViolation, "snapshot has duplicate method: "+r.MethodID)
		}
		seen[r.MethodID] = struct{}{}
		sum += r.Points
	}
	if sum != snap.Total {
		return dErrors.New(dErrors.CodeInvariantViolation, "snapshot total does not match record points")
	}
	return nil
}

// RepairSnapshot returns snap with duplicate and malformed records dropped
// and the total recomputed from what remains.
func RepairSnapshot(snap Snapshot) Snapshot {
	seen := make(map[string]struct{}, len(snap.Records))
	records := make([]Record, 0, len(snap.Records))
	total := 0
	for _, r := range snap.Records {
		if r.MethodID == "" || r.Points < 0 {
			continue
		}
		if _, dup := seen[r.MethodID]; dup {
			continue
		}
		seen[r.MethodID] = struct{}{}
		records = append(records, r)
		total += r.Points
	}
	sort.Slice(records, func(i, j int) bool { return records[i].MethodID < records[j].MethodID })
	snap.Records = records
	snap.Total = total
	return snap
}

// Resets lists the removals a ledger made since its last save, by time.
type Resets struct {
	Methods map[string]time.Time
	All     time.Time
}

// Note records a reset or reset-all change.
func (r *Resets) Note(c Change) {
	switch c.Kind {
	case ChangeReset:
		if r.Methods == nil {
			r.Methods = make(map[string]time.Time)
		}
		r.Methods[c.MethodID] = c.OccurredAt
	case ChangeResetAll:
		r.All = c.OccurredAt
	}
}

// covers reports whether rec was completed before a later reset removed it.
func (r Resets) covers(rec Record) bool {
	if !r.All.IsZero() && !rec.CompletedAt.After(r.All) {
		return true
	}
	at, ok := r.Methods[rec.MethodID]
	return ok && !rec.CompletedAt.After(at)
}

// MergeSnapshots folds local into stored after a concurrent write. Stored
// records survive unless resets removed them after they were completed, and
// local records missing from stored are added with their original completion
// time and points. The result's version is above both inputs.
func MergeSnapshots(stored, local Snapshot, resets Resets) Snapshot {
	stored = RepairSnapshot(stored)
	seen := make(map[string]struct{}, len(stored.Records))
	records := make([]Record, 0, len(stored.Records)+len(local.Records))
	total := 0
	for _, r := range stored.Records {
		if resets.covers(r) {
			continue
		}
		seen[r.MethodID] = struct{}{}
		records = append(records, r)
		total += r.Points
	}
	for _, r := range local.Records {
		if _, ok := seen[r.MethodID]; ok {
			continue
		}
		seen[r.MethodID] = struct{}{}
		records = append(records, r)
		total += r.Points
	}
	sort.Slice(records, func(i, j int) bool { return records[i].MethodID < records[j].MethodID })

	merged := Snapshot{
		Identity:  local.Identity,
		Records:   records,
		Total:     total,
		Version:   max(stored.Version, local.Version) + 1,
		UpdatedAt: local.UpdatedAt,
	}
	if stored.UpdatedAt.After(merged.UpdatedAt) {
		merged.UpdatedAt = stored.UpdatedAt
	}
	return merged
}

func (l *Ledger) bumpLocked(kind ChangeKind, methodID string, category Category, points int, at time.Time) Change {
	l.version++
	l.updatedAt = at.UTC()
	return Change{
		Identity:   l.identity,
		Kind:       kind,
		MethodID:   methodID,
		Category:   category,
		Points:     points,
		Total:      l.total,
		Version:    l.version,
		OccurredAt: l.updatedAt,
	}
}

func (l *Ledger) sortedLocked() []Record {
	out := make([]Record, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MethodID < out[j].MethodID })
	return out
}

func (l *Ledger) notify(change Change) {
	l.subMu.Lock()
	subs := make([]func(Change), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.subMu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
}
