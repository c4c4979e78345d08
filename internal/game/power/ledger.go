// Package power tracks cumulative per-card power modifiers and computes
// effective power. Entries are round-scoped: the match resets the ledger
// at every round start and purges entries when a card leaves the field.
package power

// Key identifies one ledger entry: a card instance on a participant's
// side of the field.
type Key struct {
	Owner    string
	Instance string
}

// Ledger maps card instances to cumulative integer power deltas.
// Not safe for concurrent use; the owning match serializes access.
type Ledger struct {
	deltas map[Key]int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{deltas: make(map[Key]int)}
}

// Add accumulates delta for the given card instance.
func (l *Ledger) Add(owner, instance string, delta int) {
	if delta == 0 {
		return
	}
	l.deltas[Key{Owner: owner, Instance: instance}] += delta
}

// Delta returns the accumulated delta for the given card instance.
func (l *Ledger) Delta(owner, instance string) int {
	return l.deltas[Key{Owner: owner, Instance: instance}]
}

// Purge removes the entry for a card that left the field.
func (l *Ledger) Purge(owner, instance string) {
	delete(l.deltas, Key{Owner: owner, Instance: instance})
}

// Reset clears all entries. Called at round start.
func (l *Ledger) Reset() {
	l.deltas = make(map[Key]int)
}

// Len reports the number of live entries.
func (l *Ledger) Len() int {
	return len(l.deltas)
}

// Snapshot returns a copy of all entries for read-only inspection.
func (l *Ledger) Snapshot() map[Key]int {
	out := make(map[Key]int, len(l.deltas))
	for k, v := range l.deltas {
		out[k] = v
	}
	return out
}

// Effective combines a card's base power with the external buff delta,
// the environment delta and the ledger delta. Never negative.
func Effective(base, buffDelta, envDelta, ledgerDelta int) int {
	p := base + buffDelta + envDelta + ledgerDelta
	if p < 0 {
		return 0
	}
	return p
}
