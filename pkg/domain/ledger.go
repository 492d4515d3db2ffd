package domain

// Outcome is the recorded result of an attempted action.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Ledger maps action indices of a single task execution to their outcome.
// Indices that were never attempted (suppressed fallbacks, or actions after
// an abort) are absent.
type Ledger map[int]Outcome

// NewLedger returns an empty ledger.
func NewLedger() Ledger {
	return make(Ledger)
}

// Record writes the outcome for index i.
func (l Ledger) Record(i int, o Outcome) {
	l[i] = o
}

// Lookup returns the outcome at i and whether one was recorded.
func (l Ledger) Lookup(i int) (Outcome, bool) {
	o, ok := l[i]
	return o, ok
}

// Failed reports whether index i was attempted and failed.
// Negative or absent indices are never failed.
func (l Ledger) Failed(i int) bool {
	o, ok := l[i]
	return ok && o == OutcomeFailed
}

// Count returns how many entries carry the given outcome.
func (l Ledger) Count(o Outcome) int {
	n := 0
	for _, v := range l {
		if v == o {
			n++
		}
	}
	return n
}
