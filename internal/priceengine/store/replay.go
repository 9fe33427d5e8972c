package store

// LatestAsOf scans entries (oldest-first, as loaded from a log) and returns
// the last one whose height does not exceed atHeight: walk from the most
// recent entry and stop at the first one at or before atHeight.
//
// This resolves "value as of a given point" the way a historical-state
// reader over a temporal key-value store would: the latest recorded
// value not newer than the query point, here a height in an in-memory
// deque backed by one of the three flat-file logs.
func LatestAsOf[T any](entries []T, atHeight uint64, heightOf func(T) uint64) (T, bool) {
	var zero T
	for i := len(entries) - 1; i >= 0; i-- {
		if heightOf(entries[i]) <= atHeight {
			return entries[i], true
		}
	}
	return zero, false
}

// FindExact scans entries newest-first and returns the first one for which
// match returns true, stopping (per the canonical break-bug resolution) as
// soon as an entry strictly older than the entries we still care about is
// reached. stopBefore reports whether the scan should give up at a given
// entry without a match (used by rollback lookups that must not run past
// the start of the window they're searching).
func FindExact[T any](entries []T, match func(T) bool, stopBefore func(T) bool) (T, bool) {
	var zero T
	for i := len(entries) - 1; i >= 0; i-- {
		if match(entries[i]) {
			return entries[i], true
		}
		if stopBefore != nil && stopBefore(entries[i]) {
			break
		}
	}
	return zero, false
}

// DropOlderThan implements index-based prefix-drop pruning: entries are
// assumed height-ascending, so the retained suffix is a single
// contiguous slice and no element is ever mutated during the scan.
func DropOlderThan[T any](entries []T, heightOf func(T) uint64, minHeight uint64) ([]T, bool) {
	cut := 0
	for cut < len(entries) && heightOf(entries[cut]) < minHeight {
		cut++
	}
	if cut == 0 {
		return entries, false
	}
	out := make([]T, len(entries)-cut)
	copy(out, entries[cut:])
	return out, true
}
