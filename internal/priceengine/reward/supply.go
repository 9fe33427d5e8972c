package reward

import "github.com/catapult-chain/priceengine/internal/priceengine/store"

// supplyLedger wraps the in-memory totalSupply deque.
type supplyLedger struct {
	initialSupply uint64
	entries       []store.SupplyEntry
}

// loadFrom seeds the ledger from a recovered log, pushing a genesis entry
// of initialSupply the first time the engine runs with an empty log.
func (l *supplyLedger) loadFrom(initialSupply uint64, entries []store.SupplyEntry) {
	l.initialSupply = initialSupply
	l.entries = entries
	if len(l.entries) == 0 {
		l.entries = append(l.entries, store.SupplyEntry{Height: 0, Supply: initialSupply, Increase: initialSupply})
	}
}

func (l *supplyLedger) current() uint64 {
	if len(l.entries) == 0 {
		return l.initialSupply
	}
	return l.entries[len(l.entries)-1].Supply
}

func (l *supplyLedger) append(e store.SupplyEntry) {
	l.entries = append(l.entries, e)
}

// at returns the entry recorded exactly at height, scanning newest to
// oldest and stopping once height is passed, the same stop-early pattern
// the rollback path uses to recover an epoch fee entry.
func (l *supplyLedger) at(height uint64) (store.SupplyEntry, bool) {
	return store.FindExact(
		l.entries,
		func(e store.SupplyEntry) bool { return e.Height == height },
		func(e store.SupplyEntry) bool { return height > e.Height },
	)
}

// removeAt deletes the entry recorded exactly at height. A rollback must
// fully undo the commit it reverses, including removing the supply
// record that commit appended — otherwise it leaks a stale entry that
// the next height reusing that slot would collide with.
func (l *supplyLedger) removeAt(height uint64) bool {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Height == height {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
		if height > l.entries[i].Height {
			return false
		}
	}
	return false
}
