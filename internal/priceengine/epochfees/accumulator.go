// Package epochfees implements the epoch fee accumulator: the rolling
// pool of per-block transaction fees and the dividend frozen from it once
// per fee epoch.
package epochfees

import (
	"go.uber.org/zap"

	"github.com/catapult-chain/priceengine/internal/priceengine/mathutil"
	"github.com/catapult-chain/priceengine/internal/priceengine/store"
)

// Config holds the chain parameters the accumulator needs.
// FeeRecalcFreq is the epoch length, in blocks, between dividend
// refreshes; RetentionBlocks bounds how far back entries are kept once a
// height has advanced past them.
type Config struct {
	FeeRecalcFreq   uint64
	RetentionBlocks uint64
}

// Accumulator holds the in-memory epoch fee deque and the cached
// per-block dividend.
type Accumulator struct {
	cfg            Config
	entries        []store.EpochFeeEntry
	cachedDividend uint64
	log            *zap.Logger
}

// New returns an empty Accumulator. Call LoadFrom to seed it from a
// recovered log before serving height 0.
func New(cfg Config, log *zap.Logger) *Accumulator {
	if cfg.RetentionBlocks == 0 {
		cfg.RetentionBlocks = 100
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Accumulator{cfg: cfg, log: log}
}

// Entries returns the current in-memory deque, oldest first. Callers must
// not mutate the returned slice.
func (a *Accumulator) Entries() []store.EpochFeeEntry {
	return a.entries
}

// LoadFrom replays a recovered epoch fee log into the in-memory deque,
// rejecting any run of entries that isn't strictly height-ascending, and
// seeds the dividend cache from the most recent entry.
func (a *Accumulator) LoadFrom(entries []store.EpochFeeEntry) error {
	a.entries = nil
	a.cachedDividend = 0
	for _, e := range entries {
		if len(a.entries) > 0 && a.entries[len(a.entries)-1].Height >= e.Height {
			return &store.CorruptError{
				Table:  store.TableEpochFees,
				Reason: "entries are not strictly height-ascending",
			}
		}
		a.entries = append(a.entries, e)
	}
	if len(a.entries) > 0 {
		a.cachedDividend = a.entries[len(a.entries)-1].Dividend
	}
	return nil
}

// Dividend returns the per-block dividend in effect at height. On the
// commit path it is recomputed only on an epoch boundary (height %
// FeeRecalcFreq == 0), as round(lastCollected / FeeRecalcFreq); off a
// boundary, the cached value is returned unchanged. On the rollback path
// it is simply the dividend recorded in the most recent epoch fee entry.
func (a *Accumulator) Dividend(height uint64, rollback bool) uint64 {
	if rollback {
		if len(a.entries) == 0 {
			a.cachedDividend = 0
			return 0
		}
		a.cachedDividend = a.entries[len(a.entries)-1].Dividend
		return a.cachedDividend
	}
	if a.cfg.FeeRecalcFreq > 0 && height%a.cfg.FeeRecalcFreq == 0 {
		if len(a.entries) == 0 {
			a.cachedDividend = 0
			return 0
		}
		collected := a.entries[len(a.entries)-1].Collected
		a.cachedDividend = uint64(float64(collected)/float64(a.cfg.FeeRecalcFreq) + 0.5)
	}
	return a.cachedDividend
}

// CollectedSoFar returns the fee pool total carried into height: the
// Collected value of the latest entry strictly older than height, or 0
// if there is none.
func (a *Accumulator) CollectedSoFar(height uint64) uint64 {
	if height == 0 {
		return 0
	}
	if e, ok := store.LatestAsOf(a.entries, height-1, func(e store.EpochFeeEntry) uint64 { return e.Height }); ok {
		return e.Collected
	}
	return 0
}

// Commit appends a new epoch fee entry accumulating blockFee on top of the
// pool carried into height, at the dividend currently in effect, recording
// harvester as the block's harvester address. It returns the entry built
// for height, whether it was appended (false when a non-monotonic height
// caused the append to be skipped, which is logged, not fatal), and
// whether retention pruning requires the caller to rewrite the epoch fee
// log.
func (a *Accumulator) Commit(height uint64, harvester string, blockFee uint64) (entry store.EpochFeeEntry, appended bool, pruned bool) {
	collected, overflowed := mathutil.SafeAdd(a.CollectedSoFar(height), blockFee)
	if overflowed {
		a.log.Error("epoch fee pool overflowed uint64, clamping to max")
		collected = ^uint64(0)
	}
	entry = store.EpochFeeEntry{
		Height:    height,
		Collected: collected,
		Dividend:  a.Dividend(height, false),
		Harvester: harvester,
	}
	if len(a.entries) > 0 && a.entries[len(a.entries)-1].Height >= height {
		a.log.Warn("epoch fee entry height is not after the previous entry, skipping")
		return entry, false, false
	}
	a.entries = append(a.entries, entry)
	pruned = a.pruneRetention(height)
	return entry, true, pruned
}

// Rollback locates and removes the epoch fee entry recorded for height,
// using the rollback dividend and harvester as a tie-breaker alongside a
// stop-early exact-match search. A miss is a no-op, never an error.
func (a *Accumulator) Rollback(height uint64, harvester string) (store.EpochFeeEntry, bool) {
	dividend := a.Dividend(height, true)
	matched, ok := store.FindExact(
		a.entries,
		func(e store.EpochFeeEntry) bool {
			return e.Height == height && e.Dividend == dividend && e.Harvester == harvester
		},
		func(e store.EpochFeeEntry) bool { return height > e.Height },
	)
	if !ok {
		return store.EpochFeeEntry{}, false
	}
	for i := len(a.entries) - 1; i >= 0; i-- {
		if a.entries[i] == matched {
			a.entries = append(a.entries[:i], a.entries[i+1:]...)
			break
		}
	}
	return matched, true
}

// pruneRetention keeps only the last RetentionBlocks heights (height -
// RetentionBlocks + 1 through height) and drops every older entry. It
// reports whether anything was dropped.
func (a *Accumulator) pruneRetention(height uint64) bool {
	if height < a.cfg.RetentionBlocks {
		return false
	}
	minHeight := height - (a.cfg.RetentionBlocks - 1)
	out, changed := store.DropOlderThan(a.entries, func(e store.EpochFeeEntry) uint64 { return e.Height }, minHeight)
	a.entries = out
	return changed
}
