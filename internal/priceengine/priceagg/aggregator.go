package priceagg

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/catapult-chain/priceengine/internal/priceengine/store"
)

// Config holds the chain parameters the aggregator needs. BlocksPer30Days
// sizes every sliding window and the retention horizon; EpochsPerYear
// scales a ladder rate into a per-epoch growth factor; MultiplierRecalcFreq
// gates how often the multiplier is actually recomputed versus served from
// cache; PublisherKey is the only public key whose price observations are
// accepted.
type Config struct {
	BlocksPer30Days      uint64
	EpochsPerYear        float64
	MultiplierRecalcFreq uint64
	PublisherKey         []byte
}

// Aggregator holds the in-memory deque of accepted price observations and
// the cached coin-generation multiplier. Every dependent of this package
// owns its own Aggregator instance rather than sharing global state.
type Aggregator struct {
	cfg               Config
	entries           []store.PriceEntry
	currentMultiplier float64
	log               *zap.Logger
}

// New returns an empty Aggregator. Call LoadFrom to seed it from a
// recovered log before serving height 0.
func New(cfg Config, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{cfg: cfg, log: log}
}

// Entries returns the current in-memory deque, oldest first. Callers must
// not mutate the returned slice.
func (a *Aggregator) Entries() []store.PriceEntry {
	return a.entries
}

// CurrentMultiplier returns the cached coin-generation multiplier without
// triggering a recompute.
func (a *Aggregator) CurrentMultiplier() float64 {
	return a.currentMultiplier
}

// LoadFrom replays a recovered price log, rebuilding both the in-memory
// deque and the multiplier cache. It resets currentMultiplier to 0 and
// recomputes it at every loaded height, then fails if the recomputed
// value disagrees with what was persisted, turning the replay into an
// executable checksum over the whole averaging/ladder pipeline rather
// than just a cache warm-up.
func (a *Aggregator) LoadFrom(entries []store.PriceEntry) error {
	a.entries = nil
	a.currentMultiplier = 0
	for _, e := range entries {
		a.entries = append(a.entries, e)
		a.pruneRetention(e.Height)
		got := a.Multiplier(e.Height, false)
		if !approxEqual(got, e.Multiplier) {
			return &store.CorruptError{
				Table:  store.TablePrices,
				Reason: "recomputed multiplier does not match recorded value at height " + itoa(e.Height),
			}
		}
	}
	return nil
}

func approxEqual(a, b float64) bool {
	const eps = 1e-6
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func itoa(h uint64) string {
	var buf [20]byte
	i := len(buf)
	if h == 0 {
		return "0"
	}
	for h > 0 {
		i--
		buf[i] = byte('0' + h%10)
		h /= 10
	}
	return string(buf[i:])
}

// VerifyPublisher reports whether senderKey matches the configured
// publisher key. This is the acceptance gate applied before the payload
// itself is ever inspected.
func (a *Aggregator) VerifyPublisher(senderKey []byte) bool {
	return bytes.Equal(senderKey, a.cfg.PublisherKey)
}

// AddPrice applies a commit-path price observation. It returns accepted
// false (with a *ValidationError or *NonMonotonicError) for an observation
// the engine must not persist, and pruned true when the caller must
// rewrite the price log because retention pruning dropped entries.
func (a *Aggregator) AddPrice(e store.PriceEntry) (accepted bool, pruned bool, err error) {
	if e.Low == 0 || e.High == 0 || e.Low > e.High || e.Multiplier < 1.0 {
		return false, false, &ValidationError{Reason: "low/high/multiplier out of range"}
	}
	if len(a.entries) > 0 {
		back := a.entries[len(a.entries)-1]
		if e.Height <= back.Height {
			if e.Height == back.Height && e == back {
				return true, false, nil
			}
			return false, false, &NonMonotonicError{Height: e.Height, LastHeight: back.Height}
		}
	}
	a.entries = append(a.entries, e)
	pruned = a.pruneRetention(e.Height)
	return true, pruned, nil
}

// RemovePrice applies a rollback-path removal: the first entry matching e
// exactly, scanning newest to oldest, is dropped. It reports whether an
// entry was actually removed; a miss is a no-op, never an error.
func (a *Aggregator) RemovePrice(e store.PriceEntry) bool {
	for i := len(a.entries) - 1; i >= 0; i-- {
		if a.entries[i] == e {
			a.entries = append(a.entries[:i], a.entries[i+1:]...)
			return true
		}
	}
	return false
}

// pruneRetention drops entries older than the 120-day (plus slack) window
// still needed to serve averages at height. It reports whether anything
// was dropped.
func (a *Aggregator) pruneRetention(height uint64) bool {
	horizon := 120*a.cfg.BlocksPer30Days + 100
	if height < horizon {
		return false
	}
	minHeight := height - horizon
	out, changed := store.DropOlderThan(a.entries, func(e store.PriceEntry) uint64 { return e.Height }, minHeight)
	a.entries = out
	return changed
}

// Multiplier returns the coin-generation multiplier in effect at height.
// On the commit path it is served from cache except on a recalculation
// tick (height % MultiplierRecalcFreq == 0); on the rollback path it first
// looks for the authoritative value recorded in the log at that exact
// height, falling back to a full recompute when no such record exists.
func (a *Aggregator) Multiplier(height uint64, rollback bool) float64 {
	if !rollback {
		if a.cfg.MultiplierRecalcFreq > 0 && height%a.cfg.MultiplierRecalcFreq != 0 && a.currentMultiplier != 0 {
			return a.currentMultiplier
		}
	} else if entry, ok := store.FindExact(a.entries, func(e store.PriceEntry) bool { return e.Height == height }, nil); ok {
		a.currentMultiplier = entry.Multiplier
		return a.currentMultiplier
	}

	if a.currentMultiplier == 0 {
		a.currentMultiplier = 1
	}
	avg30, avg60, avg90, avg120 := a.averages(height)
	if avg60 == 0 {
		a.currentMultiplier = 1
		return a.currentMultiplier
	}
	r30 := avg30 / avg60
	var r60, r90 float64
	if avg90 != 0 {
		r60 = avg60 / avg90
	}
	if avg120 != 0 {
		r90 = avg90 / avg120
	}
	g := growthFactor(r30, r60, r90, a.cfg.EpochsPerYear)
	a.currentMultiplier = Approximate(a.currentMultiplier * g)
	return a.currentMultiplier
}

// averages computes the 30/60/90/120-day sliding averages as of height:
// windows are evaluated outward from the most recent 30-day block, and
// the first window that isn't fully covered by elapsed history, or that
// contains no observations, zeroes itself and every coarser window
// after it.
func (a *Aggregator) averages(height uint64) (avg30, avg60, avg90, avg120 float64) {
	a.pruneRetention(height)
	out := [4]float64{}
	B := a.cfg.BlocksPer30Days
	for k := 1; k <= 4; k++ {
		kB := uint64(k) * B
		if height+1 < kB {
			break
		}
		lo := height + 1 - kB
		hi := height - uint64(k-1)*B

		var sum float64
		var count int
		for i := len(a.entries) - 1; i >= 0; i-- {
			e := a.entries[i]
			if e.Height > height {
				continue
			}
			if e.Height < lo {
				break
			}
			if e.Height <= hi {
				sum += float64(e.Low + e.High)
				count++
			}
		}
		if count == 0 {
			break
		}
		out[k-1] = Approximate(sum / float64(count) / 2)
	}
	return out[0], out[1], out[2], out[3]
}
