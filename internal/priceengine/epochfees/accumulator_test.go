package epochfees

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catapult-chain/priceengine/internal/priceengine/store"
)

func TestCommitAccumulatesWithinEpoch(t *testing.T) {
	a := New(Config{FeeRecalcFreq: 10}, nil)
	e1, ok, _ := a.Commit(1, "HARVESTER", 100)
	require.True(t, ok)
	require.Equal(t, uint64(100), e1.Collected)
	require.Equal(t, uint64(0), e1.Dividend)
	require.Equal(t, "HARVESTER", e1.Harvester)

	e2, ok, _ := a.Commit(2, "HARVESTER", 50)
	require.True(t, ok)
	require.Equal(t, uint64(150), e2.Collected)
}

func TestDividendRecalculatesOnBoundary(t *testing.T) {
	a := New(Config{FeeRecalcFreq: 10}, nil)
	for h := uint64(1); h <= 10; h++ {
		_, ok, _ := a.Commit(h, "HARVESTER", 10)
		require.True(t, ok)
	}
	// at height 10, boundary hit: dividend = round(collected/freq), where
	// collected is the pool carried into height 10 (heights 1..9, 90),
	// before height 10's own fee is added
	last := a.Entries()[len(a.Entries())-1]
	require.Equal(t, uint64(9), last.Dividend)
}

func TestCommitSkipsNonMonotonicHeight(t *testing.T) {
	a := New(Config{FeeRecalcFreq: 10}, nil)
	_, ok, _ := a.Commit(5, "HARVESTER", 10)
	require.True(t, ok)
	_, ok, _ = a.Commit(3, "HARVESTER", 10)
	require.False(t, ok)
	require.Len(t, a.Entries(), 1)
}

func TestRollbackRemovesMatchingEntry(t *testing.T) {
	a := New(Config{FeeRecalcFreq: 10}, nil)
	entry, ok, _ := a.Commit(5, "HARVESTER", 10)
	require.True(t, ok)

	removed, ok := a.Rollback(5, "HARVESTER")
	require.True(t, ok)
	require.Equal(t, entry, removed)
	require.Empty(t, a.Entries())
}

func TestRollbackOnEmptyIsNoop(t *testing.T) {
	a := New(Config{FeeRecalcFreq: 10}, nil)
	_, ok := a.Rollback(5, "HARVESTER")
	require.False(t, ok)
}

// TestRollbackUsesHarvesterAsTieBreaker covers two entries that share both
// height and dividend (e.g. two forks committed against an empty pool at
// the same recalculation point) and are distinguishable only by harvester.
func TestRollbackUsesHarvesterAsTieBreaker(t *testing.T) {
	a := New(Config{FeeRecalcFreq: 10}, nil)
	a.entries = []store.EpochFeeEntry{
		{Height: 5, Collected: 0, Dividend: 0, Harvester: "ALICE"},
		{Height: 5, Collected: 0, Dividend: 0, Harvester: "BOB"},
	}

	removed, ok := a.Rollback(5, "BOB")
	require.True(t, ok)
	require.Equal(t, "BOB", removed.Harvester)
	require.Len(t, a.Entries(), 1)
	require.Equal(t, "ALICE", a.Entries()[0].Harvester)
}

func TestLoadFromRejectsNonAscending(t *testing.T) {
	a := New(Config{FeeRecalcFreq: 10}, nil)
	err := a.LoadFrom([]store.EpochFeeEntry{
		{Height: 5, Collected: 10, Dividend: 1},
		{Height: 4, Collected: 20, Dividend: 2},
	})
	require.Error(t, err)
}

func TestCollectedSoFarBeforeAnyEntries(t *testing.T) {
	a := New(Config{FeeRecalcFreq: 10}, nil)
	require.Equal(t, uint64(0), a.CollectedSoFar(1))
}
