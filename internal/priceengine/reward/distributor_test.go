package reward

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catapult-chain/priceengine/internal/priceengine/epochfees"
	"github.com/catapult-chain/priceengine/internal/priceengine/priceagg"
)

type fakeAccounts struct {
	balances map[string]int64
	failAddr string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{balances: map[string]int64{}}
}

func (f *fakeAccounts) Credit(address string, amount uint64) error {
	if address == f.failAddr {
		return errUnresolvable
	}
	f.balances[address] += int64(amount)
	return nil
}

func (f *fakeAccounts) Debit(address string, amount uint64) error {
	if address == f.failAddr {
		return errUnresolvable
	}
	f.balances[address] -= int64(amount)
	return nil
}

var errUnresolvable = errUnresolvableErr{}

type errUnresolvableErr struct{}

func (errUnresolvableErr) Error() string { return "account could not be resolved" }

type fakeStatements struct {
	balanceReceipts  []BalanceChangeReceipt
	inflationReceipt *InflationReceipt
}

func (f *fakeStatements) AddBalanceChangeReceipt(r BalanceChangeReceipt) {
	f.balanceReceipts = append(f.balanceReceipts, r)
}

func (f *fakeStatements) AddInflationReceipt(r InflationReceipt) {
	r2 := r
	f.inflationReceipt = &r2
}

func newDistributor() *Distributor {
	cfg := Options{
		NetworkPercentage:     10,
		BeneficiaryPercentage: 5,
		NetworkSink:           SinkTable{{SinceHeight: 0, Address: "NETWORK_SINK"}},
		InitialSupply:         10_000_000_000,
		SupplyCap:             100_000_000_000,
		InflationDivisor:      52_560_000,
	}
	prices := priceagg.New(priceagg.Config{BlocksPer30Days: 86400, EpochsPerYear: 12, MultiplierRecalcFreq: 720}, nil)
	fees := epochfees.New(epochfees.Config{FeeRecalcFreq: 720}, nil)
	d := New(cfg, prices, fees, nil)
	d.LoadSupply(nil)
	return d
}

func TestOnBlockCommitSplitsRewardAndMintsInflation(t *testing.T) {
	d := newDistributor()
	accounts := newFakeAccounts()
	sb := &fakeStatements{}

	res, err := d.OnBlock(BlockNotification{
		Height:      1,
		Harvester:   "HARVESTER",
		Beneficiary: "BENEFICIARY",
		TotalFee:    1000,
	}, ModeCommit, accounts, sb)
	require.NoError(t, err)
	require.Greater(t, res.Inflation, uint64(0))
	require.Equal(t, res.HarvesterAmount+res.NetworkAmount+res.BeneficiaryAmount, res.Inflation+res.Dividend)
	require.Equal(t, int64(res.HarvesterAmount), accounts.balances["HARVESTER"])
	require.Equal(t, int64(res.NetworkAmount), accounts.balances["NETWORK_SINK"])
	require.Equal(t, int64(res.BeneficiaryAmount), accounts.balances["BENEFICIARY"])
	require.NotNil(t, sb.inflationReceipt)
	require.Len(t, sb.balanceReceipts, 3)
}

func TestOnBlockSkipsBeneficiaryWhenSameAsHarvester(t *testing.T) {
	d := newDistributor()
	accounts := newFakeAccounts()
	sb := &fakeStatements{}

	res, err := d.OnBlock(BlockNotification{
		Height:      1,
		Harvester:   "SAME",
		Beneficiary: "SAME",
		TotalFee:    500,
	}, ModeCommit, accounts, sb)
	require.NoError(t, err)
	require.Equal(t, uint64(0), res.BeneficiaryAmount)
}

func TestOnBlockPropagatesResolutionFailure(t *testing.T) {
	d := newDistributor()
	accounts := newFakeAccounts()
	accounts.failAddr = "HARVESTER"
	sb := &fakeStatements{}

	_, err := d.OnBlock(BlockNotification{Height: 1, Harvester: "HARVESTER", TotalFee: 100}, ModeCommit, accounts, sb)
	require.Error(t, err)
}

func TestCommitThenRollbackRestoresSupplyAndEpochFeeLogs(t *testing.T) {
	d := newDistributor()
	accounts := newFakeAccounts()
	sb := &fakeStatements{}

	n := BlockNotification{Height: 1, Harvester: "HARVESTER", TotalFee: 1000}
	_, err := d.OnBlock(n, ModeCommit, accounts, sb)
	require.NoError(t, err)
	require.Len(t, d.SupplyEntries(), 2) // genesis + height 1
	require.Len(t, d.fees.Entries(), 1)

	_, err = d.OnBlock(n, ModeRollback, accounts, sb)
	require.NoError(t, err)
	require.Len(t, d.SupplyEntries(), 1) // back to genesis only
	require.Empty(t, d.fees.Entries())
}

func TestComputeInflationRespectsSupplyCap(t *testing.T) {
	cfg := Options{SupplyCap: 100, InflationDivisor: 1}
	got := computeInflation(95, 10, cfg)
	require.Equal(t, uint64(5), got)
}

func TestComputeInflationAtCapIsZero(t *testing.T) {
	cfg := Options{SupplyCap: 100, InflationDivisor: 1}
	got := computeInflation(100, 10, cfg)
	require.Equal(t, uint64(0), got)
}

func TestSinkTableResolvesByHeightFork(t *testing.T) {
	table := SinkTable{
		{SinceHeight: 1, Address: "AddrA"},
		{SinceHeight: 555, Address: "AddrB"},
	}
	require.Equal(t, "AddrA", table.Resolve(554))
	require.Equal(t, "AddrB", table.Resolve(555))
	require.Equal(t, "AddrB", table.Resolve(10_000))
	require.Equal(t, "", table.Resolve(0))
}

func TestOnBlockUsesSinkAddressForHeight(t *testing.T) {
	cfg := Options{
		NetworkPercentage: 20,
		NetworkSink: SinkTable{
			{SinceHeight: 1, Address: "AddrA"},
			{SinceHeight: 555, Address: "AddrB"},
		},
		SupplyCap:        100_000_000_000,
		InflationDivisor: 52_560_000,
	}
	prices := priceagg.New(priceagg.Config{BlocksPer30Days: 86400, EpochsPerYear: 12, MultiplierRecalcFreq: 720}, nil)
	fees := epochfees.New(epochfees.Config{FeeRecalcFreq: 720}, nil)
	d := New(cfg, prices, fees, nil)
	d.LoadSupply(nil)

	accounts := newFakeAccounts()
	sb := &fakeStatements{}
	res, err := d.OnBlock(BlockNotification{Height: 554, Harvester: "H", TotalFee: 1000}, ModeCommit, accounts, sb)
	require.NoError(t, err)
	require.Equal(t, "AddrA", res.NetworkSinkAddress)

	res, err = d.OnBlock(BlockNotification{Height: 555, Harvester: "H", TotalFee: 1000}, ModeCommit, accounts, sb)
	require.NoError(t, err)
	require.Equal(t, "AddrB", res.NetworkSinkAddress)
}
