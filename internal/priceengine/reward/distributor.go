package reward

import (
	"go.uber.org/zap"

	"github.com/catapult-chain/priceengine/internal/priceengine/epochfees"
	"github.com/catapult-chain/priceengine/internal/priceengine/mathutil"
	"github.com/catapult-chain/priceengine/internal/priceengine/priceagg"
	"github.com/catapult-chain/priceengine/internal/priceengine/store"
)

// Options holds the chain-level harvesting parameters: the network and
// beneficiary split percentages, the height-dependent network sink
// table, and the supply cap and inflation divisor constants.
type Options struct {
	NetworkPercentage     uint8
	BeneficiaryPercentage uint8
	NetworkSink           SinkTable
	InitialSupply         uint64
	SupplyCap             uint64
	InflationDivisor      uint64
}

// Result reports everything a block application produced, so the engine
// can decide what to persist without the distributor reaching into the
// log store itself.
type Result struct {
	Multiplier  float64
	Dividend    uint64
	Inflation   uint64
	TotalSupply uint64

	HarvesterAmount, NetworkAmount, BeneficiaryAmount uint64
	NetworkSinkAddress                                string

	EpochFeeEntry   store.EpochFeeEntry
	EpochFeeChanged bool // commit: appended; rollback: removed
	EpochFeePruned  bool
	SupplyEntry     store.SupplyEntry
	SupplyChanged   bool // commit: appended; rollback: removed
}

// Distributor wires the price aggregator and fee accumulator's outputs
// into the per-block inflation calculation and the harvester/beneficiary/
// network-sink reward split.
type Distributor struct {
	cfg    Options
	prices *priceagg.Aggregator
	fees   *epochfees.Accumulator
	supply supplyLedger
	log    *zap.Logger
}

// New returns a Distributor over an already-loaded aggregator and
// accumulator. LoadSupply must be called once before the first OnBlock.
func New(cfg Options, prices *priceagg.Aggregator, fees *epochfees.Accumulator, log *zap.Logger) *Distributor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Distributor{cfg: cfg, prices: prices, fees: fees, log: log}
}

// LoadSupply seeds the supply ledger from a recovered log, pushing the
// genesis entry at cfg.InitialSupply if the log was empty.
func (d *Distributor) LoadSupply(entries []store.SupplyEntry) {
	d.supply.loadFrom(d.cfg.InitialSupply, entries)
}

// SupplyEntries returns the current in-memory supply deque, oldest
// first. Callers must not mutate the returned slice.
func (d *Distributor) SupplyEntries() []store.SupplyEntry {
	return d.supply.entries
}

// OnBlock applies one block's harvest fee notification, in either
// direction. Any AccountCache resolution failure is returned immediately
// and must be treated as fatal by the caller: an unresolvable harvester
// or beneficiary leaves balances and receipts in an undefined partial
// state.
func (d *Distributor) OnBlock(n BlockNotification, mode Mode, accounts AccountCache, sb StatementBuilder) (Result, error) {
	var res Result

	switch mode {
	case ModeCommit:
		res.Multiplier = d.prices.Multiplier(n.Height, false)
		entry, appended, pruned := d.fees.Commit(n.Height, n.Harvester, n.TotalFee)
		res.EpochFeeEntry = entry
		res.EpochFeeChanged = appended
		res.EpochFeePruned = pruned
		res.Dividend = entry.Dividend

		totalSupply := d.supply.current()
		res.Inflation = computeInflation(totalSupply, res.Multiplier, d.cfg)
		totalSupply, overflowed := mathutil.SafeAdd(totalSupply, res.Inflation)
		if overflowed {
			d.log.Error("total supply overflowed uint64 while minting inflation, clamping to max")
			totalSupply = ^uint64(0)
		}
		res.TotalSupply = totalSupply
		res.SupplyEntry = store.SupplyEntry{Height: n.Height, Supply: totalSupply, Increase: res.Inflation}
		d.supply.append(res.SupplyEntry)
		res.SupplyChanged = true

	case ModeRollback:
		res.Multiplier = d.prices.Multiplier(n.Height, true)
		res.Dividend = d.fees.Dividend(n.Height, true)
		if _, removed := d.fees.Rollback(n.Height, n.Harvester); removed {
			res.EpochFeeChanged = true
		}

		// Recomputing inflation from scratch here could disagree with
		// what was actually minted if config changed in between. The
		// supply entry recorded at commit time is the authoritative
		// source of truth for what was minted, so rollback reads it
		// back directly instead of recomputing it.
		if entry, found := d.supply.at(n.Height); found {
			res.TotalSupply = entry.Supply
			res.Inflation = entry.Increase
			res.SupplyEntry = entry
		} else {
			d.log.Error("total supply entry not found for rollback height")
		}
		if d.supply.removeAt(n.Height) {
			res.SupplyChanged = true
		}
	}

	totalAmount := res.Inflation + res.Dividend
	res.NetworkSinkAddress = d.cfg.NetworkSink.Resolve(n.Height)
	res.NetworkAmount = totalAmount * uint64(d.cfg.NetworkPercentage) / 100
	if shouldShareFees(n, d.cfg.BeneficiaryPercentage) {
		res.BeneficiaryAmount = totalAmount * uint64(d.cfg.BeneficiaryPercentage) / 100
	}
	res.HarvesterAmount = totalAmount - res.NetworkAmount - res.BeneficiaryAmount

	if err := d.apply(mode, accounts, sb, n.Harvester, res.HarvesterAmount); err != nil {
		return res, err
	}
	if res.NetworkAmount != 0 {
		if err := d.apply(mode, accounts, sb, res.NetworkSinkAddress, res.NetworkAmount); err != nil {
			return res, err
		}
	}
	if res.BeneficiaryAmount != 0 {
		if err := d.apply(mode, accounts, sb, n.Beneficiary, res.BeneficiaryAmount); err != nil {
			return res, err
		}
	}
	if mode == ModeCommit && res.Inflation != 0 {
		sb.AddInflationReceipt(InflationReceipt{Amount: res.Inflation})
	}

	return res, nil
}

func (d *Distributor) apply(mode Mode, accounts AccountCache, sb StatementBuilder, address string, amount uint64) error {
	if mode == ModeRollback {
		return accounts.Debit(address, amount)
	}
	if err := accounts.Credit(address, amount); err != nil {
		return err
	}
	sb.AddBalanceChangeReceipt(BalanceChangeReceipt{ReceiptType: ReceiptTypeHarvestFee, Address: address, Amount: amount})
	return nil
}

func shouldShareFees(n BlockNotification, beneficiaryPercentage uint8) bool {
	return beneficiaryPercentage > 0 && n.Beneficiary != "" && n.Harvester != n.Beneficiary
}

// computeInflation applies the fixed-point inflation formula and the
// hard supply cap clamp, using a +0.5 truncation-to-round idiom and a
// literal cap check rather than a generalized rounding helper.
func computeInflation(totalSupply uint64, multiplier float64, cfg Options) uint64 {
	if totalSupply >= cfg.SupplyCap {
		return 0
	}
	inflation := uint64(float64(totalSupply)*multiplier/float64(cfg.InflationDivisor) + 0.5)
	if totalSupply+inflation > cfg.SupplyCap {
		inflation = cfg.SupplyCap - totalSupply
	}
	return inflation
}
