// Package reward implements the reward distributor: the per-block
// inflation calculation, supply-cap clamp, and the harvester/beneficiary/
// network-sink split of the resulting amount, with receipts for the
// commit path and the inverse adjustment for the rollback path.
package reward

// Mode distinguishes a forward block application from its inverse.
type Mode int

const (
	ModeCommit Mode = iota
	ModeRollback
)

// BlockNotification carries the per-block facts the distributor needs:
// who harvested it, who (if anyone) is the designated beneficiary, and
// the sum of transaction fees paid in the block.
type BlockNotification struct {
	Height      uint64
	Harvester   string
	Beneficiary string
	TotalFee    uint64
}

// BalanceChangeReceipt records a credit applied to an account on the
// commit path. Rollback never emits receipts.
type BalanceChangeReceipt struct {
	ReceiptType string
	Address     string
	Amount      uint64
}

// InflationReceipt records the supply newly minted this block. It carries
// no balance change of its own: the minted amount is paid out as part of
// the harvester/network/beneficiary split.
type InflationReceipt struct {
	Amount uint64
}

const (
	ReceiptTypeHarvestFee = "harvest_fee"
)

// StatementBuilder accumulates the receipts produced by a block
// application, the Go analogue of ObserverStatementBuilder.
type StatementBuilder interface {
	AddBalanceChangeReceipt(BalanceChangeReceipt)
	AddInflationReceipt(InflationReceipt)
}

// SinkEntry is one row of the height-dependent network fee sink table.
type SinkEntry struct {
	SinceHeight uint64
	Address     string
}

// SinkTable resolves a block height to the network fee sink address in
// effect at that height: the entry with the largest SinceHeight <= H.
// Entries need not be pre-sorted; Resolve scans the whole table every
// call, which is fine for the handful of rows a sink table realistically
// holds.
type SinkTable []SinkEntry

// Resolve returns the address in effect at height, or "" if no entry's
// SinceHeight is <= height.
func (t SinkTable) Resolve(height uint64) string {
	var best SinkEntry
	var found bool
	for _, e := range t {
		if e.SinceHeight <= height && (!found || e.SinceHeight > best.SinceHeight) {
			best = e
			found = true
		}
	}
	return best.Address
}

// AccountCache resolves forwarded (remote-harvesting) accounts to their
// main account and mutates balances. A resolution failure is fatal: the
// engine cannot credit or debit an account it cannot identify.
type AccountCache interface {
	Credit(address string, amount uint64) error
	Debit(address string, amount uint64) error
}
