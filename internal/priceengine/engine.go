// Package priceengine is the composition root: it wires the persistent
// log store, price window aggregator, epoch fee accumulator and reward
// distributor into a single entry point driven by price observations and
// block notifications.
package priceengine

import (
	"encoding/hex"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/catapult-chain/priceengine/internal/priceengine/epochfees"
	"github.com/catapult-chain/priceengine/internal/priceengine/priceagg"
	"github.com/catapult-chain/priceengine/internal/priceengine/reward"
	"github.com/catapult-chain/priceengine/internal/priceengine/store"
)

// Engine is the single owned entry point into the supply-demand monetary
// engine. OnPriceMessage and OnBlock serialize on an internal mutex and
// are safe for concurrent use; UseMetrics is not synchronized.
type Engine struct {
	mu sync.Mutex

	store       *store.Store
	prices      *priceagg.Aggregator
	fees        *epochfees.Accumulator
	distributor *reward.Distributor
	accounts    reward.AccountCache
	metrics     *Metrics
	log         *zap.Logger

	loaded bool
}

// New wires an Engine from cfg. fs is the filesystem the log store reads
// and writes through (afero.NewOsFs() in production); accounts resolves
// and mutates balances for the reward distributor.
func New(cfg Config, fs afero.Fs, accounts reward.AccountCache, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	publisherKey, err := hex.DecodeString(cfg.PublisherKey)
	if err != nil {
		return nil, errors.Wrap(err, "priceengine: decode publisher_key_hex")
	}

	st := store.New(fs, cfg.DataDir, log)
	prices := priceagg.New(priceagg.Config{
		BlocksPer30Days:      cfg.BlocksPer30Days,
		EpochsPerYear:        cfg.EpochsPerYear,
		MultiplierRecalcFreq: cfg.MultiplierRecalcFreq,
		PublisherKey:         publisherKey,
	}, log)
	fees := epochfees.New(epochfees.Config{
		FeeRecalcFreq:   cfg.FeeRecalcFreq,
		RetentionBlocks: cfg.EpochFeeRetentionBlocks,
	}, log)
	sinkTable := make(reward.SinkTable, 0, len(cfg.NetworkSink))
	for _, row := range cfg.NetworkSink {
		sinkTable = append(sinkTable, reward.SinkEntry{SinceHeight: row.SinceHeight, Address: row.Address})
	}
	distributor := reward.New(reward.Options{
		NetworkPercentage:     cfg.NetworkPercentage,
		BeneficiaryPercentage: cfg.BeneficiaryPercentage,
		NetworkSink:           sinkTable,
		InitialSupply:         cfg.InitialSupply,
		SupplyCap:             cfg.SupplyCap,
		InflationDivisor:      cfg.InflationDivisor,
	}, prices, fees, log)

	return &Engine{
		store:       st,
		prices:      prices,
		fees:        fees,
		distributor: distributor,
		accounts:    accounts,
		log:         log,
	}, nil
}

// UseMetrics registers the engine's observational Prometheus metrics.
func (e *Engine) UseMetrics(m *Metrics) {
	e.metrics = m
}

// ensureLoaded lazily recovers all three logs on first use, the Go
// analogue of HarvestFeeObserver checking `totalSupply.size() == 0` and
// loading every table before processing the first notification it sees.
func (e *Engine) ensureLoaded() error {
	if e.loaded {
		return nil
	}
	priceEntries, err := e.store.LoadPrices()
	if err != nil {
		return errors.Wrap(err, "priceengine: load prices")
	}
	if err := e.prices.LoadFrom(priceEntries); err != nil {
		return errors.Wrap(err, "priceengine: replay prices")
	}

	feeEntries, err := e.store.LoadEpochFees()
	if err != nil {
		return errors.Wrap(err, "priceengine: load epoch fees")
	}
	if err := e.fees.LoadFrom(feeEntries); err != nil {
		return errors.Wrap(err, "priceengine: replay epoch fees")
	}

	supplyEntries, err := e.store.LoadSupply()
	if err != nil {
		return errors.Wrap(err, "priceengine: load supply")
	}
	e.distributor.LoadSupply(supplyEntries)

	e.loaded = true
	return nil
}

// OnPriceMessage applies one price observation, in either direction.
// accepted is false without an error when the publisher key doesn't
// match, or when AddPrice/RemovePrice itself rejects the payload for a
// non-fatal reason (bad shape, non-monotonic height, no match to roll
// back) — see ValidationError / NonMonotonicError.
func (e *Engine) OnPriceMessage(senderKey []byte, height, low, high uint64, mode reward.Mode) (accepted bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(); err != nil {
		return false, err
	}
	if !e.prices.VerifyPublisher(senderKey) {
		return false, nil
	}

	multiplier := e.prices.Multiplier(height, mode == reward.ModeRollback)
	entry := store.PriceEntry{Height: height, Low: low, High: high, Multiplier: multiplier}

	if mode == reward.ModeRollback {
		removed := e.prices.RemovePrice(entry)
		if removed {
			if err := e.store.RewritePrices(e.prices.Entries()); err != nil {
				return false, errors.Wrap(err, "priceengine: persist price rollback")
			}
		}
		return removed, nil
	}

	current := e.prices.Entries()
	duplicate := len(current) > 0 && current[len(current)-1] == entry
	accepted, pruned, err := e.prices.AddPrice(entry)
	if err != nil {
		if e.metrics != nil {
			e.metrics.PricesRejected.Inc()
		}
		return false, nil
	}
	if !accepted {
		return false, nil
	}
	if duplicate {
		// A byte-identical resubmission of the last entry is accepted
		// without writing a second physical record.
		return true, nil
	}
	if pruned {
		if err := e.store.RewritePrices(e.prices.Entries()); err != nil {
			return false, errors.Wrap(err, "priceengine: persist price prune")
		}
	} else {
		if err := e.store.AppendPrice(entry); err != nil {
			return false, errors.Wrap(err, "priceengine: persist price entry")
		}
	}
	return true, nil
}

// OnBlock applies one block's harvest fee notification, persisting every
// log mutation the distributor's computation implies before returning.
// Any error returned must be treated as fatal. On an AccountCache
// resolution failure nothing of this block is persisted, but the
// distributor's in-memory epoch fee and supply logs have already advanced
// and balance changes applied before the failing call are not undone; on
// a store error, tables written before the failing write stay written.
func (e *Engine) OnBlock(n reward.BlockNotification, mode reward.Mode, sb reward.StatementBuilder) (reward.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(); err != nil {
		return reward.Result{}, err
	}

	res, err := e.distributor.OnBlock(n, mode, e.accounts, sb)
	if err != nil {
		return res, errors.Wrap(ErrAccountUnresolvable, err.Error())
	}

	if res.EpochFeeChanged {
		if res.EpochFeePruned || mode == reward.ModeRollback {
			if err := e.store.RewriteEpochFees(e.fees.Entries()); err != nil {
				return res, errors.Wrap(err, "priceengine: persist epoch fee log")
			}
		} else if err := e.store.AppendEpochFee(res.EpochFeeEntry); err != nil {
			return res, errors.Wrap(err, "priceengine: persist epoch fee entry")
		}
	}

	if res.SupplyChanged {
		if mode == reward.ModeRollback {
			if err := e.store.RewriteSupply(e.distributor.SupplyEntries()); err != nil {
				return res, errors.Wrap(err, "priceengine: persist supply log")
			}
		} else if err := e.store.AppendSupply(res.SupplyEntry); err != nil {
			return res, errors.Wrap(err, "priceengine: persist supply entry")
		}
	}

	if e.metrics != nil {
		e.metrics.observe(observationInput{Multiplier: res.Multiplier, Dividend: res.Dividend, TotalSupply: res.TotalSupply})
		e.metrics.BlocksProcessed.WithLabelValues(modeLabel(mode)).Inc()
	}

	return res, nil
}

func modeLabel(mode reward.Mode) string {
	if mode == reward.ModeRollback {
		return "rollback"
	}
	return "commit"
}
