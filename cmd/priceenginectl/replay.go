package main

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/catapult-chain/priceengine/internal/priceengine"
	"github.com/catapult-chain/priceengine/internal/priceengine/epochfees"
	"github.com/catapult-chain/priceengine/internal/priceengine/priceagg"
	"github.com/catapult-chain/priceengine/internal/priceengine/store"
)

func newReplayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay the prices and epochFees logs, validating them the way the engine does at startup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := priceengine.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			publisherKey, err := hex.DecodeString(cfg.PublisherKey)
			if err != nil {
				return errors.Wrap(err, "decode publisher_key_hex")
			}
			st := store.New(afero.NewOsFs(), cfg.DataDir, nil)

			priceEntries, err := st.LoadPrices()
			if err != nil {
				return err
			}
			prices := priceagg.New(priceagg.Config{
				BlocksPer30Days:      cfg.BlocksPer30Days,
				EpochsPerYear:        cfg.EpochsPerYear,
				MultiplierRecalcFreq: cfg.MultiplierRecalcFreq,
				PublisherKey:         publisherKey,
			}, nil)
			if err := prices.LoadFrom(priceEntries); err != nil {
				return errors.Wrap(err, "replay prices")
			}

			feeEntries, err := st.LoadEpochFees()
			if err != nil {
				return err
			}
			fees := epochfees.New(epochfees.Config{
				FeeRecalcFreq:   cfg.FeeRecalcFreq,
				RetentionBlocks: cfg.EpochFeeRetentionBlocks,
			}, nil)
			if err := fees.LoadFrom(feeEntries); err != nil {
				return errors.Wrap(err, "replay epoch fees")
			}

			fmt.Printf("replay ok: %d price records, %d epoch fee records\n", len(priceEntries), len(feeEntries))
			fmt.Printf("current multiplier: %f\n", prices.CurrentMultiplier())
			return nil
		},
	}
}
