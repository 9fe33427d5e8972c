package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/catapult-chain/priceengine/internal/priceengine"
	"github.com/catapult-chain/priceengine/internal/priceengine/store"
)

func newInspectCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print record counts and the most recent entry of each log table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := priceengine.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			st := store.New(afero.NewOsFs(), cfg.DataDir, nil)

			prices, err := st.LoadPrices()
			if err != nil {
				return err
			}
			supply, err := st.LoadSupply()
			if err != nil {
				return err
			}
			fees, err := st.LoadEpochFees()
			if err != nil {
				return err
			}

			fmt.Printf("prices:     %d records\n", len(prices))
			if len(prices) > 0 {
				last := prices[len(prices)-1]
				fmt.Printf("  latest: height=%d low=%d high=%d multiplier=%f\n", last.Height, last.Low, last.High, last.Multiplier)
			}
			fmt.Printf("totalSupply: %d records\n", len(supply))
			if len(supply) > 0 {
				last := supply[len(supply)-1]
				fmt.Printf("  latest: height=%d supply=%d increase=%d\n", last.Height, last.Supply, last.Increase)
			}
			fmt.Printf("epochFees:  %d records\n", len(fees))
			if len(fees) > 0 {
				last := fees[len(fees)-1]
				fmt.Printf("  latest: height=%d collected=%d dividend=%d harvester=%q\n", last.Height, last.Collected, last.Dividend, last.Harvester)
			}
			return nil
		},
	}
}
