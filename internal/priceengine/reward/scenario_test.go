package reward

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catapult-chain/priceengine/internal/priceengine/epochfees"
	"github.com/catapult-chain/priceengine/internal/priceengine/priceagg"
	"github.com/catapult-chain/priceengine/internal/priceengine/store"
)

// scenario is the JSON shape loaded from testdata/scenarios/*.json. Each
// file drives the distributor through a short sequence of block
// notifications from a hand-seeded starting state, checking the exact
// split and balances the scenario calls for.
type scenario struct {
	Name                  string                `json:"name"`
	NetworkPercentage     uint8                 `json:"networkPercentage"`
	BeneficiaryPercentage uint8                 `json:"beneficiaryPercentage"`
	NetworkSink           []scenarioSink        `json:"networkSink"`
	SupplyCap             uint64                `json:"supplyCap"`
	InflationDivisor      uint64                `json:"inflationDivisor"`
	FeeRecalcFreq         uint64                `json:"feeRecalcFreq"`
	SeedSupply            []store.SupplyEntry   `json:"seedSupply"`
	SeedEpochFees         []store.EpochFeeEntry `json:"seedEpochFees"`
	InitialBalances       map[string]int64      `json:"initialBalances"`
	Steps                 []scenarioStep        `json:"steps"`
}

type scenarioSink struct {
	SinceHeight uint64 `json:"sinceHeight"`
	Address     string `json:"address"`
}

type scenarioStep struct {
	Height      uint64 `json:"height"`
	Harvester   string `json:"harvester"`
	Beneficiary string `json:"beneficiary"`
	TotalFee    uint64 `json:"totalFee"`
	Mode        string `json:"mode"`

	ExpectHarvesterAmount   uint64           `json:"expectHarvesterAmount"`
	ExpectNetworkAmount     uint64           `json:"expectNetworkAmount"`
	ExpectBeneficiaryAmount uint64           `json:"expectBeneficiaryAmount"`
	ExpectInflation         uint64           `json:"expectInflation"`
	ExpectReceiptCount      int              `json:"expectReceiptCount"`
	ExpectInflationReceipt  bool             `json:"expectInflationReceipt"`
	ExpectBalances          map[string]int64 `json:"expectBalances"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	files, err := filepath.Glob("testdata/scenarios/*.json")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no scenario fixtures found")

	var scenarios []scenario
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		var s scenario
		require.NoError(t, json.Unmarshal(data, &s), "parsing %s", f)
		scenarios = append(scenarios, s)
	}
	return scenarios
}

func TestScenarios(t *testing.T) {
	for _, s := range loadScenarios(t) {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			sink := make(SinkTable, 0, len(s.NetworkSink))
			for _, row := range s.NetworkSink {
				sink = append(sink, SinkEntry{SinceHeight: row.SinceHeight, Address: row.Address})
			}
			cfg := Options{
				NetworkPercentage:     s.NetworkPercentage,
				BeneficiaryPercentage: s.BeneficiaryPercentage,
				NetworkSink:           sink,
				SupplyCap:             s.SupplyCap,
				InflationDivisor:      s.InflationDivisor,
			}

			prices := priceagg.New(priceagg.Config{BlocksPer30Days: 86400, EpochsPerYear: 12, MultiplierRecalcFreq: 1}, nil)
			fees := epochfees.New(epochfees.Config{FeeRecalcFreq: s.FeeRecalcFreq}, nil)
			require.NoError(t, fees.LoadFrom(s.SeedEpochFees))

			d := New(cfg, prices, fees, nil)
			d.LoadSupply(s.SeedSupply)

			accounts := newFakeAccounts()
			for addr, bal := range s.InitialBalances {
				accounts.balances[addr] = bal
			}

			for _, step := range s.Steps {
				sb := &fakeStatements{}
				mode := ModeCommit
				if step.Mode == "rollback" {
					mode = ModeRollback
				}
				res, err := d.OnBlock(BlockNotification{
					Height:      step.Height,
					Harvester:   step.Harvester,
					Beneficiary: step.Beneficiary,
					TotalFee:    step.TotalFee,
				}, mode, accounts, sb)
				require.NoError(t, err)

				require.Equal(t, step.ExpectHarvesterAmount, res.HarvesterAmount, "harvesterAmount")
				require.Equal(t, step.ExpectNetworkAmount, res.NetworkAmount, "networkAmount")
				require.Equal(t, step.ExpectBeneficiaryAmount, res.BeneficiaryAmount, "beneficiaryAmount")
				require.Equal(t, step.ExpectInflation, res.Inflation, "inflation")
				require.Len(t, sb.balanceReceipts, step.ExpectReceiptCount, "receipt count")
				if step.ExpectInflationReceipt {
					require.NotNil(t, sb.inflationReceipt)
				} else {
					require.Nil(t, sb.inflationReceipt)
				}
				for addr, want := range step.ExpectBalances {
					got, ok := accounts.balances[addr]
					require.True(t, ok, "balance for %s", addr)
					require.Equal(t, want, got, "balance for %s", addr)
				}
			}
		})
	}
}
