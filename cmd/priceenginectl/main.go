// Command priceenginectl operates on a monetary engine data directory
// out of band: inspecting the three persistent logs and replaying them
// through the same validation path the engine runs at startup.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "priceenginectl",
		Short: "Inspect and replay the supply-demand monetary engine's data directory",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "priceengine.toml", "path to the engine config file")

	root.AddCommand(newInspectCmd(&configPath), newReplayCmd(&configPath))
	return root
}
