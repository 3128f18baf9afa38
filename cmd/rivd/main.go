package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rivcore/riv/cmd/rivd/commands"
	"github.com/rivcore/riv/logger"
)

var rootCmd = &cobra.Command{
	Use:   "rivd",
	Short: "rivd — embeddable RGB framebuffer streaming server",
	Long: `rivd exposes an in-process RGB framebuffer as a remotely
consumable TCP streaming service: a control channel for session
negotiation and one or more data channels that encode and deliver
video frames on demand.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		_ = verbosity
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase output verbosity (-v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "emit structured JSON logs")

	rootCmd.AddCommand(commands.ServerCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
