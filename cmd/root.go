package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bit10-swap",
	Short: "A CLI for buying and selling BIT10 index tokens across chains",
	Long: `bit10-swap is a command-line tool for swapping into and out of BIT10 index
tokens from ICP, Base, BSC and Solana. It submits the on-chain transfer,
waits for confirmation and reports the transaction to the settlement
gateway for adjudication.

Examples:
  bit10-swap buy --chain base --token-in ETH --token-out BIT10.TOP --amount-in 0.05
  bit10-swap sell --chain icp --token-in BIT10.DEFI --token-out ICP --amount-in 2
  bit10-swap balance --chain solana --account <address>
  bit10-swap records`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
