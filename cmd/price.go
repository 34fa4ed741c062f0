package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bit10-swap/config"
	"bit10-swap/pkg/price"
)

var priceCmd = &cobra.Command{
	Use:   "price [symbol...]",
	Short: "Show USD spot prices for the configured native assets",
	Long: `Show current USD spot prices. Without arguments all configured symbols are
fetched.

Examples:
  bit10-swap price
  bit10-swap price ETH SOL`,
	Run: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	symbols := args
	if len(symbols) == 0 {
		symbols = cfg.Oracle.Symbols
	}

	oracle := price.NewOracle(
		price.NewFeedAPI(cfg.Oracle.URL, cfg.Oracle.APIKey),
		symbols,
		cfg.Oracle.PollInterval,
	)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching prices..."
		s.Start()
	}

	prices := make(map[string]float64, len(symbols))
	var missing []string
	for _, symbol := range symbols {
		spot, ok := oracle.Spot(symbol)
		if !ok {
			missing = append(missing, symbol)
			continue
		}
		prices[symbol] = spot
	}

	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(prices, "", "  ")
		fmt.Println(string(jsonData))
		if len(missing) > 0 {
			os.Exit(1)
		}
		return
	}

	fmt.Println()
	for _, symbol := range symbols {
		spot, ok := prices[symbol]
		if !ok {
			fmt.Printf("  %-6s %s\n", symbol, color.RedString("unavailable"))
			continue
		}
		fmt.Printf("  %-6s %s\n", symbol, color.GreenString("$%.2f", spot))
	}
	fmt.Println()

	if len(missing) > 0 {
		os.Exit(1)
	}
}
