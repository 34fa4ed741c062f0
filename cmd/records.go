package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bit10-swap/config"
	"bit10-swap/pkg/record"
	"bit10-swap/pkg/types"
)

var (
	recordsChain string
	recordsLimit int
)

var recordsCmd = &cobra.Command{
	Use:   "records [swap-id]",
	Short: "Show locally mirrored swap records",
	Long: `Show swap records mirrored from the settlement gateway. Without arguments
all records are listed, most recent first.

Examples:
  bit10-swap records
  bit10-swap records --chain base --limit 5
  bit10-swap records 3c7f2a90-6f0e-4f39-9e5a-1f2d3c4b5a69`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().StringVar(&recordsChain, "chain", "", "Only show records for this chain")
	recordsCmd.Flags().IntVar(&recordsLimit, "limit", 0, "Maximum number of records to show (0 for all)")
}

func runRecords(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	storage, err := record.NewStorage(cfg.RecordFilePath)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if len(args) == 1 {
		rec, err := storage.Get(args[0])
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		if jsonOutput {
			jsonData, _ := json.MarshalIndent(rec, "", "  ")
			fmt.Println(string(jsonData))
			return
		}
		displayRecordDetail(rec)
		return
	}

	records := storage.List()
	if recordsChain != "" {
		chain, err := types.ParseChain(recordsChain)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		records = storage.ListByChain(chain)
	}
	if recordsLimit > 0 && len(records) > recordsLimit {
		records = records[:recordsLimit]
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		fmt.Println("\nNo swap records found.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        SWAP RECORDS")
	fmt.Println(strings.Repeat("=", 70))

	for _, rec := range records {
		fmt.Printf("\n  %s  %s  %s\n", rec.Time().Format("2006-01-02 15:04:05"),
			coloredType(rec.Type), color.HiBlackString(string(rec.Network)))
		fmt.Printf("    ID:        %s\n", color.CyanString(rec.SwapID))
		fmt.Printf("    Paid:      %s\n", rec.TokenInAmount)
		fmt.Printf("    Received:  %s\n", rec.TokenOutAmount)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func displayRecordDetail(rec *types.SwapRecord) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        SWAP RECORD")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Swap ID:      %s\n", color.CyanString(rec.SwapID))
	fmt.Printf("  Type:         %s\n", coloredType(rec.Type))
	fmt.Printf("  Chain:        %s\n", rec.Network)
	fmt.Printf("  Paid:         %s %s\n", rec.TokenInAmount, rec.TokenInAddress)
	fmt.Printf("  Received:     %s %s\n", rec.TokenOutAmount, rec.TokenOutAddress)
	if rec.TokenInUSDAmount != "" {
		fmt.Printf("  Paid (USD):   %s\n", rec.TokenInUSDAmount)
	}
	fmt.Printf("  Tx In:        %s\n", color.HiBlackString(rec.TxHashIn))
	if rec.TxHashOut != "" {
		fmt.Printf("  Tx Out:       %s\n", color.HiBlackString(rec.TxHashOut))
	}
	fmt.Printf("  Settled At:   %s\n", rec.Time().Format("2006-01-02 15:04:05"))

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredType(t types.TransactionType) string {
	switch t {
	case types.TransactionBuy:
		return color.GreenString(strings.ToUpper(string(t)))
	case types.TransactionSell:
		return color.RedString(strings.ToUpper(string(t)))
	default:
		return color.YellowString(strings.ToUpper(string(t)))
	}
}
