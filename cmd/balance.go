package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bit10-swap/config"
	"bit10-swap/pkg/types"
)

var (
	balanceChain   string
	balanceAccount string
	balanceToken   string
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show a wallet balance on a chain",
	Long: `Show the balance of an account. Without --token the native coin balance is
shown; with --token the balance of that token contract, mint or ledger.

Examples:
  bit10-swap balance --chain base --account 0xabc...
  bit10-swap balance --chain solana --account <pubkey> --token <mint>
  bit10-swap balance --chain icp --account <principal>`,
	Run: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().StringVar(&balanceChain, "chain", "", "Chain to query (REQUIRED)")
	balanceCmd.Flags().StringVar(&balanceAccount, "account", "", "Account to query; defaults to the configured wallet")
	balanceCmd.Flags().StringVar(&balanceToken, "token", "", "Token address; empty for the native coin")
}

func runBalance(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	chain, err := types.ParseChain(balanceChain)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	a, err := buildApp(cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	account := balanceAccount
	if account == "" {
		account = a.wallets[chain]
	}
	if account == "" {
		printError(fmt.Errorf("no account given and no wallet configured for chain %s", chain))
		os.Exit(1)
	}

	reader, err := a.balances.Reader(chain)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching balance..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	amount, err := reader.Balance(ctx, account, balanceToken)

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"chain":   chain,
			"account": account,
			"token":   balanceToken,
			"balance": amount.String(),
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	asset := balanceToken
	if asset == "" {
		asset = "native"
	}
	fmt.Printf("\n  Chain:    %s\n", chain)
	fmt.Printf("  Account:  %s\n", color.CyanString(account))
	fmt.Printf("  Balance:  %s %s\n\n", color.GreenString(amount.String()), asset)
}
