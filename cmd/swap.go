package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bit10-swap/config"
	"bit10-swap/pkg/swap"
	"bit10-swap/pkg/types"
)

var (
	chainName     string
	tokenInAddr   string
	tokenOutAddr  string
	amountIn      string
	amountOut     string
	recipientAddr string
	noConfirm     bool
)

var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Buy BIT10 index tokens with a chain asset",
	Long: `Buy BIT10 index tokens, paying with an asset on the source chain.

Examples:
  bit10-swap buy --chain base --token-in 0x0000000000000000000000000000000000000000 --token-out 0xb1...top --amount-in 0.05 --amount-out 1.2
  bit10-swap buy --chain icp --token-in ryjl3-tyaaa-aaaaa-aaaba-cai --token-out bin4j-cyaaa-aaaap-qh7tq-cai --amount-in 3 --amount-out 1 --yes`,
	Run: func(cmd *cobra.Command, args []string) {
		runTransaction(cmd, types.TransactionBuy)
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell",
	Short: "Sell BIT10 index tokens back to a chain asset",
	Run: func(cmd *cobra.Command, args []string) {
		runTransaction(cmd, types.TransactionSell)
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Swap between two assets through the settlement gateway",
	Run: func(cmd *cobra.Command, args []string) {
		runTransaction(cmd, types.TransactionSwap)
	},
}

func init() {
	for _, c := range []*cobra.Command{buyCmd, sellCmd, swapCmd} {
		rootCmd.AddCommand(c)

		c.Flags().StringVar(&chainName, "chain", "", "Source chain: icp, base, bsc or solana (REQUIRED)")
		c.Flags().StringVar(&tokenInAddr, "token-in", "", "Address of the token being paid (REQUIRED)")
		c.Flags().StringVar(&tokenOutAddr, "token-out", "", "Address of the token being received (REQUIRED)")
		c.Flags().StringVar(&amountIn, "amount-in", "", "Amount to pay, in whole token units (REQUIRED)")
		c.Flags().StringVar(&amountOut, "amount-out", "", "Expected amount to receive, in whole token units")
		c.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient address when receiving on a different chain")
		c.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	}
}

func runTransaction(cmd *cobra.Command, txType types.TransactionType) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	chain, err := types.ParseChain(chainName)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Load configuration
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

	userWallet, ok := a.wallets[chain]
	if !ok {
		printError(fmt.Errorf("no wallet configured for chain %s", chain))
		os.Exit(1)
	}

	intent := &types.SwapIntent{
		Type:              txType,
		SourceChain:       chain,
		TokenInAddress:    tokenInAddr,
		TokenOutAddress:   tokenOutAddr,
		TokenInAmount:     amountIn,
		TokenOutAmount:    amountOut,
		UserWalletAddress: userWallet,
		RecipientAddress:  recipientAddr,
	}
	if err := intent.Validate(); err != nil {
		printError(err)
		os.Exit(1)
	}

	if !noConfirm && !jsonOutput {
		displayIntent(intent)
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	ctx := context.Background()
	if err := a.oracle.Start(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.oracle.Stop()

	progress := swap.NewProgress()
	if !jsonOutput {
		renderer := newProgressRenderer()
		progress.Subscribe(renderer.render)
		defer renderer.stop()
	}

	record, err := a.orchestrator().Execute(ctx, intent, progress)
	if err != nil {
		if ref := swap.RefOf(err); ref != nil {
			fmt.Printf("\nTransaction reference: %s\n", color.CyanString(ref.String()))
		}
		printError(err)
		os.Exit(1)
	}

	a.notifier.Notify(record)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayRecord(record)
}

func displayIntent(intent *types.SwapIntent) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP REQUEST")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Type:       %s\n", intent.Type)
	fmt.Printf("  Chain:      %s\n", intent.SourceChain)
	fmt.Printf("  Paying:     %s %s\n", intent.TokenInAmount, color.YellowString(intent.TokenInAddress))
	if intent.TokenOutAmount != "" {
		fmt.Printf("  Receiving:  ~%s %s\n", intent.TokenOutAmount, color.YellowString(intent.TokenOutAddress))
	}
	fmt.Printf("  Wallet:     %s\n", color.CyanString(intent.UserWalletAddress))
	if intent.RecipientAddress != "" {
		fmt.Printf("  Recipient:  %s\n", color.CyanString(intent.RecipientAddress))
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func displayRecord(record *types.SwapRecord) {
	printSuccess(color.GreenString("Token swap was successful!"))

	fmt.Printf("  Swap ID:     %s\n", color.CyanString(record.SwapID))
	fmt.Printf("  Transaction: %s\n", color.HiBlackString(record.TxHashIn))
	fmt.Printf("  Paid:        %s\n", record.TokenInAmount)
	fmt.Printf("  Received:    %s\n", record.TokenOutAmount)
	fmt.Printf("  Settled at:  %s\n\n", record.Time().Format("2006-01-02 15:04:05"))
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// progressRenderer draws the step sequence as it advances, keeping a spinner
// on whichever step is currently loading
type progressRenderer struct {
	spinner  *spinner.Spinner
	resolved map[int]bool
}

func newProgressRenderer() *progressRenderer {
	return &progressRenderer{
		spinner:  spinner.New(spinner.CharSets[14], 100*time.Millisecond),
		resolved: make(map[int]bool),
	}
}

func (r *progressRenderer) render(steps []swap.Step) {
	for i, step := range steps {
		switch step.Status {
		case swap.StepLoading:
			r.spinner.Suffix = fmt.Sprintf(" %s...", step.Title)
			if !r.spinner.Active() {
				r.spinner.Start()
			}
		case swap.StepCompleted:
			if r.resolved[i] {
				continue
			}
			r.resolved[i] = true
			r.spinner.Stop()
			color.Green("  ✓ %s", step.Title)
		case swap.StepError:
			if r.resolved[i] {
				continue
			}
			r.resolved[i] = true
			r.spinner.Stop()
			color.Red("  ✗ %s: %s", step.Title, step.Description)
		}
	}
}

func (r *progressRenderer) stop() {
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}
