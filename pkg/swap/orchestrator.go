// Package swap drives the end-to-end swap attempt: price validation,
// allowance, intent registration with the settlement authority, on-chain
// submission, confirmation, adjudication and local recording. One
// orchestrator serves every chain through a small adapter interface instead
// of per-chain copies of the control flow.
package swap

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"bit10-swap/pkg/balance"
	"bit10-swap/pkg/types"
)

// State names the orchestrator's position within one attempt
type State string

const (
	StateIdle                       State = "idle"
	StateAuthorizing                State = "authorizing"
	StateAwaitingWalletConfirmation State = "awaiting_wallet_confirmation"
	StateSubmitting                 State = "submitting"
	StateAwaitingChainConfirmation  State = "awaiting_chain_confirmation"
	StateAdjudicating               State = "adjudicating"
	StateSettled                    State = "settled"
	StateFailed                     State = "failed"
)

// Submitter places settlement-issued transactions on one chain
type Submitter interface {
	RequiresAllowance() bool
	Approve(ctx context.Context, intent *types.SwapIntent) error
	Submit(ctx context.Context, params *types.TransferParameters) (types.SubmittedTxRef, error)
	Confirm(ctx context.Context, ref types.SubmittedTxRef) error
}

// SettlementClient registers intents and adjudicates submitted transactions
type SettlementClient interface {
	CreateTransaction(ctx context.Context, intent *types.SwapIntent) (*types.TransferParameters, error)
	ReportTransaction(ctx context.Context, ref types.SubmittedTxRef) (*types.SettlementResult, error)
}

// Recorder mirrors settled swaps into local storage
type Recorder interface {
	Save(record *types.SwapRecord) error
}

// PriceSource exposes the latest spot price for a currency symbol
type PriceSource interface {
	Spot(symbol string) (float64, bool)
}

// ChainAdapter bundles the per-chain collaborators behind one shape
type ChainAdapter struct {
	Balance   balance.Reader
	Submitter Submitter
	// NativeSymbol is the chain's native coin symbol for price validation
	NativeSymbol string
}

// Orchestrator runs swap attempts. At most one attempt is in flight at a
// time; each attempt owns its TransferParameters and SubmittedTxRef, and a
// failed attempt is retried only from scratch with fresh parameters.
type Orchestrator struct {
	settlement SettlementClient
	recorder   Recorder
	prices     PriceSource
	adapters   map[types.Chain]ChainAdapter

	// delay between chain confirmation and adjudication, letting the chain
	// finalize before the authority re-verifies
	graceDelay time.Duration

	mu         sync.Mutex
	submitting bool
	state      State
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithGraceDelay overrides the default post-confirmation grace delay
func WithGraceDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.graceDelay = d }
}

// NewOrchestrator wires the orchestrator's collaborators
func NewOrchestrator(settlement SettlementClient, recorder Recorder, prices PriceSource, adapters map[types.Chain]ChainAdapter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		settlement: settlement,
		recorder:   recorder,
		prices:     prices,
		adapters:   adapters,
		graceDelay: 10 * time.Second,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the state of the current or most recent attempt
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Execute runs one swap attempt end to end, reporting intermediate progress
// through p. On success the settled SwapRecord has been mirrored locally.
func (o *Orchestrator) Execute(ctx context.Context, intent *types.SwapIntent, p *Progress) (*types.SwapRecord, error) {
	o.mu.Lock()
	if o.submitting {
		o.mu.Unlock()
		return nil, fmt.Errorf("a swap attempt is already in flight")
	}
	o.submitting = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.submitting = false
		o.mu.Unlock()
	}()

	record, err := o.execute(ctx, intent, p)
	if err != nil {
		o.setState(StateFailed)
		p.Fail(UserMessage(CategoryOf(err)))
		log.Error().
			Err(err).
			Str("chain", string(intent.SourceChain)).
			Str("category", string(CategoryOf(err))).
			Msg("swap attempt failed")
		return nil, err
	}
	o.setState(StateSettled)
	return record, nil
}

func (o *Orchestrator) execute(ctx context.Context, intent *types.SwapIntent, p *Progress) (*types.SwapRecord, error) {
	adapter, ok := o.adapters[intent.SourceChain]
	if !ok {
		return nil, fmt.Errorf("unsupported chain: %s", intent.SourceChain)
	}

	// price data must be present and numeric before any wallet interaction
	o.setState(StateAuthorizing)
	if err := o.validatePrices(adapter.NativeSymbol); err != nil {
		return nil, err
	}
	if err := intent.Validate(); err != nil {
		return nil, NewError(Unknown, err)
	}

	// local funds fast-fail; a degraded read never blocks the attempt
	if bal, err := adapter.Balance.Balance(ctx, intent.UserWalletAddress, tokenForBalance(intent)); err == nil {
		amount := decimal.RequireFromString(intent.TokenInAmount)
		if bal.LessThan(amount) {
			return nil, NewError(InsufficientFunds,
				fmt.Errorf("balance %s is below the requested amount %s", bal, amount))
		}
	}

	_ = p.Advance(StepAllowance, StepLoading, "")
	_ = p.Advance(StepAllowance, StepCompleted, "")

	o.setState(StateAwaitingWalletConfirmation)
	_ = p.Advance(StepWalletConfirmation, StepLoading, "")
	if adapter.Submitter.RequiresAllowance() {
		if err := adapter.Submitter.Approve(ctx, intent); err != nil {
			return nil, NewError(WalletRejected, fmt.Errorf("approval failed: %w", err))
		}
	}

	// register the intent only after approval succeeded; the returned
	// parameters belong to this attempt alone
	params, err := o.settlement.CreateTransaction(ctx, intent)
	if err != nil {
		return nil, NewError(RpcFailure, err)
	}

	o.setState(StateSubmitting)
	ref, err := adapter.Submitter.Submit(ctx, params)
	if err != nil {
		return nil, NewError(Unknown, err)
	}
	_ = p.Advance(StepWalletConfirmation, StepCompleted, "")

	o.setState(StateAwaitingChainConfirmation)
	_ = p.Advance(StepProcessing, StepLoading, "")
	if err := adapter.Submitter.Confirm(ctx, ref); err != nil {
		return nil, &Error{Category: CategoryOf(err), Ref: &ref, Err: err}
	}

	if err := o.wait(ctx, o.graceDelay); err != nil {
		return nil, &Error{Category: RpcFailure, Ref: &ref, Err: err}
	}

	o.setState(StateAdjudicating)
	result, err := o.settlement.ReportTransaction(ctx, ref)
	if err != nil {
		// the transaction is on-chain but its outcome is unknown; keep the
		// ref for manual reconciliation and never assume success
		return nil, &Error{Category: AdjudicationAmbiguous, Ref: &ref, Err: err}
	}
	if result.Err != nil {
		serr := ClassifySettlementError(result.Err)
		serr.Ref = &ref
		return nil, serr
	}
	_ = p.Advance(StepProcessing, StepCompleted, "")

	record := result.Ok
	if err := o.recorder.Save(record); err != nil {
		// recording is best-effort relative to user-visible success
		log.Warn().Err(err).Str("swap_id", record.SwapID).Msg("failed to mirror swap record")
	}

	_ = p.Advance(StepTransfer, StepCompleted, "Token swap was successful!")
	log.Info().
		Str("swap_id", record.SwapID).
		Str("chain", string(record.Network)).
		Str("tx_in", record.TxHashIn).
		Msg("swap settled")
	return record, nil
}

// validatePrices fails fast when a required price feed is missing or NaN
func (o *Orchestrator) validatePrices(symbols ...string) error {
	for _, symbol := range symbols {
		if symbol == "" {
			continue
		}
		spot, ok := o.prices.Spot(symbol)
		if !ok || math.IsNaN(spot) || spot <= 0 {
			return NewError(PriceUnavailable,
				fmt.Errorf("no usable price for %s", symbol))
		}
	}
	return nil
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// tokenForBalance maps the intent's token-in to the reader's token argument,
// where the chain's native sentinel address means the native coin
func tokenForBalance(intent *types.SwapIntent) string {
	switch intent.TokenInAddress {
	case "0x0000000000000000000000000000000000000000", // EVM native
		"11111111111111111111111111111111": // Solana system program
		return ""
	}
	// on ICP the token address is the ledger canister itself
	return intent.TokenInAddress
}
