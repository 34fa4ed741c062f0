package submit

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/candid/idl"
	"github.com/aviate-labs/agent-go/principal"
	"github.com/rs/zerolog/log"

	"bit10-swap/pkg/swap"
	"bit10-swap/pkg/types"
	"bit10-swap/pkg/wallet"
)

const (
	// allowance safety margin over the intended transfer amount, tolerating
	// price drift between quote and execution
	allowanceMargin = "1.5"
	// approvals expire shortly after the attempt window closes
	allowanceExpiry = 5 * time.Minute
)

// ICPSubmitter drives the two-step authorize-then-settle flow on ICP: an
// icrc2_approve on the ledger granting the settlement canister an allowance,
// followed by a call to the canister's buy/sell/swap entry point.
type ICPSubmitter struct {
	agent      *agent.Agent
	wallet     wallet.ICPWallet
	settlement principal.Principal
	// decimals maps ledger canister IDs to their token's decimal scale
	decimals map[string]int32
}

type icrcApproveArgs struct {
	FromSubaccount    *[]byte     `ic:"from_subaccount,omitempty"`
	Spender           icrcAccount `ic:"spender"`
	Amount            idl.Nat     `ic:"amount"`
	ExpectedAllowance *idl.Nat    `ic:"expected_allowance,omitempty"`
	ExpiresAt         *uint64     `ic:"expires_at,omitempty"`
	Fee               *idl.Nat    `ic:"fee,omitempty"`
	Memo              *[]byte     `ic:"memo,omitempty"`
	CreatedAtTime     *uint64     `ic:"created_at_time,omitempty"`
}

type icrcAccount struct {
	Owner      principal.Principal `ic:"owner"`
	Subaccount *[]byte             `ic:"subaccount,omitempty"`
}

type icrcApproveError struct {
	BadFee                 *icrcBadFee            `ic:"BadFee,variant"`
	InsufficientFunds      *icrcInsufficientFunds `ic:"InsufficientFunds,variant"`
	AllowanceChanged       *icrcAllowanceChanged  `ic:"AllowanceChanged,variant"`
	Expired                *icrcLedgerTime        `ic:"Expired,variant"`
	TooOld                 *idl.Null              `ic:"TooOld,variant"`
	CreatedInFuture        *icrcLedgerTime        `ic:"CreatedInFuture,variant"`
	Duplicate              *icrcDuplicate         `ic:"Duplicate,variant"`
	TemporarilyUnavailable *idl.Null              `ic:"TemporarilyUnavailable,variant"`
	GenericError           *icrcGenericError      `ic:"GenericError,variant"`
}

type icrcBadFee struct {
	ExpectedFee idl.Nat `ic:"expected_fee"`
}

type icrcInsufficientFunds struct {
	Balance idl.Nat `ic:"balance"`
}

type icrcAllowanceChanged struct {
	CurrentAllowance idl.Nat `ic:"current_allowance"`
}

type icrcLedgerTime struct {
	LedgerTime uint64 `ic:"ledger_time"`
}

type icrcDuplicate struct {
	DuplicateOf idl.Nat `ic:"duplicate_of"`
}

type icrcGenericError struct {
	ErrorCode idl.Nat `ic:"error_code"`
	Message   string  `ic:"message"`
}

type icrcApproveResult struct {
	Ok  *idl.Nat          `ic:"Ok,variant"`
	Err *icrcApproveError `ic:"Err,variant"`
}

type settlementCallArgs struct {
	TokenInAddress  string  `ic:"token_in_address"`
	TokenOutAddress string  `ic:"token_out_address"`
	AmountIn        idl.Nat `ic:"amount_in"`
}

type settlementCallResult struct {
	Ok  *idl.Nat `ic:"Ok,variant"`
	Err *string  `ic:"Err,variant"`
}

// NewICPSubmitter creates a submitter against an IC boundary node, signing
// with the wallet's identity
func NewICPSubmitter(host, settlementCanister string, w wallet.ICPWallet, canisterDecimals map[string]int32) (*ICPSubmitter, error) {
	if host == "" {
		return nil, fmt.Errorf("host not configured for ICP")
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ICP host: %w", err)
	}
	settlementID, err := principal.Decode(settlementCanister)
	if err != nil {
		return nil, fmt.Errorf("invalid settlement canister ID: %w", err)
	}
	a, err := agent.New(agent.Config{
		Identity:     w.Identity(),
		ClientConfig: &agent.ClientConfig{Host: u},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create IC agent: %w", err)
	}
	return &ICPSubmitter{
		agent:      a,
		wallet:     w,
		settlement: settlementID,
		decimals:   canisterDecimals,
	}, nil
}

// RequiresAllowance is true: the settlement canister pulls the tokens via
// the approved allowance
func (s *ICPSubmitter) RequiresAllowance() bool {
	return true
}

// Approve grants the settlement canister an allowance strictly greater than
// the intended amount, with a bounded expiry. A rejected approval leaves no
// partial state pending server-side.
func (s *ICPSubmitter) Approve(ctx context.Context, intent *types.SwapIntent) error {
	ledger, err := principal.Decode(intent.TokenInAddress)
	if err != nil {
		return fmt.Errorf("invalid ledger canister ID: %w", err)
	}

	decimals := types.NativeDecimals(types.ChainICP)
	if d, ok := s.decimals[ledger.Encode()]; ok {
		decimals = d
	}

	raw, err := types.ToRawUnits(intent.TokenInAmount, decimals)
	if err != nil {
		return err
	}
	allowance, err := types.ApplyMargin(raw, allowanceMargin)
	if err != nil {
		return err
	}

	expires := uint64(time.Now().Add(allowanceExpiry).UnixNano())
	args := icrcApproveArgs{
		Spender:   icrcAccount{Owner: s.settlement},
		Amount:    idl.NewBigNat(allowance),
		ExpiresAt: &expires,
	}

	var result icrcApproveResult
	if err := s.agent.Call(ledger, "icrc2_approve", []any{args}, []any{&result}); err != nil {
		return swap.NewError(swap.RpcFailure, fmt.Errorf("icrc2_approve call failed: %w", err))
	}
	if result.Err != nil {
		return classifyApproveError(result.Err)
	}

	log.Info().
		Str("ledger", ledger.Encode()).
		Str("allowance", allowance.String()).
		Msg("allowance approved")
	return nil
}

// Submit invokes the settlement canister entry point named by params.Method.
// The returned ledger block index is the transaction reference.
func (s *ICPSubmitter) Submit(ctx context.Context, params *types.TransferParameters) (types.SubmittedTxRef, error) {
	var ref types.SubmittedTxRef

	if params.Method == "" {
		return ref, fmt.Errorf("settlement authority did not name a canister entry point")
	}

	value, ok := new(big.Int).SetString(params.Value, 10)
	if !ok {
		return ref, fmt.Errorf("invalid value %q", params.Value)
	}

	args := settlementCallArgs{
		TokenInAddress:  params.TokenAddress,
		TokenOutAddress: params.To,
		AmountIn:        idl.NewBigNat(value),
	}

	var result settlementCallResult
	if err := s.agent.Call(s.settlement, params.Method, []any{args}, []any{&result}); err != nil {
		return ref, swap.NewError(swap.RpcFailure, fmt.Errorf("%s call failed: %w", params.Method, err))
	}
	if result.Err != nil {
		return ref, swap.ClassifySettlementError(&types.SettlementError{Message: *result.Err})
	}
	if result.Ok == nil {
		return ref, fmt.Errorf("%s returned an empty result", params.Method)
	}

	blockIndex := result.Ok.BigInt().String()
	log.Info().
		Str("chain", string(types.ChainICP)).
		Str("block_index", blockIndex).
		Msg("transaction submitted")

	return types.SubmittedTxRef{Chain: types.ChainICP, Ref: blockIndex}, nil
}

// Confirm is a no-op on ICP: the canister call returns only after
// canister-internal consensus
func (s *ICPSubmitter) Confirm(ctx context.Context, ref types.SubmittedTxRef) error {
	return nil
}

func classifyApproveError(aerr *icrcApproveError) error {
	switch {
	case aerr.InsufficientFunds != nil:
		return swap.NewError(swap.InsufficientFunds,
			fmt.Errorf("approve rejected: insufficient funds, balance %s", aerr.InsufficientFunds.Balance.BigInt()))
	case aerr.TemporarilyUnavailable != nil:
		return swap.NewError(swap.RpcFailure, fmt.Errorf("approve rejected: ledger temporarily unavailable"))
	case aerr.GenericError != nil:
		return swap.NewError(swap.WalletRejected,
			fmt.Errorf("approve rejected: %s", aerr.GenericError.Message))
	default:
		return swap.NewError(swap.WalletRejected, fmt.Errorf("approve rejected: %+v", aerr))
	}
}
