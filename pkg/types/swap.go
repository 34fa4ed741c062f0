package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Chain identifies a supported source chain
type Chain string

const (
	ChainICP    Chain = "icp"
	ChainBase   Chain = "base"
	ChainSolana Chain = "solana"
	ChainBSC    Chain = "bsc"
)

// ParseChain normalizes a user-supplied chain name
func ParseChain(s string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "icp", "internet-computer":
		return ChainICP, nil
	case "base":
		return ChainBase, nil
	case "sol", "solana":
		return ChainSolana, nil
	case "bsc", "binance", "bnb":
		return ChainBSC, nil
	default:
		return "", fmt.Errorf("unsupported chain: %s", s)
	}
}

// IsEVM reports whether the chain uses EVM transaction semantics
func (c Chain) IsEVM() bool {
	return c == ChainBase || c == ChainBSC
}

// TransactionType is the direction of a swap relative to the index token
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
	TransactionSwap TransactionType = "swap"
)

// SwapIntent is a user-declared swap request. Amounts are always carried as
// decimal strings; numeric coercion happens only at chain-SDK boundaries.
type SwapIntent struct {
	Type              TransactionType `json:"type"`
	SourceChain       Chain           `json:"source_chain"`
	TokenInAddress    string          `json:"token_in_address"`
	TokenOutAddress   string          `json:"token_out_address"`
	TokenInAmount     string          `json:"token_in_amount"`
	TokenOutAmount    string          `json:"token_out_amount"`
	UserWalletAddress string          `json:"user_wallet_address"`
	// RecipientAddress is required only when the destination chain differs
	// from the source chain.
	RecipientAddress string `json:"recipient_address,omitempty"`
}

// Validate checks the intent before any wallet or network interaction
func (i *SwapIntent) Validate() error {
	if i.SourceChain == "" {
		return fmt.Errorf("source chain is required")
	}
	if i.TokenInAddress == "" || i.TokenOutAddress == "" {
		return fmt.Errorf("token in and token out addresses are required")
	}
	if i.UserWalletAddress == "" {
		return fmt.Errorf("user wallet address is required")
	}
	amt, err := decimal.NewFromString(i.TokenInAmount)
	if err != nil {
		return fmt.Errorf("invalid token in amount %q: %w", i.TokenInAmount, err)
	}
	if !amt.IsPositive() {
		return fmt.Errorf("token in amount must be positive, got %s", i.TokenInAmount)
	}
	return nil
}

// TransferParameters describes the literal on-chain transaction the client
// must submit, as issued by the settlement authority. Immutable once
// returned; bound to exactly one on-chain submission.
type TransferParameters struct {
	Chain Chain `json:"chain"`
	// To is the destination address (EVM contract, Solana account or ICP
	// settlement canister, depending on the chain).
	To string `json:"to"`
	// From is the nominal sender the authority expects the transfer from.
	From string `json:"from"`
	// Value is the transfer amount in the token's smallest unit, decimal string.
	Value string `json:"value"`
	// Data carries hex-encoded call data (EVM) or a hex-encoded memo payload
	// (Solana). Empty when the chain needs neither.
	Data string `json:"data,omitempty"`
	// TokenAddress is the asset being moved; empty means the native coin.
	TokenAddress string `json:"token_address,omitempty"`
	// Method names the settlement canister entry point to invoke (ICP only).
	Method string `json:"method,omitempty"`
}

// SubmittedTxRef is the opaque chain-specific transaction identifier produced
// after a successful on-chain submission. It is the single correlation key
// used to query settlement status.
type SubmittedTxRef struct {
	Chain Chain  `json:"chain"`
	Ref   string `json:"ref"`
}

func (r SubmittedTxRef) String() string {
	return fmt.Sprintf("%s:%s", r.Chain, r.Ref)
}

// SwapRecord is the settled swap as adjudicated by the settlement authority.
// Created once remotely, mirrored into local storage exactly once, never
// mutated thereafter.
type SwapRecord struct {
	SwapID            string          `json:"swap_id"`
	WalletInAddress   string          `json:"wallet_in_address"`
	WalletOutAddress  string          `json:"wallet_out_address"`
	TokenInAddress    string          `json:"token_in_address"`
	TokenOutAddress   string          `json:"token_out_address"`
	TokenInAmount     string          `json:"token_in_amount"`
	TokenOutAmount    string          `json:"token_out_amount"`
	TokenInUSDAmount  string          `json:"token_in_usd_amount"`
	TokenOutUSDAmount string          `json:"token_out_usd_amount"`
	TxHashIn          string          `json:"tx_hash_in"`
	TxHashOut         string          `json:"tx_hash_out"`
	Type              TransactionType `json:"transaction_type"`
	Network           Chain           `json:"network"`
	// TimestampNs is the settlement time with nanosecond precision.
	TimestampNs int64 `json:"timestamp_ns"`
}

// Time converts the nanosecond settlement timestamp to a time.Time
func (r *SwapRecord) Time() time.Time {
	return time.Unix(0, r.TimestampNs).UTC()
}

// SettlementResult is the tagged union returned by settlement adjudication.
// Exactly one of Ok or Err is set.
type SettlementResult struct {
	Ok  *SwapRecord      `json:"ok,omitempty"`
	Err *SettlementError `json:"err,omitempty"`
}

// SettlementError carries a structured code when the authority provides one,
// plus the legacy human-readable message used for fallback classification.
type SettlementError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *SettlementError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("settlement error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("settlement error: %s", e.Message)
}
