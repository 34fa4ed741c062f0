package swap

import (
	"errors"
	"fmt"
	"strings"

	"bit10-swap/pkg/types"
)

// ErrorCategory classifies swap-attempt failures for user-facing reporting
type ErrorCategory string

const (
	// PriceUnavailable means required price feeds were missing or NaN.
	// Fails fast before any wallet interaction.
	PriceUnavailable ErrorCategory = "price_unavailable"
	// WalletRejected means the user declined a connect, approve or sign
	// prompt. Retryable immediately.
	WalletRejected ErrorCategory = "wallet_rejected"
	// InsufficientFunds was detected locally or by settlement adjudication.
	InsufficientFunds ErrorCategory = "insufficient_funds"
	// SupplyExceeded means the requested amount exceeds available supply.
	SupplyExceeded ErrorCategory = "supply_exceeded"
	// RpcFailure is a transient chain RPC error during submission or
	// confirmation.
	RpcFailure ErrorCategory = "rpc_failure"
	// AdjudicationAmbiguous means reporting the transaction failed for an
	// unrecognized reason. The swap may or may not have settled; the ref is
	// kept for manual reconciliation and the attempt is never reported as a
	// success.
	AdjudicationAmbiguous ErrorCategory = "adjudication_ambiguous"
	// Unknown is the catch-all. Always surfaced with a generic retry prompt.
	Unknown ErrorCategory = "unknown"
)

// Structured error codes the settlement authority may return
const (
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeSupplyExceeded      = "SUPPLY_EXCEEDED"
)

// Error is a categorized swap-attempt failure
type Error struct {
	Category ErrorCategory
	// Ref is set when a transaction reached the chain before the failure.
	Ref *types.SubmittedTxRef
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	}
	return string(e.Category)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a category, preserving an existing category if err
// is already classified
func NewError(category ErrorCategory, err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Category: category, Err: err}
}

// CategoryOf extracts the category from an error chain, defaulting to Unknown
func CategoryOf(err error) ErrorCategory {
	var se *Error
	if errors.As(err, &se) {
		return se.Category
	}
	return Unknown
}

// RefOf extracts the on-chain transaction ref from an error chain, if the
// failure happened after submission
func RefOf(err error) *types.SubmittedTxRef {
	var se *Error
	if errors.As(err, &se) {
		return se.Ref
	}
	return nil
}

// ClassifySettlementError maps an adjudication error onto the taxonomy.
// Structured codes are authoritative; English-substring matching is kept only
// as a fallback for legacy authority versions.
func ClassifySettlementError(serr *types.SettlementError) *Error {
	switch serr.Code {
	case CodeInsufficientBalance:
		return &Error{Category: InsufficientFunds, Err: serr}
	case CodeSupplyExceeded:
		return &Error{Category: SupplyExceeded, Err: serr}
	}

	msg := strings.ToLower(serr.Message)
	switch {
	case strings.Contains(msg, "insufficient balance"),
		strings.Contains(msg, "insufficient funds"):
		return &Error{Category: InsufficientFunds, Err: serr}
	case strings.Contains(msg, "supply"):
		return &Error{Category: SupplyExceeded, Err: serr}
	default:
		return &Error{Category: Unknown, Err: serr}
	}
}

// UserMessage renders a short, user-facing description for a category
func UserMessage(category ErrorCategory) string {
	switch category {
	case PriceUnavailable:
		return "Price data is unavailable. Please try again once prices recover."
	case WalletRejected:
		return "The wallet request was rejected. You can retry immediately."
	case InsufficientFunds:
		return "Insufficient balance for this swap."
	case SupplyExceeded:
		return "Requested amount exceeds the available supply. Try a smaller amount."
	case RpcFailure:
		return "A network error interrupted the swap. Please retry."
	case AdjudicationAmbiguous:
		return "The swap outcome could not be confirmed. Check your transaction before retrying."
	default:
		return "Something went wrong. Please try again."
	}
}
