package swap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"bit10-swap/pkg/types"
)

func TestClassifySettlementError_StructuredCode(t *testing.T) {
	e := ClassifySettlementError(&types.SettlementError{
		Code:    CodeInsufficientBalance,
		Message: "whatever the message says",
	})
	assert.Equal(t, InsufficientFunds, e.Category)

	e = ClassifySettlementError(&types.SettlementError{
		Code:    CodeSupplyExceeded,
		Message: "",
	})
	assert.Equal(t, SupplyExceeded, e.Category)
}

func TestClassifySettlementError_LegacyMessages(t *testing.T) {
	cases := []struct {
		message string
		want    ErrorCategory
	}{
		{"Insufficient balance for swap", InsufficientFunds},
		{"insufficient funds for transfer", InsufficientFunds},
		{"requested amount exceeds available supply", SupplyExceeded},
		{"canister trapped: unreachable", Unknown},
	}
	for _, tc := range cases {
		e := ClassifySettlementError(&types.SettlementError{Message: tc.message})
		assert.Equal(t, tc.want, e.Category, "message %q", tc.message)
	}
}

func TestCategoryOf(t *testing.T) {
	err := NewError(WalletRejected, errors.New("user denied transaction signature"))
	wrapped := fmt.Errorf("submit: %w", err)

	assert.Equal(t, WalletRejected, CategoryOf(wrapped))
	assert.Equal(t, Unknown, CategoryOf(errors.New("plain")))
}

func TestNewErrorPreservesCategory(t *testing.T) {
	inner := NewError(InsufficientFunds, errors.New("balance too low"))
	outer := NewError(RpcFailure, fmt.Errorf("submit: %w", inner))
	assert.Equal(t, InsufficientFunds, outer.Category)
}
