package submit

import (
	"errors"
	"math/big"
	"testing"

	"github.com/aviate-labs/agent-go/candid/idl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bit10-swap/pkg/swap"
)

func TestParseWei(t *testing.T) {
	v, err := parseWei("50000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "50000000000000000", v.String())

	v, err = parseWei("0xde0b6b3a7640000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", v.String())

	_, err = parseWei("not-a-number")
	assert.Error(t, err)
}

func TestDecodeMemo(t *testing.T) {
	memo, err := decodeMemo("0x7377617020626974313074")
	require.NoError(t, err)
	assert.Equal(t, "swap bit10t", string(memo))

	memo, err = decodeMemo("68656c6c6f")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(memo))

	memo, err = decodeMemo("")
	require.NoError(t, err)
	assert.Nil(t, memo)

	_, err = decodeMemo("0xzz")
	assert.Error(t, err)
}

func TestParseRawAmount(t *testing.T) {
	v, err := parseRawAmount("50000000")
	require.NoError(t, err)
	assert.Equal(t, uint64(50000000), v)

	_, err = parseRawAmount("-5")
	assert.Error(t, err)

	_, err = parseRawAmount("99999999999999999999999999")
	assert.Error(t, err)
}

func TestClassifyEVMError(t *testing.T) {
	err := classifyEVMError(errors.New("insufficient funds for gas * price + value"))
	assert.Equal(t, swap.InsufficientFunds, swap.CategoryOf(err))

	err = classifyEVMError(errors.New("user denied transaction signature"))
	assert.Equal(t, swap.WalletRejected, swap.CategoryOf(err))

	err = classifyEVMError(errors.New("i/o timeout"))
	assert.Equal(t, swap.RpcFailure, swap.CategoryOf(err))
}

func TestClassifyApproveError(t *testing.T) {
	err := classifyApproveError(&icrcApproveError{
		InsufficientFunds: &icrcInsufficientFunds{Balance: idl.NewBigNat(big.NewInt(100))},
	})
	assert.Equal(t, swap.InsufficientFunds, swap.CategoryOf(err))

	err = classifyApproveError(&icrcApproveError{
		TemporarilyUnavailable: &idl.Null{},
	})
	assert.Equal(t, swap.RpcFailure, swap.CategoryOf(err))

	err = classifyApproveError(&icrcApproveError{
		GenericError: &icrcGenericError{Message: "caller rejected"},
	})
	assert.Equal(t, swap.WalletRejected, swap.CategoryOf(err))

	err = classifyApproveError(&icrcApproveError{
		Expired: &icrcLedgerTime{LedgerTime: 1},
	})
	assert.Equal(t, swap.WalletRejected, swap.CategoryOf(err))
}

func TestClassifySolanaError(t *testing.T) {
	err := classifySolanaError(errors.New("Transfer: insufficient lamports 100, need 5000000"))
	assert.Equal(t, swap.InsufficientFunds, swap.CategoryOf(err))

	err = classifySolanaError(errors.New("blockhash not found"))
	assert.Equal(t, swap.RpcFailure, swap.CategoryOf(err))
}
