package balance

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bit10-swap/pkg/types"
)

type stubReader struct {
	balance decimal.Decimal
	err     error
	calls   int
}

func (s *stubReader) Balance(ctx context.Context, account, token string) (decimal.Decimal, error) {
	s.calls++
	return s.balance, s.err
}

func TestManagerBalance(t *testing.T) {
	reader := &stubReader{balance: decimal.RequireFromString("1.23456789")}
	m := NewManager(map[types.Chain]Reader{types.ChainICP: reader})

	got := m.Balance(context.Background(), types.ChainICP, "aaaaa-aa", "")
	assert.True(t, got.Equal(decimal.RequireFromString("1.23456789")))
}

func TestManagerBalance_RPCFailureDegradesToZero(t *testing.T) {
	reader := &stubReader{err: errors.New("connection refused")}
	m := NewManager(map[types.Chain]Reader{types.ChainBase: reader})

	got := m.Balance(context.Background(), types.ChainBase, "0xabc", "")
	assert.True(t, got.IsZero())
}

func TestManagerBalance_UnknownChain(t *testing.T) {
	m := NewManager(map[types.Chain]Reader{})
	got := m.Balance(context.Background(), types.ChainSolana, "acct", "")
	assert.True(t, got.IsZero())
}

func TestManagerBalance_Idempotent(t *testing.T) {
	reader := &stubReader{balance: decimal.RequireFromString("42.5")}
	m := NewManager(map[types.Chain]Reader{types.ChainBSC: reader})

	first := m.Balance(context.Background(), types.ChainBSC, "0xabc", "0xtoken")
	second := m.Balance(context.Background(), types.ChainBSC, "0xabc", "0xtoken")
	assert.True(t, first.Equal(second))
	assert.Equal(t, 2, reader.calls)
}
