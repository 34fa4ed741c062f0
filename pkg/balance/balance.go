package balance

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"bit10-swap/pkg/types"
)

// Reader returns normalized balances for one chain. An empty token address
// means the chain's native coin.
type Reader interface {
	Balance(ctx context.Context, account, token string) (decimal.Decimal, error)
}

// Manager dispatches balance reads to per-chain readers and degrades RPC
// failures to a zero balance. A failed read is never an error for the
// caller; polling self-heals on the next cycle.
type Manager struct {
	readers map[types.Chain]Reader
}

// NewManager creates a manager over the given per-chain readers
func NewManager(readers map[types.Chain]Reader) *Manager {
	return &Manager{readers: readers}
}

// Balance reads the balance for an account on a chain. RPC failures are
// logged and reported as zero.
func (m *Manager) Balance(ctx context.Context, chain types.Chain, account, token string) decimal.Decimal {
	reader, ok := m.readers[chain]
	if !ok {
		log.Warn().Str("chain", string(chain)).Msg("no balance reader configured")
		return decimal.Zero
	}

	bal, err := reader.Balance(ctx, account, token)
	if err != nil {
		log.Warn().
			Err(err).
			Str("chain", string(chain)).
			Str("account", account).
			Str("token", token).
			Msg("balance read failed, reporting zero")
		return decimal.Zero
	}
	return bal
}

// Reader returns the configured reader for a chain
func (m *Manager) Reader(chain types.Chain) (Reader, error) {
	reader, ok := m.readers[chain]
	if !ok {
		return nil, fmt.Errorf("no balance reader for chain %s", chain)
	}
	return reader, nil
}
