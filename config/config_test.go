package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bit10-swap/config"
	"bit10-swap/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.GatewayURL)
	assert.Equal(t, int64(8453), cfg.EVM[types.ChainBase].ChainID)
	assert.Equal(t, int64(56), cfg.EVM[types.ChainBSC].ChainID)
	assert.Equal(t, "ryjl3-tyaaa-aaaaa-aaaba-cai", cfg.ICP.LedgerCanister)
	assert.Equal(t, 30*time.Second, cfg.Oracle.PollInterval)
	assert.Contains(t, cfg.Oracle.Symbols, "ICP")
}

func TestLoadNestedEnvKeys(t *testing.T) {
	t.Setenv("BIT10_SWAP_GATEWAY_URL", "https://gateway.test")
	t.Setenv("BIT10_SWAP_BASE_RPC_URL", "https://base-rpc.test")
	t.Setenv("BIT10_SWAP_BASE_PRIVATE_KEY", "deadbeef")
	t.Setenv("BIT10_SWAP_SOLANA_PRIVATE_KEY", "base58key")
	t.Setenv("BIT10_SWAP_ICP_SETTLEMENT_CANISTER", "aaaaa-aa")
	t.Setenv("BIT10_SWAP_ORACLE_POLL_INTERVAL_SECONDS", "45")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://gateway.test", cfg.GatewayURL)
	assert.Equal(t, "https://base-rpc.test", cfg.EVM[types.ChainBase].RPCURL)
	assert.Equal(t, "deadbeef", cfg.EVM[types.ChainBase].PrivateKey)
	assert.Equal(t, "base58key", cfg.Solana.PrivateKey)
	assert.Equal(t, "aaaaa-aa", cfg.ICP.SettlementCanister)
	assert.Equal(t, 45*time.Second, cfg.Oracle.PollInterval)

	// unset keys keep their defaults
	assert.Equal(t, int64(8453), cfg.EVM[types.ChainBase].ChainID)
}
