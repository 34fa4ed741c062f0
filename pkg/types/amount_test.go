package types_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bit10-swap/pkg/types"
)

func TestToRawUnits(t *testing.T) {
	raw, err := types.ToRawUnits("1.23456789", types.ICPDecimals)
	require.NoError(t, err)
	assert.Equal(t, "123456789", raw.String())

	raw, err = types.ToRawUnits("0.05", types.EVMDecimals)
	require.NoError(t, err)
	assert.Equal(t, "50000000000000000", raw.String())

	raw, err = types.ToRawUnits("2", types.SolanaDecimals)
	require.NoError(t, err)
	assert.Equal(t, "2000000000", raw.String())
}

func TestToRawUnits_TooManyDecimals(t *testing.T) {
	_, err := types.ToRawUnits("0.123456789", types.ICPDecimals)
	assert.Error(t, err)
}

func TestToRawUnits_Invalid(t *testing.T) {
	_, err := types.ToRawUnits("abc", types.EVMDecimals)
	assert.Error(t, err)
}

func TestAmountRoundTrip(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int32
	}{
		{"1.23456789", 8},
		{"0.000000001", 9},
		{"0.05", 18},
		{"1000000", 6},
		{"0.1", 1},
	}
	for _, tc := range cases {
		raw, err := types.ToRawUnits(tc.amount, tc.decimals)
		require.NoError(t, err)
		assert.Equal(t, tc.amount, types.FromRawUnits(raw, tc.decimals), "round trip for %s", tc.amount)
	}
}

func TestApplyMargin(t *testing.T) {
	out, err := types.ApplyMargin(big.NewInt(100000000), "1.5")
	require.NoError(t, err)
	assert.Equal(t, "150000000", out.String())

	// rounds up to the next smallest unit
	out, err = types.ApplyMargin(big.NewInt(3), "1.5")
	require.NoError(t, err)
	assert.Equal(t, "5", out.String())
}

func TestParseChain(t *testing.T) {
	for in, want := range map[string]types.Chain{
		"ICP":    types.ChainICP,
		"base":   types.ChainBase,
		"SOL":    types.ChainSolana,
		"solana": types.ChainSolana,
		"bnb":    types.ChainBSC,
	} {
		got, err := types.ParseChain(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := types.ParseChain("tron")
	assert.Error(t, err)
}

func TestSwapIntentValidate(t *testing.T) {
	intent := &types.SwapIntent{
		Type:              types.TransactionBuy,
		SourceChain:       types.ChainBase,
		TokenInAddress:    "0x0000000000000000000000000000000000000000",
		TokenOutAddress:   "0xbit10top",
		TokenInAmount:     "0.05",
		UserWalletAddress: "0xabc",
	}
	require.NoError(t, intent.Validate())

	bad := *intent
	bad.TokenInAmount = "0"
	assert.Error(t, bad.Validate())

	bad = *intent
	bad.TokenInAmount = "NaN"
	assert.Error(t, bad.Validate())

	bad = *intent
	bad.UserWalletAddress = ""
	assert.Error(t, bad.Validate())
}
