package balance

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"bit10-swap/pkg/types"
)

// Token-2022 program; solana-go only ships the legacy SPL program constant
var token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

// SolanaReader reads native SOL and SPL token balances
type SolanaReader struct {
	client *rpc.Client
}

// NewSolanaReader connects to a Solana RPC endpoint
func NewSolanaReader(rpcURL string) (*SolanaReader, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured for Solana")
	}
	return &SolanaReader{client: rpc.New(rpcURL)}, nil
}

// Balance returns the normalized balance for account. For SPL tokens both
// the legacy token program and Token-2022 are checked before concluding zero;
// a missing token account under either program is a valid zero, not an error.
func (r *SolanaReader) Balance(ctx context.Context, account, token string) (decimal.Decimal, error) {
	owner, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid account address: %w", err)
	}

	if token == "" {
		out, err := r.client.GetBalance(ctx, owner, rpc.CommitmentFinalized)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
		}
		return decimal.New(int64(out.Value), -types.SolanaDecimals), nil
	}

	mint, err := solana.PublicKeyFromBase58(token)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid token mint address: %w", err)
	}

	decimals, err := r.mintDecimals(ctx, mint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get mint decimals: %w", err)
	}

	// no account under either program is a valid zero balance
	total := new(big.Int)
	for _, program := range []solana.PublicKey{solana.TokenProgramID, token2022ProgramID} {
		raw, ok, err := r.tokenAccountBalance(ctx, owner, mint, program)
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			total.Add(total, raw)
		}
	}

	return decimal.NewFromBigInt(total, -int32(decimals)), nil
}

// tokenAccountBalance reads the associated token account derived under the
// given token program. Returns ok=false when the account does not exist.
func (r *SolanaReader) tokenAccountBalance(ctx context.Context, owner, mint, program solana.PublicKey) (*big.Int, bool, error) {
	ata, _, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), program.Bytes(), mint.Bytes()},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to derive associated token address: %w", err)
	}

	out, err := r.client.GetTokenAccountBalance(ctx, ata, rpc.CommitmentFinalized)
	if err != nil {
		if strings.Contains(err.Error(), "could not find account") ||
			strings.Contains(err.Error(), "not found") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get token balance: %w", err)
	}
	if out == nil || out.Value == nil {
		return nil, false, nil
	}

	raw, ok := new(big.Int).SetString(out.Value.Amount, 10)
	if !ok {
		return nil, false, fmt.Errorf("failed to parse token balance %q", out.Value.Amount)
	}
	return raw, true, nil
}

// mintDecimals reads the decimals field from the mint account data.
// The field sits at byte offset 44 for both token program layouts.
func (r *SolanaReader) mintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	info, err := r.client.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to get mint account info: %w", err)
	}
	if info.Value == nil {
		return 0, fmt.Errorf("mint account not found")
	}

	data := info.Value.Data.GetBinary()
	if len(data) < 45 {
		return 0, fmt.Errorf("invalid mint account data")
	}
	return data[44], nil
}
