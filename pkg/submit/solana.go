package submit

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	"bit10-swap/pkg/swap"
	"bit10-swap/pkg/types"
	"bit10-swap/pkg/wallet"
)

const (
	solanaConfirmInterval = 2 * time.Second
	solanaConfirmTimeout  = 90 * time.Second
	// fee reserve for signature fees on native transfers
	solanaFeeReserve = 5000

	computeUnitLimit = 200_000
	computeUnitPrice = 1_000 // micro-lamports
)

// SolanaSubmitter submits transfer parameters on Solana. Compute-budget
// instructions, an optional memo and the value transfer are bundled into a
// single transaction built against a fresh blockhash; the associated
// last-valid-block-height bounds confirmation.
type SolanaSubmitter struct {
	client *rpc.Client
	wallet wallet.SolanaWallet

	mu sync.Mutex
	// lastValid records the block height bound for each in-flight signature
	lastValid map[string]uint64
}

// NewSolanaSubmitter connects to a Solana RPC endpoint
func NewSolanaSubmitter(rpcURL string, w wallet.SolanaWallet) (*SolanaSubmitter, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured for Solana")
	}
	return &SolanaSubmitter{
		client:    rpc.New(rpcURL),
		wallet:    w,
		lastValid: make(map[string]uint64),
	}, nil
}

// RequiresAllowance is false on Solana: transfers move tokens directly
func (s *SolanaSubmitter) RequiresAllowance() bool {
	return false
}

// Approve is a no-op on Solana
func (s *SolanaSubmitter) Approve(ctx context.Context, intent *types.SwapIntent) error {
	return nil
}

// Submit builds, signs and broadcasts the transfer described by params
func (s *SolanaSubmitter) Submit(ctx context.Context, params *types.TransferParameters) (types.SubmittedTxRef, error) {
	var ref types.SubmittedTxRef

	recipient, err := solana.PublicKeyFromBase58(params.To)
	if err != nil {
		return ref, fmt.Errorf("invalid recipient address: %w", err)
	}

	amount, err := parseRawAmount(params.Value)
	if err != nil {
		return ref, err
	}

	memo, err := decodeMemo(params.Data)
	if err != nil {
		return ref, err
	}

	var sig solana.Signature
	if params.TokenAddress == "" {
		sig, err = s.sendNative(ctx, recipient, amount, memo)
	} else {
		sig, err = s.sendToken(ctx, recipient, params.TokenAddress, amount, memo)
	}
	if err != nil {
		return ref, err
	}

	log.Info().
		Str("chain", string(types.ChainSolana)).
		Str("signature", sig.String()).
		Msg("transaction submitted")

	return types.SubmittedTxRef{Chain: types.ChainSolana, Ref: sig.String()}, nil
}

// sendNative transfers SOL
func (s *SolanaSubmitter) sendNative(ctx context.Context, recipient solana.PublicKey, amount uint64, memo []byte) (solana.Signature, error) {
	payer := s.wallet.PublicKey()

	out, err := s.client.GetBalance(ctx, payer, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, swap.NewError(swap.RpcFailure, fmt.Errorf("failed to get balance: %w", err))
	}
	if out.Value < amount+solanaFeeReserve {
		return solana.Signature{}, swap.NewError(swap.InsufficientFunds,
			fmt.Errorf("insufficient balance: have %d lamports, need %d lamports including fees",
				out.Value, amount+solanaFeeReserve))
	}

	transfer := system.NewTransferInstruction(amount, payer, recipient).Build()
	return s.sendBundle(ctx, []solana.Instruction{transfer}, memo)
}

// sendToken transfers an SPL token, creating the destination associated
// token account first when it does not exist yet. The account creation is
// submitted and confirmed separately before the transfer goes out.
func (s *SolanaSubmitter) sendToken(ctx context.Context, recipient solana.PublicKey, mintStr string, amount uint64, memo []byte) (solana.Signature, error) {
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("invalid token mint address: %w", err)
	}
	payer := s.wallet.PublicKey()

	source, _, err := solana.FindAssociatedTokenAddress(payer, mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to derive source token account: %w", err)
	}
	dest, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to derive destination token account: %w", err)
	}

	balance, err := s.tokenBalance(ctx, source)
	if err != nil {
		return solana.Signature{}, swap.NewError(swap.RpcFailure, err)
	}
	if balance < amount {
		return solana.Signature{}, swap.NewError(swap.InsufficientFunds,
			fmt.Errorf("insufficient token balance: have %d, need %d", balance, amount))
	}

	exists, err := s.accountExists(ctx, dest)
	if err != nil {
		return solana.Signature{}, swap.NewError(swap.RpcFailure, err)
	}
	if !exists {
		createIx := associatedtokenaccount.NewCreateInstruction(payer, recipient, mint).Build()
		sig, err := s.sendBundle(ctx, []solana.Instruction{createIx}, nil)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to create destination token account: %w", err)
		}
		if err := s.Confirm(ctx, types.SubmittedTxRef{Chain: types.ChainSolana, Ref: sig.String()}); err != nil {
			return solana.Signature{}, fmt.Errorf("destination token account not confirmed: %w", err)
		}
	}

	transfer := token.NewTransferInstruction(amount, source, dest, payer, nil).Build()
	return s.sendBundle(ctx, []solana.Instruction{transfer}, memo)
}

// sendBundle prefixes compute-budget instructions and an optional memo, then
// signs and broadcasts against a fresh blockhash
func (s *SolanaSubmitter) sendBundle(ctx context.Context, instructions []solana.Instruction, memo []byte) (solana.Signature, error) {
	payer := s.wallet.PublicKey()

	bundle := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(computeUnitLimit).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(computeUnitPrice).Build(),
	}
	if len(memo) > 0 {
		bundle = append(bundle, solana.NewInstruction(solana.MemoProgramID, solana.AccountMetaSlice{}, memo))
	}
	bundle = append(bundle, instructions...)

	recent, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, swap.NewError(swap.RpcFailure, fmt.Errorf("failed to get blockhash: %w", err))
	}

	tx, err := solana.NewTransaction(bundle, recent.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := s.wallet.Sign(tx); err != nil {
		return solana.Signature{}, swap.NewError(swap.WalletRejected, err)
	}

	sig, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, classifySolanaError(err)
	}

	s.mu.Lock()
	s.lastValid[sig.String()] = recent.Value.LastValidBlockHeight
	s.mu.Unlock()

	return sig, nil
}

// Confirm polls the signature status until it confirms, the blockhash
// expires past its last valid height, or the bounded timeout elapses
func (s *SolanaSubmitter) Confirm(ctx context.Context, ref types.SubmittedTxRef) error {
	sig, err := solana.SignatureFromBase58(ref.Ref)
	if err != nil {
		return fmt.Errorf("invalid transaction signature: %w", err)
	}

	s.mu.Lock()
	lastValid, bounded := s.lastValid[ref.Ref]
	delete(s.lastValid, ref.Ref)
	s.mu.Unlock()

	ticker := time.NewTicker(solanaConfirmInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(solanaConfirmTimeout)
	defer deadline.Stop()

	for {
		statuses, err := s.client.GetSignatureStatuses(ctx, false, sig)
		if err == nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return swap.NewError(swap.RpcFailure, fmt.Errorf("transaction %s failed: %v", ref.Ref, status.Err))
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		if bounded {
			height, err := s.client.GetBlockHeight(ctx, rpc.CommitmentFinalized)
			if err == nil && height > lastValid {
				return swap.NewError(swap.RpcFailure,
					fmt.Errorf("blockhash for %s expired at height %d", ref.Ref, lastValid))
			}
		}

		select {
		case <-ctx.Done():
			return swap.NewError(swap.RpcFailure, ctx.Err())
		case <-deadline.C:
			return swap.NewError(swap.RpcFailure,
				fmt.Errorf("no confirmation for %s after %s", ref.Ref, solanaConfirmTimeout))
		case <-ticker.C:
		}
	}
}

func (s *SolanaSubmitter) tokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := s.client.GetTokenAccountBalance(ctx, account, rpc.CommitmentFinalized)
	if err != nil {
		if strings.Contains(err.Error(), "could not find account") || strings.Contains(err.Error(), "not found") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get token balance: %w", err)
	}
	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance: %w", err)
	}
	return amount, nil
}

func (s *SolanaSubmitter) accountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	info, err := s.client.GetAccountInfo(ctx, account)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, err
	}
	return info.Value != nil, nil
}

// decodeMemo converts the hex-encoded memo payload from the settlement
// authority into UTF-8 bytes
func decodeMemo(data string) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	memo, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid memo payload: %w", err)
	}
	return memo, nil
}

func parseRawAmount(value string) (uint64, error) {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return 0, fmt.Errorf("invalid value %q", value)
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("value %q out of range", value)
	}
	return v.Uint64(), nil
}

func classifySolanaError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"), strings.Contains(msg, "insufficient lamports"):
		return swap.NewError(swap.InsufficientFunds, err)
	default:
		return swap.NewError(swap.RpcFailure, err)
	}
}
