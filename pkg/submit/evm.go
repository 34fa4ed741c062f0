// Package submit places settlement-issued transactions on-chain. One
// submitter per chain, all satisfying the orchestrator's Submitter contract.
package submit

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"bit10-swap/pkg/swap"
	"bit10-swap/pkg/types"
	"bit10-swap/pkg/wallet"
)

const (
	evmConfirmInterval = 3 * time.Second
	evmConfirmTimeout  = 2 * time.Minute
)

// EVMSubmitter submits transfer parameters on an EVM chain (Base, BSC).
// The transaction shape comes verbatim from the settlement authority; no
// local reinterpretation of value or call data.
type EVMSubmitter struct {
	chain   types.Chain
	client  *ethclient.Client
	wallet  wallet.EVMWallet
	chainID *big.Int
}

// NewEVMSubmitter connects to an EVM RPC endpoint
func NewEVMSubmitter(chain types.Chain, rpcURL string, chainID int64, w wallet.EVMWallet) (*EVMSubmitter, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured for %s", chain)
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	return &EVMSubmitter{
		chain:   chain,
		client:  client,
		wallet:  w,
		chainID: big.NewInt(chainID),
	}, nil
}

// RequiresAllowance is false on EVM chains: the authority issues the full
// call data, so no separate approval precedes intent registration.
func (s *EVMSubmitter) RequiresAllowance() bool {
	return false
}

// Approve is a no-op on EVM chains
func (s *EVMSubmitter) Approve(ctx context.Context, intent *types.SwapIntent) error {
	return nil
}

// Submit signs and broadcasts the transaction described by params
func (s *EVMSubmitter) Submit(ctx context.Context, params *types.TransferParameters) (types.SubmittedTxRef, error) {
	var ref types.SubmittedTxRef

	if !common.IsHexAddress(params.To) {
		return ref, fmt.Errorf("invalid destination address: %s", params.To)
	}
	to := common.HexToAddress(params.To)

	value, err := parseWei(params.Value)
	if err != nil {
		return ref, err
	}

	var data []byte
	if params.Data != "" {
		data, err = hexutil.Decode(params.Data)
		if err != nil {
			return ref, fmt.Errorf("invalid call data: %w", err)
		}
	}

	from := s.wallet.Address()

	// local funds check so an underfunded transfer fails before broadcast
	balance, err := s.client.BalanceAt(ctx, from, nil)
	if err != nil {
		return ref, swap.NewError(swap.RpcFailure, fmt.Errorf("failed to get balance: %w", err))
	}
	if balance.Cmp(value) < 0 {
		return ref, swap.NewError(swap.InsufficientFunds,
			fmt.Errorf("insufficient balance: have %s wei, need %s wei", balance, value))
	}

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return ref, swap.NewError(swap.RpcFailure, fmt.Errorf("failed to get nonce: %w", err))
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return ref, swap.NewError(swap.RpcFailure, fmt.Errorf("failed to get gas price: %w", err))
	}

	gasLimit := uint64(21000)
	if len(data) > 0 {
		estimated, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    &to,
			Value: value,
			Data:  data,
		})
		if err != nil {
			return ref, classifyEVMError(err)
		}
		gasLimit = estimated * 120 / 100
	}

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := s.wallet.SignTx(tx, s.chainID)
	if err != nil {
		return ref, swap.NewError(swap.WalletRejected, err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return ref, classifyEVMError(err)
	}

	log.Info().
		Str("chain", string(s.chain)).
		Str("tx", signed.Hash().Hex()).
		Msg("transaction submitted")

	return types.SubmittedTxRef{Chain: s.chain, Ref: signed.Hash().Hex()}, nil
}

// Confirm polls for the transaction receipt until it lands or the bounded
// timeout elapses
func (s *EVMSubmitter) Confirm(ctx context.Context, ref types.SubmittedTxRef) error {
	hash := common.HexToHash(ref.Ref)

	ticker := time.NewTicker(evmConfirmInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(evmConfirmTimeout)
	defer deadline.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status != ethtypes.ReceiptStatusSuccessful {
				return swap.NewError(swap.RpcFailure,
					fmt.Errorf("transaction %s reverted in block %d", ref.Ref, receipt.BlockNumber))
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return swap.NewError(swap.RpcFailure, ctx.Err())
		case <-deadline.C:
			return swap.NewError(swap.RpcFailure,
				fmt.Errorf("no receipt for %s after %s", ref.Ref, evmConfirmTimeout))
		case <-ticker.C:
		}
	}
}

// Close closes the client connection
func (s *EVMSubmitter) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// parseWei accepts the authority's value either as a decimal string or as a
// 0x-prefixed hex quantity
func parseWei(value string) (*big.Int, error) {
	if strings.HasPrefix(value, "0x") {
		v, err := hexutil.DecodeBig(value)
		if err != nil {
			return nil, fmt.Errorf("invalid hex value %q: %w", value, err)
		}
		return v, nil
	}
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid value %q", value)
	}
	return v, nil
}

func classifyEVMError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return swap.NewError(swap.InsufficientFunds, err)
	case strings.Contains(msg, "user denied"), strings.Contains(msg, "rejected"):
		return swap.NewError(swap.WalletRejected, err)
	default:
		return swap.NewError(swap.RpcFailure, err)
	}
}
