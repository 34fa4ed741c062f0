package balance

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"bit10-swap/pkg/types"
)

// ERC-20 read-only function ABIs
const (
	erc20BalanceOfABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}]`
	erc20DecimalsABI  = `[{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}]`
)

// EVMReader reads native and ERC-20 balances on an EVM chain (Base, BSC)
type EVMReader struct {
	client *ethclient.Client
}

// NewEVMReader connects to an EVM RPC endpoint
func NewEVMReader(rpcURL string) (*EVMReader, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured")
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	return &EVMReader{client: client}, nil
}

// NewEVMReaderWithClient wraps an existing client, mainly for tests
func NewEVMReaderWithClient(client *ethclient.Client) *EVMReader {
	return &EVMReader{client: client}
}

// Balance returns the normalized balance for account. An empty token address
// means the native coin at the fixed 18-decimal scale; for a token contract
// the decimal count is read from the contract, never assumed.
func (r *EVMReader) Balance(ctx context.Context, account, token string) (decimal.Decimal, error) {
	if !common.IsHexAddress(account) {
		return decimal.Zero, fmt.Errorf("invalid account address: %s", account)
	}
	owner := common.HexToAddress(account)

	if token == "" {
		raw, err := r.client.BalanceAt(ctx, owner, nil)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
		}
		return decimal.NewFromBigInt(raw, -types.EVMDecimals), nil
	}

	if !common.IsHexAddress(token) {
		return decimal.Zero, fmt.Errorf("invalid token contract address: %s", token)
	}
	contract := common.HexToAddress(token)

	decimals, err := r.tokenDecimals(ctx, contract)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get token decimals: %w", err)
	}

	raw, err := r.tokenBalance(ctx, contract, owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get token balance: %w", err)
	}

	return decimal.NewFromBigInt(raw, -int32(decimals)), nil
}

// tokenBalance calls balanceOf on the token contract
func (r *EVMReader) tokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	parsedABI, err := abi.JSON(strings.NewReader(erc20BalanceOfABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse balanceOf ABI: %w", err)
	}

	data, err := parsedABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf data: %w", err)
	}

	result, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}

// tokenDecimals calls decimals() on the token contract
func (r *EVMReader) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	parsedABI, err := abi.JSON(strings.NewReader(erc20DecimalsABI))
	if err != nil {
		return 0, fmt.Errorf("failed to parse decimals ABI: %w", err)
	}

	data, err := parsedABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to pack decimals data: %w", err)
	}

	result, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to call decimals: %w", err)
	}
	if len(result) == 0 {
		return 0, fmt.Errorf("empty decimals response from %s", token.Hex())
	}

	return uint8(new(big.Int).SetBytes(result).Uint64()), nil
}

// Close closes the underlying RPC connection
func (r *EVMReader) Close() {
	if r.client != nil {
		r.client.Close()
	}
}
