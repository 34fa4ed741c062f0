// Package wallet provides the signing capabilities the chain submitters
// consume. Capabilities are injected explicitly rather than read from any
// ambient provider, so tests can substitute mocks and a rejection by the
// user surfaces as an error from the capability itself.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/aviate-labs/agent-go/identity"
	"github.com/aviate-labs/agent-go/principal"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

// EVMWallet signs EVM transactions for one account
type EVMWallet interface {
	Address() common.Address
	SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
}

// SolanaWallet signs Solana transactions for one account
type SolanaWallet interface {
	PublicKey() solana.PublicKey
	Sign(tx *solana.Transaction) error
}

// ICPWallet provides the identity used to sign IC calls
type ICPWallet interface {
	Identity() identity.Identity
	Principal() principal.Principal
}

// EVMKeyWallet is a private-key backed EVMWallet
type EVMKeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewEVMKeyWallet parses a hex private key, with or without 0x prefix
func NewEVMKeyWallet(hexKey string) (*EVMKeyWallet, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("private key not configured")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &EVMKeyWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (w *EVMKeyWallet) Address() common.Address {
	return w.address
}

func (w *EVMKeyWallet) SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// SolanaKeyWallet is a private-key backed SolanaWallet
type SolanaKeyWallet struct {
	key    solana.PrivateKey
	pubkey solana.PublicKey
}

// NewSolanaKeyWallet parses a base58 private key
func NewSolanaKeyWallet(base58Key string) (*SolanaKeyWallet, error) {
	if base58Key == "" {
		return nil, fmt.Errorf("private key not configured for Solana")
	}
	key, err := solana.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &SolanaKeyWallet{key: key, pubkey: key.PublicKey()}, nil
}

func (w *SolanaKeyWallet) PublicKey() solana.PublicKey {
	return w.pubkey
}

func (w *SolanaKeyWallet) Sign(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pubkey) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// ICPIdentityWallet is an Ed25519 identity backed ICPWallet
type ICPIdentityWallet struct {
	id *identity.Ed25519Identity
}

// NewICPIdentityWallet loads an Ed25519 identity from a PEM file
func NewICPIdentityWallet(pemPath string) (*ICPIdentityWallet, error) {
	if pemPath == "" {
		return nil, fmt.Errorf("identity PEM path not configured for ICP")
	}
	data, err := os.ReadFile(pemPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity PEM: %w", err)
	}
	id, err := identity.NewEd25519IdentityFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("invalid identity PEM: %w", err)
	}
	return &ICPIdentityWallet{id: id}, nil
}

func (w *ICPIdentityWallet) Identity() identity.Identity {
	return w.id
}

func (w *ICPIdentityWallet) Principal() principal.Principal {
	return w.id.Sender()
}
