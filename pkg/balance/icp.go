package balance

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aviate-labs/agent-go"
	"github.com/aviate-labs/agent-go/candid/idl"
	"github.com/aviate-labs/agent-go/principal"
	"github.com/shopspring/decimal"

	"bit10-swap/pkg/types"
)

// ICPReader reads ICRC-1 ledger balances. Unlike the EVM and Solana readers,
// decimal scales on ICP come from a known per-canister table rather than an
// on-chain read.
type ICPReader struct {
	agent *agent.Agent
	// ledgerID is the native ICP ledger canister
	ledgerID principal.Principal
	// decimals maps ledger canister IDs to their token's decimal scale
	decimals map[string]int32
}

type icrcAccount struct {
	Owner      principal.Principal `ic:"owner"`
	Subaccount *[]byte             `ic:"subaccount,omitempty"`
}

// NewICPReader creates a reader against an IC boundary node
func NewICPReader(host, ledgerCanister string, canisterDecimals map[string]int32) (*ICPReader, error) {
	if host == "" {
		return nil, fmt.Errorf("host not configured for ICP")
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ICP host: %w", err)
	}
	ledgerID, err := principal.Decode(ledgerCanister)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger canister ID: %w", err)
	}
	a, err := agent.New(agent.Config{ClientConfig: &agent.ClientConfig{Host: u}})
	if err != nil {
		return nil, fmt.Errorf("failed to create IC agent: %w", err)
	}
	return &ICPReader{agent: a, ledgerID: ledgerID, decimals: canisterDecimals}, nil
}

// Balance returns the normalized ICRC-1 balance for account. An empty token
// means the native ICP ledger; otherwise token is a ledger canister ID.
func (r *ICPReader) Balance(ctx context.Context, account, token string) (decimal.Decimal, error) {
	owner, err := principal.Decode(account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid account principal: %w", err)
	}

	ledger := r.ledgerID
	if token != "" {
		ledger, err = principal.Decode(token)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid ledger canister ID: %w", err)
		}
	}

	var raw idl.Nat
	err = r.agent.Query(ledger, "icrc1_balance_of", []any{icrcAccount{Owner: owner}}, []any{&raw})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query icrc1_balance_of: %w", err)
	}

	return decimal.NewFromBigInt(raw.BigInt(), -r.ledgerDecimals(ledger)), nil
}

// ledgerDecimals looks up the known decimal scale for a ledger canister,
// falling back to the ICP ledger's 8
func (r *ICPReader) ledgerDecimals(ledger principal.Principal) int32 {
	if d, ok := r.decimals[ledger.Encode()]; ok {
		return d
	}
	return types.ICPDecimals
}
