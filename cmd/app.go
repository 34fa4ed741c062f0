package cmd

import (
	"fmt"

	"bit10-swap/config"
	"bit10-swap/pkg/balance"
	"bit10-swap/pkg/price"
	"bit10-swap/pkg/record"
	"bit10-swap/pkg/settlement"
	"bit10-swap/pkg/submit"
	"bit10-swap/pkg/swap"
	"bit10-swap/pkg/types"
	"bit10-swap/pkg/wallet"
)

// app bundles the wired components a command needs. Chains without signing
// material are wired read-only: their balances remain queryable but swap
// attempts on them fail fast with a configuration error.
type app struct {
	cfg      *config.Config
	balances *balance.Manager
	adapters map[types.Chain]swap.ChainAdapter
	wallets  map[types.Chain]string
	oracle   *price.Oracle
	records  *record.Storage
	notifier *record.Notifier
}

func buildApp(cfg *config.Config) (*app, error) {
	readers := make(map[types.Chain]balance.Reader)
	adapters := make(map[types.Chain]swap.ChainAdapter)
	wallets := make(map[types.Chain]string)

	nativeSymbols := map[types.Chain]string{
		types.ChainBase:   "ETH",
		types.ChainBSC:    "BNB",
		types.ChainSolana: "SOL",
		types.ChainICP:    "ICP",
	}

	for chain, evmCfg := range cfg.EVM {
		if evmCfg.RPCURL == "" {
			continue
		}
		reader, err := balance.NewEVMReader(evmCfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", chain, err)
		}
		readers[chain] = reader

		if evmCfg.PrivateKey == "" {
			continue
		}
		w, err := wallet.NewEVMKeyWallet(evmCfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid %s wallet: %w", chain, err)
		}
		submitter, err := submit.NewEVMSubmitter(chain, evmCfg.RPCURL, evmCfg.ChainID, w)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s submitter: %w", chain, err)
		}
		adapters[chain] = swap.ChainAdapter{
			Balance:      reader,
			Submitter:    submitter,
			NativeSymbol: nativeSymbols[chain],
		}
		wallets[chain] = w.Address().Hex()
	}

	if cfg.Solana.RPCURL != "" {
		reader, err := balance.NewSolanaReader(cfg.Solana.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to solana: %w", err)
		}
		readers[types.ChainSolana] = reader

		if cfg.Solana.PrivateKey != "" {
			w, err := wallet.NewSolanaKeyWallet(cfg.Solana.PrivateKey)
			if err != nil {
				return nil, fmt.Errorf("invalid solana wallet: %w", err)
			}
			submitter, err := submit.NewSolanaSubmitter(cfg.Solana.RPCURL, w)
			if err != nil {
				return nil, fmt.Errorf("failed to create solana submitter: %w", err)
			}
			adapters[types.ChainSolana] = swap.ChainAdapter{
				Balance:      reader,
				Submitter:    submitter,
				NativeSymbol: nativeSymbols[types.ChainSolana],
			}
			wallets[types.ChainSolana] = w.PublicKey().String()
		}
	}

	if cfg.ICP.Host != "" {
		reader, err := balance.NewICPReader(cfg.ICP.Host, cfg.ICP.LedgerCanister, cfg.ICP.CanisterDecimals)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to icp: %w", err)
		}
		readers[types.ChainICP] = reader

		if cfg.ICP.IdentityPEMPath != "" && cfg.ICP.SettlementCanister != "" {
			w, err := wallet.NewICPIdentityWallet(cfg.ICP.IdentityPEMPath)
			if err != nil {
				return nil, fmt.Errorf("invalid icp identity: %w", err)
			}
			submitter, err := submit.NewICPSubmitter(cfg.ICP.Host, cfg.ICP.SettlementCanister, w, cfg.ICP.CanisterDecimals)
			if err != nil {
				return nil, fmt.Errorf("failed to create icp submitter: %w", err)
			}
			adapters[types.ChainICP] = swap.ChainAdapter{
				Balance:      reader,
				Submitter:    submitter,
				NativeSymbol: nativeSymbols[types.ChainICP],
			}
			wallets[types.ChainICP] = w.Principal().Encode()
		}
	}

	records, err := record.NewStorage(cfg.RecordFilePath)
	if err != nil {
		return nil, err
	}

	oracle := price.NewOracle(
		price.NewFeedAPI(cfg.Oracle.URL, cfg.Oracle.APIKey),
		cfg.Oracle.Symbols,
		cfg.Oracle.PollInterval,
	)

	return &app{
		cfg:      cfg,
		balances: balance.NewManager(readers),
		adapters: adapters,
		wallets:  wallets,
		oracle:   oracle,
		records:  records,
		notifier: record.NewNotifier(cfg.TrackingURL),
	}, nil
}

func (a *app) orchestrator() *swap.Orchestrator {
	gateway := settlement.NewClient(a.cfg.GatewayURL, a.cfg.GatewayAPIKey)
	return swap.NewOrchestrator(gateway, a.records, a.oracle, a.adapters)
}
