package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"bit10-swap/pkg/types"
)

// EVMConfig holds connection and signing settings for one EVM network
type EVMConfig struct {
	RPCURL     string
	ChainID    int64
	PrivateKey string
}

// SolanaConfig holds connection and signing settings for Solana
type SolanaConfig struct {
	RPCURL     string
	PrivateKey string
}

// ICPConfig holds connection and identity settings for the Internet Computer
type ICPConfig struct {
	Host               string
	LedgerCanister     string
	SettlementCanister string
	IdentityPEMPath    string
	// CanisterDecimals maps ledger canister IDs to their token decimals,
	// for ledgers whose metadata is not queried at runtime.
	CanisterDecimals map[string]int32
}

// OracleConfig holds the price feed settings
type OracleConfig struct {
	URL          string
	APIKey       string
	PollInterval time.Duration
	Symbols      []string
}

// Config holds the application configuration
type Config struct {
	GatewayURL    string
	GatewayAPIKey string

	EVM    map[types.Chain]EVMConfig
	Solana SolanaConfig
	ICP    ICPConfig
	Oracle OracleConfig

	RecordFilePath string
	TrackingURL    string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".bit10-swap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("gateway_url", "https://backend-91c09684-8fcd-4b6a-93ff-d45c8d8498f6.bit10.app")
	viper.SetDefault("base.rpc_url", "https://mainnet.base.org")
	viper.SetDefault("base.chain_id", 8453)
	viper.SetDefault("bsc.rpc_url", "https://bsc-dataseed.binance.org")
	viper.SetDefault("bsc.chain_id", 56)
	viper.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("icp.host", "https://icp-api.io")
	viper.SetDefault("icp.ledger_canister", "ryjl3-tyaaa-aaaaa-aaaba-cai")
	viper.SetDefault("oracle.url", "https://pro-api.coinmarketcap.com")
	viper.SetDefault("oracle.poll_interval_seconds", 30)
	viper.SetDefault("oracle.symbols", []string{"ETH", "BNB", "SOL", "ICP"})

	// Read from environment variables; nested keys map dots to underscores
	// (base.rpc_url -> BIT10_SWAP_BASE_RPC_URL)
	viper.SetEnvPrefix("BIT10_SWAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	// Create config struct
	cfg := &Config{
		GatewayURL:    viper.GetString("gateway_url"),
		GatewayAPIKey: viper.GetString("gateway_api_key"),
		EVM: map[types.Chain]EVMConfig{
			types.ChainBase: {
				RPCURL:     viper.GetString("base.rpc_url"),
				ChainID:    viper.GetInt64("base.chain_id"),
				PrivateKey: viper.GetString("base.private_key"),
			},
			types.ChainBSC: {
				RPCURL:     viper.GetString("bsc.rpc_url"),
				ChainID:    viper.GetInt64("bsc.chain_id"),
				PrivateKey: viper.GetString("bsc.private_key"),
			},
		},
		Solana: SolanaConfig{
			RPCURL:     viper.GetString("solana.rpc_url"),
			PrivateKey: viper.GetString("solana.private_key"),
		},
		ICP: ICPConfig{
			Host:               viper.GetString("icp.host"),
			LedgerCanister:     viper.GetString("icp.ledger_canister"),
			SettlementCanister: viper.GetString("icp.settlement_canister"),
			IdentityPEMPath:    viper.GetString("icp.identity_pem_path"),
			CanisterDecimals:   canisterDecimals(viper.GetStringMapString("icp.canister_decimals")),
		},
		Oracle: OracleConfig{
			URL:          viper.GetString("oracle.url"),
			APIKey:       viper.GetString("oracle.api_key"),
			PollInterval: time.Duration(viper.GetInt("oracle.poll_interval_seconds")) * time.Second,
			Symbols:      viper.GetStringSlice("oracle.symbols"),
		},
		RecordFilePath: viper.GetString("record_file_path"),
		TrackingURL:    viper.GetString("tracking_url"),
	}

	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("gateway URL not found. Please set BIT10_SWAP_GATEWAY_URL environment variable or create a .bit10-swap.yaml config file")
	}

	globalConfig = cfg
	return cfg, nil
}

func canisterDecimals(raw map[string]string) map[string]int32 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]int32, len(raw))
	for canister, value := range raw {
		var decimals int32
		if _, err := fmt.Sscanf(value, "%d", &decimals); err == nil {
			out[canister] = decimals
		}
	}
	return out
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
