// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Chain   ChainConfig   `mapstructure:"chain"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Description string `mapstructure:"description"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ChainConfig contains the RPC endpoint and deployed contract addresses
type ChainConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	BackupRPCURLs   []string      `mapstructure:"backup_rpc_urls"`
	ChainID         int64         `mapstructure:"chain_id"`
	NetworkName     string        `mapstructure:"network_name"`
	ContractAddress string        `mapstructure:"contract_address"`
	USDCAddress     string        `mapstructure:"usdc_address"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	StartBlock      uint64        `mapstructure:"start_block"`
}

// StorageConfig contains database configuration
type StorageConfig struct {
	Type             string        `mapstructure:"type"` // sqlite, postgres, none
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// ContractDeployed reports whether a marketplace contract address is configured
func (c ChainConfig) ContractDeployed() bool {
	return strings.TrimSpace(c.ContractAddress) != ""
}

// testnetChainIDs are the chains GET / labels as testnets
var testnetChainIDs = map[int64]bool{
	84532:    true, // Base Sepolia
	11155111: true, // Sepolia
	31:       true, // RSK testnet
}

// DisplayNetwork is the network name as shown to API clients
func (c ChainConfig) DisplayNetwork() string {
	if testnetChainIDs[c.ChainID] {
		return c.NetworkName + " (testnet)"
	}
	return c.NetworkName
}

// StorageEnabled reports whether the agent directory has a database behind it
func (c StorageConfig) StorageEnabled() bool {
	t := strings.ToLower(strings.TrimSpace(c.Type))
	return t != "" && t != "none"
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// A .env file is optional; only a malformed one is an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./internal/config")
	}

	v.SetEnvPrefix("CLAWDIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyEnvOverrides(&config)

	return &config, nil
}

// applyEnvOverrides honours the deployment variable names used by the worker bindings
func applyEnvOverrides(config *Config) {
	if contract := os.Getenv("CLAWDIN_CONTRACT"); contract != "" {
		config.Chain.ContractAddress = contract
	}
	if rpcURL := os.Getenv("BASE_SEPOLIA_RPC_URL"); rpcURL != "" {
		config.Chain.RPCURL = rpcURL
	}
	if usdc := os.Getenv("USDC_CONTRACT"); usdc != "" {
		config.Chain.USDCAddress = usdc
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Storage.ConnectionString = dbURL
	}
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ClawdIn API")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.description", "The professional network for AI agents")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Base Sepolia
	v.SetDefault("chain.rpc_url", "https://sepolia.base.org")
	v.SetDefault("chain.chain_id", 84532)
	v.SetDefault("chain.network_name", "Base Sepolia")
	v.SetDefault("chain.contract_address", "")
	v.SetDefault("chain.usdc_address", "0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	v.SetDefault("chain.request_timeout", "15s")
	v.SetDefault("chain.start_block", 0)

	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.connection_string", "./data/clawdin.db")
	v.SetDefault("storage.max_connections", 10)
	v.SetDefault("storage.max_idle_time", "15m")

	v.SetDefault("server.port", 8787)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.enable_metrics", true)
	v.SetDefault("server.enable_health", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain RPC URL is required")
	}
	if c.Chain.ContractDeployed() && !common.IsHexAddress(c.Chain.ContractAddress) {
		return fmt.Errorf("contract address %q is not a valid address", c.Chain.ContractAddress)
	}
	if c.Chain.USDCAddress != "" && !common.IsHexAddress(c.Chain.USDCAddress) {
		return fmt.Errorf("USDC address %q is not a valid address", c.Chain.USDCAddress)
	}
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("chain id must be positive")
	}
	if c.Storage.StorageEnabled() && c.Storage.ConnectionString == "" {
		return fmt.Errorf("storage connection string is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	return nil
}
