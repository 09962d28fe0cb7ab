// File: cmd/clawdin/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartdevs17/clawdin/internal/bounty"
	"github.com/smartdevs17/clawdin/internal/config"
	"github.com/smartdevs17/clawdin/internal/connection"
	"github.com/smartdevs17/clawdin/internal/contract"
	"github.com/smartdevs17/clawdin/internal/metrics"
	"github.com/smartdevs17/clawdin/internal/server"
	"github.com/smartdevs17/clawdin/internal/storage"
	"github.com/smartdevs17/clawdin/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "0.1.0"

// Application represents the main application
type Application struct {
	config     *config.Config
	logger     *logrus.Logger
	metrics    *metrics.Manager
	connection *connection.ConnectionManager
	storage    storage.Storage
	bounties   *bounty.Service
	server     *server.HTTPServer
	startedAt  time.Time
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	app := &Application{config: cfg}

	if err := app.initializeLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := app.initializeComponents(); err != nil {
		app.Stop()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeLogger initializes the application logger
func (app *Application) initializeLogger() error {
	logCfg := app.config.Logging
	if viper.GetBool("debug") {
		logCfg.Level = "debug"
	} else if viper.IsSet("log-level") {
		logCfg.Level = viper.GetString("log-level")
	}

	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return err
	}

	app.logger = utils.GetLogger()
	app.logger.WithFields(logrus.Fields{
		"level":  logCfg.Level,
		"format": logCfg.Format,
		"output": logCfg.Output,
	}).Info("Logger initialized")

	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	app.logger.Info("Initializing application components")

	app.metrics = metrics.NewManager()

	app.initializeConnection()

	if err := app.initializeStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initializeBounties(); err != nil {
		return fmt.Errorf("failed to initialize bounty service: %w", err)
	}

	app.initializeServer()

	app.logger.Info("All components initialized successfully")
	return nil
}

// initializeConnection sets up the RPC connection manager. Dialing is lazy so
// the API can start while the node is unreachable.
func (app *Application) initializeConnection() {
	app.connection = connection.NewConnectionManager(&app.config.Chain, app.metrics)
	app.logger.WithFields(logrus.Fields{
		"rpc_url": app.config.Chain.RPCURL,
		"backups": len(app.config.Chain.BackupRPCURLs),
	}).Info("Connection manager initialized")
}

// initializeStorage connects and migrates the agent directory database
func (app *Application) initializeStorage() error {
	if !app.config.Storage.StorageEnabled() {
		app.logger.Warn("Storage disabled; agent directory endpoints will answer 503")
		return nil
	}

	store, err := openStorage(app.config)
	if err != nil {
		return err
	}
	app.storage = storage.NewStorageWithMetrics(store, app.metrics)

	app.logger.WithField("type", app.config.Storage.Type).Info("Storage layer initialized successfully")
	return nil
}

// initializeBounties wires the contract reader into the bounty service
func (app *Application) initializeBounties() error {
	chain := app.config.Chain

	// reader stays a nil interface when no contract is configured
	var reader contract.Reader
	if chain.ContractDeployed() {
		if !utils.IsValidAddress(chain.ContractAddress) {
			return utils.NewAppError(utils.ErrCodeConfiguration, "Invalid contract address", chain.ContractAddress)
		}
		caller := connection.NewChainClient(app.connection, app.metrics)
		reader = contract.NewContractReader(common.HexToAddress(chain.ContractAddress), caller)
	} else {
		app.logger.Warn("No contract address configured; bounty endpoints will answer 503")
	}

	app.bounties = bounty.NewService(reader, chain.NetworkName, chain.StartBlock, app.metrics)
	return nil
}

// initializeServer initializes the HTTP server
func (app *Application) initializeServer() {
	serverCfg := &server.ServerConfig{
		Port:          app.config.Server.Port,
		Host:          app.config.Server.Host,
		ReadTimeout:   app.config.Server.ReadTimeout,
		WriteTimeout:  app.config.Server.WriteTimeout,
		EnableMetrics: app.config.Server.EnableMetrics,
		EnableHealth:  app.config.Server.EnableHealth,
	}

	info := server.ServiceInfo{
		Name:        app.config.App.Name,
		Version:     app.config.App.Version,
		Description: app.config.App.Description,
		Network:     app.config.Chain.DisplayNetwork(),
	}

	app.server = server.NewHTTPServer(serverCfg, info, app.bounties, app.storage, app.connection, app.metrics)
}

// Start starts the application
func (app *Application) Start() error {
	app.startedAt = time.Now()
	app.logger.WithFields(logrus.Fields{
		"version":     AppVersion,
		"environment": app.config.App.Environment,
	}).Info("Starting ClawdIn API")

	if err := app.server.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	app.logger.WithFields(logrus.Fields{
		"server_address": app.server.Addr(),
		"rpc_url":        app.config.Chain.RPCURL,
		"contract":       app.bounties.ContractAddress(),
	}).Info("ClawdIn API started successfully")

	return nil
}

// Stop stops the application gracefully
func (app *Application) Stop() error {
	if app.logger != nil {
		app.logger.Info("Stopping ClawdIn API")
	}

	// Stop components in reverse order
	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			app.logger.WithError(err).Error("Failed to stop HTTP server")
		}
	}

	if app.storage != nil {
		if err := app.storage.Close(); err != nil {
			app.logger.WithError(err).Error("Failed to close storage")
		}
	}

	if app.connection != nil {
		if err := app.connection.Close(); err != nil {
			app.logger.WithError(err).Error("Failed to close connection")
		}
	}

	if app.logger != nil {
		app.logger.WithField("uptime", time.Since(app.startedAt).Round(time.Second).String()).Info("ClawdIn API stopped")
	}
	return nil
}

// openStorage builds, connects and migrates the configured store
func openStorage(cfg *config.Config) (storage.Storage, error) {
	store, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to run storage migrations: %w", err)
	}

	return store, nil
}

// loadConfig loads and validates the configuration named by --config
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// CLI Commands

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "clawdin",
	Short:   "ClawdIn marketplace API",
	Long:    `A read-only HTTP API over the ClawdIn bounty marketplace contract, with an off-chain agent directory.`,
	Version: AppVersion,
	RunE:    runServer,
}

// runServer serves the API until SIGINT or SIGTERM
func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(); err != nil {
		app.Stop()
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-ctx.Done()
	fmt.Println("\nReceived shutdown signal, stopping application...")

	return app.Stop()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ClawdIn API %s\n", AppVersion)
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		contractAddr := cfg.Chain.ContractAddress
		if !cfg.Chain.ContractDeployed() {
			contractAddr = "not deployed"
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("Network: %s (chain %d)\n", cfg.Chain.DisplayNetwork(), cfg.Chain.ChainID)
		fmt.Printf("RPC: %s\n", cfg.Chain.RPCURL)
		fmt.Printf("Contract: %s\n", contractAddr)
		fmt.Printf("Database: %s\n", cfg.Storage.Type)

		return nil
	},
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connectivity and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Chain.RequestTimeout)
		defer cancel()

		fmt.Println("Testing ClawdIn API connectivity...")

		fmt.Printf("Testing RPC connection to %s...\n", cfg.Chain.RPCURL)
		conn := connection.NewConnectionManager(&cfg.Chain, nil)
		defer conn.Close()
		if err := conn.HealthCheck(ctx); err != nil {
			return fmt.Errorf("failed to reach RPC node: %w", err)
		}
		stats := conn.Stats()
		fmt.Printf("✓ RPC connection successful (chain %d, block %d, via %s)\n", stats.ChainID, stats.LatestBlock, stats.CurrentURL)
		if int64(stats.ChainID) != cfg.Chain.ChainID {
			fmt.Printf("! Node reports chain %d but configuration expects %d\n", stats.ChainID, cfg.Chain.ChainID)
		}

		if cfg.Chain.ContractDeployed() {
			fmt.Printf("Testing contract at %s...\n", cfg.Chain.ContractAddress)
			reader := contract.NewContractReader(common.HexToAddress(cfg.Chain.ContractAddress), connection.NewChainClient(conn, nil))
			count, err := reader.NextBountyID(ctx)
			if err != nil {
				return fmt.Errorf("failed to read contract: %w", err)
			}
			fmt.Printf("✓ Contract reachable (%s bounties)\n", count.String())
		} else {
			fmt.Println("- No contract configured, skipping contract check")
		}

		if cfg.Storage.StorageEnabled() {
			fmt.Printf("Testing storage connection (%s)...\n", cfg.Storage.Type)
			store, err := storage.NewStorage(&cfg.Storage)
			if err != nil {
				return fmt.Errorf("failed to create storage: %w", err)
			}
			if err := store.Connect(); err != nil {
				return fmt.Errorf("failed to connect to storage: %w", err)
			}
			defer store.Close()
			fmt.Println("✓ Storage connection successful")
		}

		fmt.Println("\nAll connectivity tests passed! ✓")
		return nil
	},
}

// init initializes the CLI commands
func init() {
	// Add persistent flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug mode")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(chainCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
