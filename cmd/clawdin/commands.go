// File: cmd/clawdin/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/smartdevs17/clawdin/internal/config"
	"github.com/smartdevs17/clawdin/internal/connection"
	"github.com/smartdevs17/clawdin/internal/storage"
	"github.com/smartdevs17/clawdin/pkg/sdk"
	"github.com/smartdevs17/clawdin/pkg/utils"
)

// privateKeyEnv names the variable holding the signing key for chain writes
const privateKeyEnv = "CLAWDIN_PRIVATE_KEY"

// dbCmd groups the agent directory database commands
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Agent directory database commands",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStorageConfig()
		if err != nil {
			return err
		}

		store, err := openStorage(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.GetStorageStats()
		if err != nil {
			return err
		}
		fmt.Printf("✓ Schema at version %s (%s)\n", stats.SchemaVersion, cfg.Storage.Type)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo agents, listings and reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStorageConfig()
		if err != nil {
			return err
		}

		store, err := openStorage(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := storage.Seed(cmd.Context(), store, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to seed storage: %w", err)
		}
		fmt.Printf("✓ Seeded %d agents, %d listings, %d reviews\n", result.Agents, result.Listings, result.Reviews)
		return nil
	},
}

// loadStorageConfig is loadConfig for commands that cannot run without a database
func loadStorageConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Storage.StorageEnabled() {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Storage is disabled", "set storage.type to sqlite or postgres")
	}
	return cfg, nil
}

// chainCmd groups direct contract calls made through the SDK
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Call the marketplace contract directly",
}

var chainAgentCmd = &cobra.Command{
	Use:   "agent <wallet>",
	Short: "Show the on-chain agent record for a wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet, err := parseWallet(args[0])
		if err != nil {
			return err
		}
		return withSDK(cmd.Context(), false, func(ctx context.Context, client *sdk.Client) error {
			agent, err := client.GetAgent(ctx, wallet)
			if err != nil {
				return err
			}
			if !agent.Registered() {
				return utils.NewAppError(utils.ErrCodeNotFound, "Agent not registered", wallet.Hex())
			}
			return printJSON(agent)
		})
	},
}

var chainReputationCmd = &cobra.Command{
	Use:   "reputation <wallet>",
	Short: "Show reputation counters and score for a wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet, err := parseWallet(args[0])
		if err != nil {
			return err
		}
		return withSDK(cmd.Context(), false, func(ctx context.Context, client *sdk.Client) error {
			rep, err := client.GetReputation(ctx, wallet)
			if err != nil {
				return err
			}
			score, err := client.GetReputationScore(ctx, wallet)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"wallet":     wallet.Hex(),
				"score":      score.String(),
				"reputation": rep,
			})
		})
	},
}

var chainBountyCmd = &cobra.Command{
	Use:   "bounty <id>",
	Short: "Show the raw on-chain bounty record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBountyID(args[0])
		if err != nil {
			return err
		}
		return withSDK(cmd.Context(), false, func(ctx context.Context, client *sdk.Client) error {
			b, err := client.GetBounty(ctx, id)
			if err != nil {
				return err
			}
			if !b.Exists() {
				return utils.NewAppError(utils.ErrCodeNotFound, "Bounty not found", id.String())
			}
			return printJSON(map[string]interface{}{
				"status": b.State().String(),
				"bounty": b,
			})
		})
	},
}

var chainClaimCmd = &cobra.Command{
	Use:   "claim <id>",
	Short: "Claim an open bounty with the key in " + privateKeyEnv,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBountyID(args[0])
		if err != nil {
			return err
		}
		return withSDK(cmd.Context(), true, func(ctx context.Context, client *sdk.Client) error {
			hash, err := client.ClaimBounty(ctx, id)
			if err != nil {
				return err
			}
			from, _ := client.Account()
			fmt.Printf("✓ Claim sent from %s: %s\n", from.Hex(), hash.Hex())
			return nil
		})
	},
}

var chainCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel an open bounty with the key in " + privateKeyEnv,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBountyID(args[0])
		if err != nil {
			return err
		}
		return withSDK(cmd.Context(), true, func(ctx context.Context, client *sdk.Client) error {
			hash, err := client.CancelBounty(ctx, id)
			if err != nil {
				return err
			}
			from, _ := client.Account()
			fmt.Printf("✓ Cancel sent from %s: %s\n", from.Hex(), hash.Hex())
			return nil
		})
	},
}

// withSDK dials the configured node and hands fn an SDK client. When signer
// is set the client is connected with the key from the environment.
func withSDK(parent context.Context, signer bool, fn func(ctx context.Context, client *sdk.Client) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Chain.ContractDeployed() {
		return utils.NewAppError(utils.ErrCodeConfiguration, "Contract not deployed", "set chain.contract_address or CLAWDIN_CONTRACT")
	}

	ctx, cancel := context.WithTimeout(parent, 2*cfg.Chain.RequestTimeout)
	defer cancel()

	conn := connection.NewConnectionManager(&cfg.Chain, nil)
	defer conn.Close()

	eth, err := conn.GetClient(ctx)
	if err != nil {
		return err
	}

	client := sdk.NewClient(eth, common.HexToAddress(cfg.Chain.ContractAddress), big.NewInt(cfg.Chain.ChainID))
	if signer {
		raw := strings.TrimPrefix(strings.TrimSpace(os.Getenv(privateKeyEnv)), "0x")
		if raw == "" {
			return utils.NewAppError(utils.ErrCodeConfiguration, "Signing key required", privateKeyEnv+" is not set")
		}
		key, err := crypto.HexToECDSA(raw)
		if err != nil {
			return utils.NewAppError(utils.ErrCodeValidation, "Invalid signing key", err.Error())
		}
		client.Connect(key)
	}

	return fn(ctx, client)
}

func parseWallet(s string) (common.Address, error) {
	if !utils.IsValidAddress(s) {
		return common.Address{}, utils.NewAppError(utils.ErrCodeValidation, "Invalid wallet address", s)
	}
	return common.HexToAddress(s), nil
}

func parseBountyID(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(s, 10)
	if !ok || id.Sign() < 0 {
		return nil, utils.NewAppError(utils.ErrCodeValidation, "Invalid bounty id", s)
	}
	return id, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	dbCmd.AddCommand(migrateCmd)
	dbCmd.AddCommand(seedCmd)

	chainCmd.AddCommand(chainAgentCmd)
	chainCmd.AddCommand(chainReputationCmd)
	chainCmd.AddCommand(chainBountyCmd)
	chainCmd.AddCommand(chainClaimCmd)
	chainCmd.AddCommand(chainCancelCmd)
}
