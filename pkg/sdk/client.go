// Package sdk is a Go client for the ClawdIn marketplace contract. Reads go
// straight to eth_call; writes are signed locally and broadcast through the
// backend, returning the transaction hash without waiting for inclusion.
package sdk

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/smartdevs17/clawdin/pkg/ethcall"
)

var (
	// ErrWalletNotConnected is returned by writes before Connect is called
	ErrWalletNotConnected = errors.New("wallet not connected: call Connect first")
	// ErrNoCode is returned when a read comes back empty
	ErrNoCode = ethcall.ErrNoCode
)

// Backend is the subset of an Ethereum client the SDK needs. *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client talks to one deployed marketplace contract
type Client struct {
	backend  Backend
	contract common.Address
	abi      abi.ABI

	mu      sync.Mutex
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
}

// NewClient creates a read-only client. chainID may be nil, in which case it
// is fetched from the backend on the first write.
func NewClient(backend Backend, contract common.Address, chainID *big.Int) *Client {
	c := &Client{
		backend:  backend,
		contract: contract,
		abi:      ABI(),
	}
	if chainID != nil {
		c.chainID = new(big.Int).Set(chainID)
	}
	return c
}

// Connect attaches a signing key for write operations
func (c *Client) Connect(key *ecdsa.PrivateKey) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
	c.from = crypto.PubkeyToAddress(key.PublicKey)
	return c
}

// Account returns the connected wallet address
func (c *Client) Account() (common.Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.from, c.key != nil
}

// ContractAddress returns the marketplace address
func (c *Client) ContractAddress() common.Address {
	return c.contract
}

// Read methods

// GetAgent reads the agent registered for wallet. Unregistered wallets come back with a zero Wallet.
func (c *Client) GetAgent(ctx context.Context, wallet common.Address) (*Agent, error) {
	values, err := c.call(ctx, "getAgent", wallet)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(values[0], new(Agent)).(*Agent), nil
}

// GetBounty reads a bounty by id
func (c *Client) GetBounty(ctx context.Context, bountyID *big.Int) (*Bounty, error) {
	values, err := c.call(ctx, "getBounty", bountyID)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(values[0], new(Bounty)).(*Bounty), nil
}

// GetReputation reads the reputation tally for wallet
func (c *Client) GetReputation(ctx context.Context, wallet common.Address) (*Reputation, error) {
	values, err := c.call(ctx, "getReputation", wallet)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(values[0], new(Reputation)).(*Reputation), nil
}

// GetReputationScore reads the 0-100 reputation score for wallet
func (c *Client) GetReputationScore(ctx context.Context, wallet common.Address) (*big.Int, error) {
	return ethcall.Uint(ctx, c.backend, &c.abi, c.contract, "getReputationScore", wallet)
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	return ethcall.Call(ctx, c.backend, &c.abi, c.contract, method, args...)
}

// Write methods

// RegisterAgent registers the connected wallet with a profile metadata URI
func (c *Client) RegisterAgent(ctx context.Context, metadataURI string) (common.Hash, error) {
	return c.transact(ctx, "registerAgent", metadataURI)
}

// UpdateAgent points the connected agent at a new metadata URI
func (c *Client) UpdateAgent(ctx context.Context, metadataURI string) (common.Hash, error) {
	return c.transact(ctx, "updateAgent", metadataURI)
}

// CreateBounty posts a bounty. A nil MinReputation means no reputation gate.
func (c *Client) CreateBounty(ctx context.Context, p CreateBountyParams) (common.Hash, error) {
	if p.Payout == nil || p.Deadline == nil {
		return common.Hash{}, errors.New("create bounty: payout and deadline are required")
	}
	minRep := p.MinReputation
	if minRep == nil {
		minRep = new(big.Int)
	}
	return c.transact(ctx, "createBounty", p.DescriptionURI, p.Payout, p.Deadline, p.SkillCategory, minRep)
}

// ClaimBounty claims an open bounty for the connected wallet
func (c *Client) ClaimBounty(ctx context.Context, bountyID *big.Int) (common.Hash, error) {
	return c.transact(ctx, "claimBounty", bountyID)
}

// SubmitWork submits the work URI for a claimed bounty
func (c *Client) SubmitWork(ctx context.Context, bountyID *big.Int, workURI string) (common.Hash, error) {
	return c.transact(ctx, "submitWork", bountyID, workURI)
}

// ApproveWork releases the payout for submitted work
func (c *Client) ApproveWork(ctx context.Context, bountyID *big.Int) (common.Hash, error) {
	return c.transact(ctx, "approveWork", bountyID)
}

// RejectWork sends submitted work back with a reason
func (c *Client) RejectWork(ctx context.Context, bountyID *big.Int, reason string) (common.Hash, error) {
	return c.transact(ctx, "rejectWork", bountyID, reason)
}

// CancelBounty cancels an unclaimed bounty
func (c *Client) CancelBounty(ctx context.Context, bountyID *big.Int) (common.Hash, error) {
	return c.transact(ctx, "cancelBounty", bountyID)
}

// transact builds, signs and broadcasts a legacy transaction calling method
func (c *Client) transact(ctx context.Context, method string, args ...interface{}) (common.Hash, error) {
	c.mu.Lock()
	key, from := c.key, c.from
	c.mu.Unlock()
	if key == nil {
		return common.Hash{}, ErrWalletNotConnected
	}

	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", method, err)
	}

	chainID, err := c.resolveChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: get nonce: %w", method, err)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: suggest gas price: %w", method, err)
	}

	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:     from,
		To:       &c.contract,
		GasPrice: gasPrice,
		Data:     input,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: estimate gas: %w", method, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &c.contract,
		Value:    new(big.Int),
		Data:     input,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: sign: %w", method, err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("%s: send: %w", method, err)
	}
	return signed.Hash(), nil
}

func (c *Client) resolveChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chainID != nil {
		return c.chainID, nil
	}

	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	c.chainID = id
	return id, nil
}
