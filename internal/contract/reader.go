package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/clawdin/pkg/ethcall"
	"github.com/smartdevs17/clawdin/pkg/utils"
)

// ErrNoCode is returned when a call comes back empty, i.e. nothing is deployed at the address
var ErrNoCode = ethcall.ErrNoCode

// Caller is the subset of an Ethereum client the reader needs
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
}

// Reader is the read port onto the marketplace contract
type Reader interface {
	Address() common.Address
	NextBountyID(ctx context.Context) (*big.Int, error)
	GetBounty(ctx context.Context, id *big.Int) (*RawBounty, error)
	TotalFeesCollected(ctx context.Context) (*big.Int, error)
	EscrowedBalance(ctx context.Context) (*big.Int, error)
	PlatformFeeBps(ctx context.Context) (*big.Int, error)
	FeeRecipient(ctx context.Context) (common.Address, error)
	BountyActivity(ctx context.Context, id *big.Int, fromBlock uint64) ([]Activity, error)
}

// ContractReader implements Reader with ABI-encoded eth_call requests
type ContractReader struct {
	address common.Address
	caller  Caller
	abi     abi.ABI
	logger  *logrus.Entry
}

// NewContractReader creates a reader for the contract deployed at address
func NewContractReader(address common.Address, caller Caller) *ContractReader {
	return &ContractReader{
		address: address,
		caller:  caller,
		abi:     ABI(),
		logger:  utils.ComponentLogger("contract").WithField("address", address.Hex()),
	}
}

// Address returns the contract address
func (r *ContractReader) Address() common.Address {
	return r.address
}

func (r *ContractReader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	return ethcall.Call(ctx, r.caller, &r.abi, r.address, method, args...)
}

func (r *ContractReader) callUint(ctx context.Context, method string) (*big.Int, error) {
	return ethcall.Uint(ctx, r.caller, &r.abi, r.address, method)
}

// NextBountyID reads the bounty counter; ids below it have been allocated
func (r *ContractReader) NextBountyID(ctx context.Context) (*big.Int, error) {
	return r.callUint(ctx, "nextBountyId")
}

// GetBounty reads one bounty record. Unallocated ids decode with a zero poster.
func (r *ContractReader) GetBounty(ctx context.Context, id *big.Int) (*RawBounty, error) {
	values, err := r.call(ctx, "getBounty", id)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(values[0], new(RawBounty)).(*RawBounty), nil
}

// TotalFeesCollected reads lifetime platform fees
func (r *ContractReader) TotalFeesCollected(ctx context.Context) (*big.Int, error) {
	return r.callUint(ctx, "totalFeesCollected")
}

// EscrowedBalance reads the USDC currently held in escrow
func (r *ContractReader) EscrowedBalance(ctx context.Context) (*big.Int, error) {
	return r.callUint(ctx, "getEscrowedBalance")
}

// PlatformFeeBps reads the platform fee in basis points
func (r *ContractReader) PlatformFeeBps(ctx context.Context) (*big.Int, error) {
	return r.callUint(ctx, "PLATFORM_FEE_BPS")
}

// FeeRecipient reads the fee recipient address
func (r *ContractReader) FeeRecipient(ctx context.Context) (common.Address, error) {
	values, err := r.call(ctx, "feeRecipient")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(values[0], new(common.Address)).(*common.Address), nil
}
