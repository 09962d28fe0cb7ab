// Package ethcall runs ABI-encoded view calls against a contract.
package ethcall

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoCode is returned when a call comes back empty, i.e. nothing is deployed at the address
var ErrNoCode = errors.New("no contract code at given address")

// Caller executes eth_call. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Call packs method with args, calls it on to at the latest block and
// unpacks the outputs. An empty reply yields ErrNoCode.
func Call(ctx context.Context, caller Caller, parsed *abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	input, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	output, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("call %s: %w", method, ErrNoCode)
	}

	values, err := parsed.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

// Uint calls a view function returning a single uint
func Uint(ctx context.Context, caller Caller, parsed *abi.ABI, to common.Address, method string, args ...interface{}) (*big.Int, error) {
	values, err := Call(ctx, caller, parsed, to, method, args...)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(values[0], new(big.Int)).(*big.Int), nil
}
