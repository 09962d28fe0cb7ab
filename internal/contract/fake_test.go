package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeCaller answers eth_call by ABI-encoding canned values for each method
type fakeCaller struct {
	bounties map[int64]RawBounty
	counter  *big.Int
	fees     *big.Int
	escrow   *big.Int
	feeBps   *big.Int
	feeTo    common.Address
	revert   map[int64]bool
	empty    bool
	logs     []types.Log
	lastLogQ ethereum.FilterQuery
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.empty {
		return nil, nil
	}
	parsed := ABI()
	method, err := parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "nextBountyId":
		return method.Outputs.Pack(f.counter)
	case "totalFeesCollected":
		return method.Outputs.Pack(f.fees)
	case "getEscrowedBalance":
		return method.Outputs.Pack(f.escrow)
	case "PLATFORM_FEE_BPS":
		return method.Outputs.Pack(f.feeBps)
	case "feeRecipient":
		return method.Outputs.Pack(f.feeTo)
	case "getBounty":
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		id := args[0].(*big.Int).Int64()
		if f.revert[id] {
			return nil, errors.New("execution reverted")
		}
		raw, ok := f.bounties[id]
		if !ok {
			raw = emptyRaw()
		}
		return method.Outputs.Pack(raw)
	}
	return nil, fmt.Errorf("unexpected method %s", method.Name)
}

func (f *fakeCaller) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.lastLogQ = q
	return f.logs, nil
}

func emptyRaw() RawBounty {
	return RawBounty{
		Id: new(big.Int), Payout: new(big.Int), Deadline: new(big.Int),
		CreatedAt: new(big.Int), ClaimedAt: new(big.Int), SubmittedAt: new(big.Int),
	}
}
