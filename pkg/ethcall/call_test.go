package ethcall

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterABI = `[
  {"type":"function","name":"count","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
]`

type fakeCaller struct {
	reply []byte
	err   error
	msgs  []ethereum.CallMsg
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.msgs = append(f.msgs, msg)
	return f.reply, f.err
}

func parse(t *testing.T) *abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(counterABI))
	require.NoError(t, err)
	return &parsed
}

func TestUint(t *testing.T) {
	parsed := parse(t)
	reply, err := parsed.Methods["count"].Outputs.Pack(big.NewInt(42))
	require.NoError(t, err)

	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	caller := &fakeCaller{reply: reply}
	v, err := Uint(context.Background(), caller, parsed, to, "count")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())

	require.Len(t, caller.msgs, 1)
	assert.Equal(t, to, *caller.msgs[0].To)
	assert.Equal(t, parsed.Methods["count"].ID, caller.msgs[0].Data)
}

func TestCallPacksArguments(t *testing.T) {
	parsed := parse(t)
	owner := common.HexToAddress("0x2222222222222222222222222222222222222222")
	reply, err := parsed.Methods["owner"].Outputs.Pack(owner)
	require.NoError(t, err)

	caller := &fakeCaller{reply: reply}
	values, err := Call(context.Background(), caller, parsed, common.Address{}, "owner", big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, owner, values[0])

	args, err := parsed.Methods["owner"].Inputs.Unpack(caller.msgs[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, int64(7), args[0].(*big.Int).Int64())
}

func TestCallErrors(t *testing.T) {
	parsed := parse(t)
	ctx := context.Background()

	_, err := Call(ctx, &fakeCaller{}, parsed, common.Address{}, "count")
	assert.ErrorIs(t, err, ErrNoCode)

	rpcErr := errors.New("execution reverted")
	_, err = Call(ctx, &fakeCaller{err: rpcErr}, parsed, common.Address{}, "count")
	assert.ErrorIs(t, err, rpcErr)
	assert.Contains(t, err.Error(), "call count")

	_, err = Call(ctx, &fakeCaller{}, parsed, common.Address{}, "missing")
	assert.Contains(t, err.Error(), "pack missing")

	_, err = Call(ctx, &fakeCaller{reply: []byte{1, 2}}, parsed, common.Address{}, "count")
	assert.Contains(t, err.Error(), "unpack count")
}
