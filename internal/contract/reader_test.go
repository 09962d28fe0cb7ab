package contract

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000c1a3d1e5")
	testPoster   = common.HexToAddress("0xAbCdEf0000000000000000000000000000000001")
	testWorker   = common.HexToAddress("0x1234500000000000000000000000000000000002")
)

func sampleRaw() RawBounty {
	return RawBounty{
		Id:              big.NewInt(3),
		Poster:          testPoster,
		Worker:          testWorker,
		Payout:          big.NewInt(150_000_000),
		Deadline:        big.NewInt(1_900_000_000),
		Status:          1,
		CreatedAt:       big.NewInt(1_700_000_000),
		ClaimedAt:       big.NewInt(1_700_000_100),
		SubmittedAt:     new(big.Int),
		DescriptionHash: common.HexToHash("0xdead"),
		WorkHash:        [32]byte{},
	}
}

func TestContractReaderCounters(t *testing.T) {
	caller := &fakeCaller{
		counter: big.NewInt(12),
		fees:    big.NewInt(2_500_000),
		escrow:  big.NewInt(99_000_000),
		feeBps:  big.NewInt(250),
		feeTo:   testPoster,
	}
	r := NewContractReader(testContract, caller)
	ctx := context.Background()

	next, err := r.NextBountyID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), next.Int64())

	fees, err := r.TotalFeesCollected(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2_500_000), fees.Int64())

	escrow, err := r.EscrowedBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(99_000_000), escrow.Int64())

	bps, err := r.PlatformFeeBps(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(250), bps.Int64())

	recipient, err := r.FeeRecipient(ctx)
	require.NoError(t, err)
	assert.Equal(t, testPoster, recipient)
	assert.Equal(t, testContract, r.Address())
}

func TestContractReaderGetBounty(t *testing.T) {
	caller := &fakeCaller{bounties: map[int64]RawBounty{3: sampleRaw()}}
	r := NewContractReader(testContract, caller)

	raw, err := r.GetBounty(context.Background(), big.NewInt(3))
	require.NoError(t, err)
	assert.True(t, raw.Exists())
	assert.Equal(t, testPoster, raw.Poster)
	assert.Equal(t, testWorker, raw.Worker)
	assert.Equal(t, uint8(1), raw.Status)
	assert.Equal(t, int64(150_000_000), raw.Payout.Int64())

	missing, err := r.GetBounty(context.Background(), big.NewInt(99))
	require.NoError(t, err)
	assert.False(t, missing.Exists())
}

func TestContractReaderNoCode(t *testing.T) {
	r := NewContractReader(testContract, &fakeCaller{empty: true})

	_, err := r.NextBountyID(context.Background())
	require.ErrorIs(t, err, ErrNoCode)
}

func TestContractReaderRevert(t *testing.T) {
	caller := &fakeCaller{revert: map[int64]bool{5: true}}
	r := NewContractReader(testContract, caller)

	_, err := r.GetBounty(context.Background(), big.NewInt(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getBounty")
}

func TestBountyActivity(t *testing.T) {
	parsed := ABI()
	id := common.BigToHash(big.NewInt(3))

	created := parsed.Events["BountyCreated"]
	createdData, err := created.Inputs.NonIndexed().Pack(big.NewInt(150_000_000), big.NewInt(1_900_000_000), [32]byte(common.HexToHash("0xdead")))
	require.NoError(t, err)

	claimed := parsed.Events["BountyClaimed"]

	caller := &fakeCaller{logs: []types.Log{
		{
			Address:     testContract,
			Topics:      []common.Hash{claimed.ID, id, common.BytesToHash(testWorker.Bytes())},
			BlockNumber: 12,
			Index:       0,
			TxHash:      common.HexToHash("0x02"),
		},
		{
			Address:     testContract,
			Topics:      []common.Hash{created.ID, id, common.BytesToHash(testPoster.Bytes())},
			Data:        createdData,
			BlockNumber: 10,
			Index:       4,
			TxHash:      common.HexToHash("0x01"),
		},
		{
			Address: testContract,
			Topics:  []common.Hash{common.HexToHash("0xbeef")},
		},
		{
			Address:     testContract,
			Topics:      []common.Hash{claimed.ID, id, common.BytesToHash(testWorker.Bytes())},
			BlockNumber: 11,
			Removed:     true,
		},
	}}
	r := NewContractReader(testContract, caller)

	activity, err := r.BountyActivity(context.Background(), big.NewInt(3), 100)
	require.NoError(t, err)
	require.Len(t, activity, 2)

	assert.Equal(t, "BountyCreated", activity[0].Event)
	assert.Equal(t, "3", activity[0].BountyID)
	assert.Equal(t, testPoster.Hex(), activity[0].Data["poster"])
	assert.Equal(t, "150000000", activity[0].Data["payout"])
	assert.Equal(t, common.HexToHash("0xdead").Hex(), activity[0].Data["descriptionHash"])

	assert.Equal(t, "BountyClaimed", activity[1].Event)
	assert.Equal(t, testWorker.Hex(), activity[1].Data["worker"])

	require.Len(t, caller.lastLogQ.Topics, 2)
	assert.Len(t, caller.lastLogQ.Topics[0], len(lifecycleEvents))
	assert.Equal(t, []common.Hash{id}, caller.lastLogQ.Topics[1])
	assert.Equal(t, uint64(100), caller.lastLogQ.FromBlock.Uint64())
}
