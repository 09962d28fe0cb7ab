package sdk

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	marketplace = common.HexToAddress("0x00000000000000000000000000000000c1a3d1e5")
	agentWallet = common.HexToAddress("0xA11CE00000000000000000000000000000000001")
)

func methodByID(selector []byte) (*abi.Method, error) {
	parsed := ABI()
	return parsed.MethodById(selector)
}

// fakeBackend answers reads from canned values and records broadcast transactions
type fakeBackend struct {
	agent      Agent
	bounty     Bounty
	reputation Reputation
	score      *big.Int
	empty      bool

	chainID      *big.Int
	chainIDCalls int
	nonce        uint64
	sent         []*types.Transaction
	estimateErr  error
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.empty {
		return nil, nil
	}
	method, err := methodByID(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "getAgent":
		return method.Outputs.Pack(f.agent)
	case "getBounty":
		return method.Outputs.Pack(f.bounty)
	case "getReputation":
		return method.Outputs.Pack(f.reputation)
	case "getReputationScore":
		return method.Outputs.Pack(f.score)
	}
	return nil, errors.New("unexpected call " + method.Name)
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return 120_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.sent = append(f.sent, tx)
	f.nonce++
	return nil
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	f.chainIDCalls++
	return f.chainID, nil
}

func n(v int64) *big.Int { return big.NewInt(v) }

func TestReads(t *testing.T) {
	backend := &fakeBackend{
		agent: Agent{
			Id: n(7), Wallet: agentWallet, MetadataUri: "ipfs://profile",
			RegisteredAt: n(1_700_000_000), Stake: n(0), Verified: true,
		},
		bounty: Bounty{
			Id: n(3), Poster: agentWallet, DescriptionUri: "ipfs://desc", Payout: n(150_000_000),
			Deadline: n(1_900_000_000), SkillCategory: "coding", MinReputation: n(10), Status: 1,
			CreatedAt: n(1), ClaimedAt: n(2), SubmittedAt: n(0),
		},
		reputation: Reputation{
			JobsCompletedAsWorker: n(47), JobsPostedAsClient: n(3), SuccessfulAsWorker: n(46),
			SuccessfulAsClient: n(3), TotalEarnedUsdc: n(1_175_000_000), TotalPaidUsdc: n(0), LastActivityAt: n(9),
		},
		score: n(98),
	}
	client := NewClient(backend, marketplace, n(84532))
	ctx := context.Background()

	agent, err := client.GetAgent(ctx, agentWallet)
	require.NoError(t, err)
	assert.True(t, agent.Registered())
	assert.Equal(t, "ipfs://profile", agent.MetadataUri)
	assert.True(t, agent.Verified)

	b, err := client.GetBounty(ctx, n(3))
	require.NoError(t, err)
	assert.True(t, b.Exists())
	assert.Equal(t, StatusClaimed, b.State())
	assert.Equal(t, "Claimed", b.State().String())
	assert.Equal(t, "coding", b.SkillCategory)
	assert.Equal(t, 0, b.Payout.Cmp(n(150_000_000)))

	rep, err := client.GetReputation(ctx, agentWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(47), rep.JobsCompletedAsWorker.Int64())

	score, err := client.GetReputationScore(ctx, agentWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(98), score.Int64())
}

func TestReadNoCode(t *testing.T) {
	client := NewClient(&fakeBackend{empty: true}, marketplace, nil)
	_, err := client.GetBounty(context.Background(), n(1))
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestWritesRequireWallet(t *testing.T) {
	backend := &fakeBackend{}
	client := NewClient(backend, marketplace, n(84532))

	_, err := client.ClaimBounty(context.Background(), n(1))
	assert.ErrorIs(t, err, ErrWalletNotConnected)
	_, connected := client.Account()
	assert.False(t, connected)
	assert.Empty(t, backend.sent)
}

func TestClaimBountySignsForChain(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	backend := &fakeBackend{nonce: 5, chainID: n(84532)}
	client := NewClient(backend, marketplace, nil).Connect(key)

	hash, err := client.ClaimBounty(context.Background(), n(42))
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	tx := backend.sent[0]
	assert.Equal(t, tx.Hash(), hash)
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, uint64(120_000), tx.Gas())
	assert.Equal(t, marketplace, *tx.To())
	assert.Equal(t, int64(84532), tx.ChainId().Int64())

	sender, err := types.Sender(types.LatestSignerForChainID(n(84532)), tx)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), sender)

	method, err := methodByID(tx.Data()[:4])
	require.NoError(t, err)
	assert.Equal(t, "claimBounty", method.Name)
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, int64(42), args[0].(*big.Int).Int64())

	// chain id is cached after the first lookup
	_, err = client.CancelBounty(context.Background(), n(42))
	require.NoError(t, err)
	assert.Equal(t, 1, backend.chainIDCalls)
	assert.Equal(t, uint64(6), backend.sent[1].Nonce())
}

func TestCreateBountyDefaultsMinReputation(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	backend := &fakeBackend{}
	client := NewClient(backend, marketplace, n(84532)).Connect(key)

	_, err = client.CreateBounty(context.Background(), CreateBountyParams{
		DescriptionURI: "ipfs://desc",
		Payout:         n(150_000_000),
		Deadline:       n(1_900_000_000),
		SkillCategory:  "coding",
	})
	require.NoError(t, err)

	data := backend.sent[0].Data()
	method, err := methodByID(data[:4])
	require.NoError(t, err)
	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 5)
	assert.Equal(t, "ipfs://desc", args[0])
	assert.Equal(t, "coding", args[3])
	assert.Zero(t, args[4].(*big.Int).Sign())

	_, err = client.CreateBounty(context.Background(), CreateBountyParams{DescriptionURI: "x"})
	assert.Error(t, err)
}

func TestWriteSurfacesBackendErrors(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	backend := &fakeBackend{estimateErr: errors.New("execution reverted: not claimable")}
	client := NewClient(backend, marketplace, n(84532)).Connect(key)

	_, err = client.SubmitWork(context.Background(), n(1), "ipfs://work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estimate gas")
	assert.Empty(t, backend.sent)
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile([]byte(`{
		"displayName": "CodeCraft",
		"description": "Ships production code",
		"skills": [{"category": "coding", "tools": ["go", "node.js"]}],
		"rateCard": {"hourly": "25"},
		"availability": "available"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "CodeCraft", p.DisplayName)
	assert.Equal(t, Available, p.Availability)
	assert.Equal(t, []string{"go", "node.js"}, p.Skills[0].Tools)

	_, err = ParseProfile([]byte(`{"displayName": "x", "availability": "asleep"}`))
	assert.Error(t, err)
	_, err = ParseProfile([]byte(`{"description": "no name"}`))
	assert.Error(t, err)
}
