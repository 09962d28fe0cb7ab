// Package contracttest provides an in-memory contract.Reader for tests.
package contracttest

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smartdevs17/clawdin/internal/contract"
)

// ErrRPC is the error returned for ids and counters configured to fail
var ErrRPC = errors.New("rpc unavailable")

// Reader serves bounties from memory. Ids in Failing return ErrRPC.
type Reader struct {
	mu sync.Mutex

	ContractAddress common.Address
	Bounties        map[int64]*contract.RawBounty
	Count           int64
	Fees            *big.Int
	Escrow          *big.Int
	FeeBps          *big.Int
	Recipient       common.Address
	Failing         map[int64]bool
	FailCount       bool
	FailStats       bool
	Activity        []contract.Activity

	reads []int64
}

// NewReader creates an empty reader for address
func NewReader(address common.Address) *Reader {
	return &Reader{
		ContractAddress: address,
		Bounties:        make(map[int64]*contract.RawBounty),
		Failing:         make(map[int64]bool),
		Fees:            new(big.Int),
		Escrow:          new(big.Int),
		FeeBps:          new(big.Int),
	}
}

// Add stores a bounty under its id and bumps the counter past it
func (r *Reader) Add(b *contract.RawBounty) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := b.Id.Int64()
	r.Bounties[id] = b
	if id+1 > r.Count {
		r.Count = id + 1
	}
}

// Reads returns the ids passed to GetBounty, in call order
func (r *Reader) Reads() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.reads...)
}

func (r *Reader) Address() common.Address { return r.ContractAddress }

func (r *Reader) NextBountyID(context.Context) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCount {
		return nil, ErrRPC
	}
	return big.NewInt(r.Count), nil
}

func (r *Reader) GetBounty(_ context.Context, id *big.Int) (*contract.RawBounty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.Int64()
	r.reads = append(r.reads, key)
	if r.Failing[key] {
		return nil, ErrRPC
	}
	if b, ok := r.Bounties[key]; ok {
		copied := *b
		return &copied, nil
	}
	return &contract.RawBounty{
		Id: new(big.Int), Payout: new(big.Int), Deadline: new(big.Int),
		CreatedAt: new(big.Int), ClaimedAt: new(big.Int), SubmittedAt: new(big.Int),
	}, nil
}

func (r *Reader) TotalFeesCollected(context.Context) (*big.Int, error) {
	return r.stat(r.Fees)
}

func (r *Reader) EscrowedBalance(context.Context) (*big.Int, error) {
	return r.stat(r.Escrow)
}

func (r *Reader) PlatformFeeBps(context.Context) (*big.Int, error) {
	return r.stat(r.FeeBps)
}

func (r *Reader) FeeRecipient(context.Context) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailStats {
		return common.Address{}, ErrRPC
	}
	return r.Recipient, nil
}

func (r *Reader) BountyActivity(_ context.Context, id *big.Int, _ uint64) ([]contract.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Failing[id.Int64()] {
		return nil, ErrRPC
	}
	var out []contract.Activity
	for _, a := range r.Activity {
		if a.BountyID == id.String() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *Reader) stat(v *big.Int) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailStats {
		return nil, ErrRPC
	}
	return new(big.Int).Set(v), nil
}

// Bounty builds a raw bounty with the given poster, worker and status index
func Bounty(id int64, poster, worker common.Address, status uint8, payout int64) *contract.RawBounty {
	return &contract.RawBounty{
		Id:              big.NewInt(id),
		Poster:          poster,
		Worker:          worker,
		Payout:          big.NewInt(payout),
		Deadline:        big.NewInt(1_900_000_000),
		Status:          status,
		CreatedAt:       big.NewInt(1_700_000_000 + id),
		ClaimedAt:       new(big.Int),
		SubmittedAt:     new(big.Int),
		DescriptionHash: common.BigToHash(big.NewInt(id)),
	}
}
