package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/smartdevs17/clawdin/pkg/utils"
)

// USDCDecimals is the precision payouts and fees are denominated in
const USDCDecimals = 6

// BountyStatus is the lifecycle state reported by the contract
type BountyStatus string

const (
	StatusOpen      BountyStatus = "Open"
	StatusClaimed   BountyStatus = "Claimed"
	StatusSubmitted BountyStatus = "Submitted"
	StatusCompleted BountyStatus = "Completed"
	StatusCancelled BountyStatus = "Cancelled"
	StatusExpired   BountyStatus = "Expired"
)

var statusByIndex = []BountyStatus{
	StatusOpen, StatusClaimed, StatusSubmitted, StatusCompleted, StatusCancelled, StatusExpired,
}

// StatusFromIndex maps the on-chain enum value; unknown values read as Open
func StatusFromIndex(i uint8) BountyStatus {
	if int(i) < len(statusByIndex) {
		return statusByIndex[i]
	}
	return StatusOpen
}

// RawBounty mirrors the getBounty tuple. Field names must match the ABI components.
type RawBounty struct {
	Id              *big.Int
	Poster          common.Address
	Worker          common.Address
	Payout          *big.Int
	Deadline        *big.Int
	Status          uint8
	CreatedAt       *big.Int
	ClaimedAt       *big.Int
	SubmittedAt     *big.Int
	DescriptionHash [32]byte
	WorkHash        [32]byte
}

// Exists reports whether the record was ever written; unset slots have a zero poster
func (r *RawBounty) Exists() bool {
	return r != nil && !utils.IsZeroAddress(r.Poster)
}

// Bounty is the JSON rendering of a bounty snapshot
type Bounty struct {
	ID              string       `json:"id"`
	Poster          string       `json:"poster"`
	Worker          *string      `json:"worker"`
	Payout          string       `json:"payout"`
	PayoutFormatted string       `json:"payoutFormatted"`
	Deadline        uint64       `json:"deadline"`
	Status          BountyStatus `json:"status"`
	CreatedAt       uint64       `json:"createdAt"`
	ClaimedAt       *uint64      `json:"claimedAt"`
	SubmittedAt     *uint64      `json:"submittedAt"`
	DescriptionHash string       `json:"descriptionHash"`
	WorkHash        *string      `json:"workHash"`
}

// Decode converts the raw tuple into its API shape
func Decode(raw *RawBounty) Bounty {
	b := Bounty{
		ID:              bigString(raw.Id),
		Poster:          raw.Poster.Hex(),
		Payout:          bigString(raw.Payout),
		PayoutFormatted: FormatUnits(raw.Payout, USDCDecimals),
		Deadline:        bigUint64(raw.Deadline),
		Status:          StatusFromIndex(raw.Status),
		CreatedAt:       bigUint64(raw.CreatedAt),
		ClaimedAt:       optionalTimestamp(raw.ClaimedAt),
		SubmittedAt:     optionalTimestamp(raw.SubmittedAt),
		DescriptionHash: hexutil.Encode(raw.DescriptionHash[:]),
	}

	if !utils.IsZeroAddress(raw.Worker) {
		worker := raw.Worker.Hex()
		b.Worker = &worker
	}
	if !utils.IsZeroHash(raw.WorkHash) {
		workHash := hexutil.Encode(raw.WorkHash[:])
		b.WorkHash = &workHash
	}
	return b
}

// FormatUnits renders an integer amount with the given number of decimals, trimming trailing zeros
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

func optionalTimestamp(v *big.Int) *uint64 {
	if v == nil || v.Sign() <= 0 {
		return nil
	}
	ts := bigUint64(v)
	return &ts
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// bigUint64 saturates values that do not fit in 64 bits
func bigUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}
