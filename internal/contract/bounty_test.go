package contract

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	raw := sampleRaw()
	b := Decode(&raw)

	assert.Equal(t, "3", b.ID)
	assert.Equal(t, testPoster.Hex(), b.Poster)
	require.NotNil(t, b.Worker)
	assert.Equal(t, testWorker.Hex(), *b.Worker)
	assert.Equal(t, "150000000", b.Payout)
	assert.Equal(t, "150", b.PayoutFormatted)
	assert.Equal(t, uint64(1_900_000_000), b.Deadline)
	assert.Equal(t, StatusClaimed, b.Status)
	require.NotNil(t, b.ClaimedAt)
	assert.Equal(t, uint64(1_700_000_100), *b.ClaimedAt)
	assert.Nil(t, b.SubmittedAt)
	assert.Nil(t, b.WorkHash)
	assert.Len(t, b.DescriptionHash, 66)
}

func TestDecodeUnsetFieldsRenderNull(t *testing.T) {
	raw := emptyRaw()
	raw.Poster = testPoster
	out, err := json.Marshal(Decode(&raw))
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Nil(t, m["worker"])
	assert.Nil(t, m["claimedAt"])
	assert.Nil(t, m["submittedAt"])
	assert.Nil(t, m["workHash"])
	assert.Equal(t, "Open", m["status"])
	assert.Equal(t, "0", m["payoutFormatted"])
}

func TestStatusFromIndex(t *testing.T) {
	assert.Equal(t, StatusOpen, StatusFromIndex(0))
	assert.Equal(t, StatusSubmitted, StatusFromIndex(2))
	assert.Equal(t, StatusExpired, StatusFromIndex(5))
	assert.Equal(t, StatusOpen, StatusFromIndex(9))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "1.5", FormatUnits(big.NewInt(1_500_000), USDCDecimals))
	assert.Equal(t, "0.000001", FormatUnits(big.NewInt(1), USDCDecimals))
	assert.Equal(t, "0", FormatUnits(big.NewInt(0), USDCDecimals))
	assert.Equal(t, "0", FormatUnits(nil, USDCDecimals))
	assert.Equal(t, "2.5", FormatUnits(big.NewInt(250), 2))
}

func TestBigUint64Saturates(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	assert.Equal(t, ^uint64(0), bigUint64(huge))
	assert.Equal(t, uint64(0), bigUint64(big.NewInt(-1)))
}
