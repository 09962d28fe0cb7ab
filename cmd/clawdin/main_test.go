package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/clawdin/internal/config"
	"github.com/smartdevs17/clawdin/internal/connection"
	"github.com/smartdevs17/clawdin/internal/metrics"
	"github.com/smartdevs17/clawdin/pkg/utils"
)

func newTestApp(contractAddr string) *Application {
	cfg := &config.Config{
		Chain: config.ChainConfig{
			RPCURL:          "http://127.0.0.1:1",
			ChainID:         84532,
			NetworkName:     "Base Sepolia",
			ContractAddress: contractAddr,
			RequestTimeout:  time.Second,
		},
	}
	app := &Application{config: cfg, logger: utils.GetLogger(), metrics: metrics.NewManager()}
	app.connection = connection.NewConnectionManager(&cfg.Chain, app.metrics)
	return app
}

func TestInitializeBountiesWithoutContract(t *testing.T) {
	app := newTestApp("")
	require.NoError(t, app.initializeBounties())

	assert.False(t, app.bounties.Deployed())
	assert.Empty(t, app.bounties.ContractAddress())
}

func TestInitializeBountiesWithContract(t *testing.T) {
	app := newTestApp("0x1111111111111111111111111111111111111111")
	require.NoError(t, app.initializeBounties())

	assert.True(t, app.bounties.Deployed())
	assert.Equal(t, "0x1111111111111111111111111111111111111111", app.bounties.ContractAddress())
}

func TestInitializeBountiesRejectsBadAddress(t *testing.T) {
	app := newTestApp("0x1234")
	err := app.initializeBounties()
	require.Error(t, err)
	assert.True(t, utils.HasCode(err, utils.ErrCodeConfiguration))
}

func TestParseBountyID(t *testing.T) {
	id, err := parseBountyID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.Int64())

	_, err = parseBountyID("abc")
	assert.Error(t, err)
	_, err = parseBountyID("-1")
	assert.Error(t, err)
}

func TestParseWallet(t *testing.T) {
	addr, err := parseWallet("0xa11ce00000000000000000000000000000000001")
	require.NoError(t, err)
	assert.True(t, utils.SameAddress("0xA11CE00000000000000000000000000000000001", addr.Hex()))

	_, err = parseWallet("nope")
	assert.Error(t, err)
}
