package server

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/clawdin/internal/bounty"
	"github.com/smartdevs17/clawdin/internal/contract"
	"github.com/smartdevs17/clawdin/internal/contract/contracttest"
	"github.com/smartdevs17/clawdin/internal/metrics"
	"github.com/smartdevs17/clawdin/internal/storage"
)

var (
	contractAddr = common.HexToAddress("0x00000000000000000000000000000000c1a3d1e5")
	poster       = common.HexToAddress("0xA11CE00000000000000000000000000000000001")
	worker       = common.HexToAddress("0xB0B0000000000000000000000000000000000002")
)

var testInfo = ServiceInfo{
	Name:        "ClawdIn API",
	Version:     "0.1.0",
	Description: "The professional network for AI agents",
	Network:     "Base Sepolia (testnet)",
}

type testEnv struct {
	reader  *contracttest.Reader
	metrics *metrics.Manager
	handler http.Handler
}

func newReader() *contracttest.Reader {
	r := contracttest.NewReader(contractAddr)
	r.Add(contracttest.Bounty(0, poster, common.Address{}, 0, 150_000_000))
	r.Add(contracttest.Bounty(1, poster, worker, 1, 250_000_000))
	r.Add(contracttest.Bounty(2, worker, common.Address{}, 0, 100_000_000))
	r.Fees = big.NewInt(2_500_000)
	r.Escrow = big.NewInt(500_000_000)
	r.FeeBps = big.NewInt(250)
	r.Recipient = poster
	return r
}

func newEnv(t *testing.T, reader contract.Reader, store storage.Storage) *testEnv {
	t.Helper()
	m := metrics.NewManager()
	svc := bounty.NewService(reader, "Base Sepolia", 0, m)
	srv := NewHTTPServer(&ServerConfig{Host: "127.0.0.1", Port: 0, EnableHealth: true, EnableMetrics: true},
		testInfo, svc, store, nil, m)

	env := &testEnv{metrics: m, handler: srv.Handler()}
	if r, ok := reader.(*contracttest.Reader); ok {
		env.reader = r
	}
	return env
}

func seededStore(t *testing.T) storage.Storage {
	t.Helper()
	store := storage.NewSQLiteStorage(&storage.StorageConfig{
		Type:             "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "clawdin.db"),
		MaxConnections:   2,
	})
	require.NoError(t, store.Connect())
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate())
	_, err := storage.Seed(context.Background(), store, time.Now().UTC())
	require.NoError(t, err)
	return store
}

func (e *testEnv) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var body map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestInfo(t *testing.T) {
	env := newEnv(t, newReader(), nil)

	rec, body := env.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ClawdIn API", body["name"])
	assert.Equal(t, "0.1.0", body["version"])
	assert.Equal(t, "Base Sepolia (testnet)", body["network"])
	assert.Equal(t, contractAddr.Hex(), body["contract"])
	endpoints := body["endpoints"].(map[string]interface{})
	assert.Equal(t, "GET /bounties/:id", endpoints["bounty"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotDeployed(t *testing.T) {
	env := newEnv(t, nil, nil)

	_, body := env.get(t, "/")
	assert.Equal(t, "not deployed", body["contract"])

	for _, path := range []string{"/stats", "/bounties", "/bounties/1", "/bounties/abc", "/bounties/1/activity"} {
		rec, body := env.get(t, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, map[string]interface{}{"error": "Contract not deployed"}, body, path)
	}
}

func TestStats(t *testing.T) {
	env := newEnv(t, newReader(), nil)

	rec, body := env.get(t, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, body["totalBounties"])
	assert.Equal(t, "2.5", body["totalFeesCollected"])
	assert.Equal(t, "500", body["escrowedBalance"])
	assert.Equal(t, 2.5, body["platformFeePercent"])
	assert.Equal(t, poster.Hex(), body["feeRecipient"])
	assert.Equal(t, "Base Sepolia", body["network"])

	env.reader.FailStats = true
	rec, body = env.get(t, "/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch stats", body["error"])
}

func TestListBounties(t *testing.T) {
	env := newEnv(t, newReader(), nil)

	rec, body := env.get(t, "/bounties")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, body["total"])
	assert.Equal(t, 20.0, body["limit"])
	assert.Equal(t, 0.0, body["offset"])
	assert.Equal(t, false, body["hasMore"])

	bounties := body["bounties"].([]interface{})
	require.Len(t, bounties, 3)
	first := bounties[0].(map[string]interface{})
	assert.Equal(t, "2", first["id"])
	assert.Equal(t, "100", first["payoutFormatted"])
	assert.Nil(t, first["worker"])

	_, body = env.get(t, "/bounties?limit=1&offset=1")
	assert.Equal(t, true, body["hasMore"])
	assert.Len(t, body["bounties"], 1)

	_, body = env.get(t, "/bounties?status=claimed&worker="+strings.ToLower(worker.Hex()))
	bounties = body["bounties"].([]interface{})
	require.Len(t, bounties, 1)
	assert.Equal(t, "1", bounties[0].(map[string]interface{})["id"])

	_, body = env.get(t, "/bounties?limit=500&offset=-4")
	assert.Equal(t, 100.0, body["limit"])
	assert.Equal(t, 0.0, body["offset"])

	_, body = env.get(t, "/bounties?limit=abc")
	assert.Equal(t, 20.0, body["limit"])

	rec, body = env.get(t, "/bounties?limit=0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, body["limit"])
	assert.Equal(t, []interface{}{}, body["bounties"])
	assert.Equal(t, true, body["hasMore"])

	_, body = env.get(t, "/bounties?limit=-2")
	assert.Equal(t, []interface{}{}, body["bounties"])

	env.reader.FailCount = true
	rec, body = env.get(t, "/bounties")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch bounties", body["error"])
}

func TestGetBounty(t *testing.T) {
	env := newEnv(t, newReader(), nil)

	rec, body := env.get(t, "/bounties/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", body["id"])
	assert.Equal(t, "Claimed", body["status"])
	assert.Equal(t, worker.Hex(), body["worker"])

	rec, body = env.get(t, "/bounties/42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Bounty not found", body["error"])

	rec, body = env.get(t, "/bounties/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid bounty id", body["error"])

	env.reader.Failing[1] = true
	rec, body = env.get(t, "/bounties/1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch bounty", body["error"])
}

func TestBountyActivity(t *testing.T) {
	reader := newReader()
	reader.Activity = []contract.Activity{
		{Event: "BountyCreated", BountyID: "1", BlockNumber: 10},
		{Event: "BountyClaimed", BountyID: "1", BlockNumber: 12},
	}
	env := newEnv(t, reader, nil)

	rec, body := env.get(t, "/bounties/1/activity")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", body["bountyId"])
	assert.Len(t, body["events"], 2)
}

func TestAgentsWithoutStorage(t *testing.T) {
	env := newEnv(t, newReader(), nil)

	for _, path := range []string{"/agents", "/agents/" + poster.Hex(), "/bounties/1/listing"} {
		rec, body := env.get(t, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "Agent directory not configured", body["error"], path)
	}
}

func TestAgents(t *testing.T) {
	env := newEnv(t, newReader(), seededStore(t))

	rec, body := env.get(t, "/agents")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["agents"], 3)
	assert.Equal(t, 20.0, body["limit"])

	_, body = env.get(t, "/agents?verified=false")
	agents := body["agents"].([]interface{})
	require.Len(t, agents, 1)
	assert.Equal(t, "WriteBot", agents[0].(map[string]interface{})["name"])

	_, body = env.get(t, "/agents?skill=ml-ops")
	assert.Len(t, body["agents"], 1)

	rec, _ = env.get(t, "/agents?verified=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAgent(t *testing.T) {
	env := newEnv(t, newReader(), seededStore(t))

	rec, body := env.get(t, "/agents/0x9ABC000000000000000000000000000000001234")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "WriteBot", body["name"])
	assert.Equal(t, "0x9abc000000000000000000000000000000001234", body["wallet_address"])
	rep := body["reputation"].(map[string]interface{})
	assert.Equal(t, 1.0, rep["jobs_completed"])
	assert.Equal(t, 5.0, rep["avg_rating"])
	assert.Len(t, body["reviews"], 1)

	rec, body = env.get(t, "/agents/0x0000000000000000000000000000000000000bad")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Agent not found", body["error"])

	rec, _ = env.get(t, "/agents/nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBountyListing(t *testing.T) {
	env := newEnv(t, newReader(), seededStore(t))

	rec, body := env.get(t, "/bounties/0/listing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Build a Discord bot for community management", body["title"])

	rec, body = env.get(t, "/bounties/77/listing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Listing not found", body["error"])
}

func TestHealth(t *testing.T) {
	env := newEnv(t, newReader(), seededStore(t))

	rec, body := env.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["deployed"])
	components := body["components"].(map[string]interface{})
	assert.Contains(t, components, "storage")
}

func TestPreflightAndUnknownRoute(t *testing.T) {
	env := newEnv(t, newReader(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/bounties", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")

	rec, body := env.get(t, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", body["error"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newEnv(t, newReader(), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newEnv(t, newReader(), nil)

	env.get(t, "/bounties/1")
	env.get(t, "/bounties/2")

	requests := env.metrics.GetPrometheusMetrics().HTTPRequestsTotal
	assert.Equal(t, 2.0, testutil.ToFloat64(requests.WithLabelValues("GET", "/bounties/{id}", "200")))

	rec, _ := env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	raw, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "clawdin_http_requests_total")
}
