package server

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/smartdevs17/clawdin/internal/bounty"
	"github.com/smartdevs17/clawdin/internal/models"
	"github.com/smartdevs17/clawdin/pkg/utils"
)

const (
	msgContractNotDeployed = "Contract not deployed"
	msgStorageDisabled     = "Agent directory not configured"
)

// infoHandler describes the service and its endpoints
func (s *HTTPServer) infoHandler(w http.ResponseWriter, r *http.Request) {
	contract := s.bounties.ContractAddress()
	if contract == "" {
		contract = "not deployed"
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        s.info.Name,
		"version":     s.info.Version,
		"description": s.info.Description,
		"network":     s.info.Network,
		"contract":    contract,
		"endpoints": map[string]string{
			"health":   "GET /",
			"stats":    "GET /stats",
			"bounties": "GET /bounties",
			"bounty":   "GET /bounties/:id",
			"activity": "GET /bounties/:id/activity",
			"listing":  "GET /bounties/:id/listing",
			"agents":   "GET /agents",
			"agent":    "GET /agents/:wallet",
		},
	})
}

// healthHandler checks the RPC endpoint and the database
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := true
	components := map[string]interface{}{}

	if s.connection != nil && s.bounties.Deployed() {
		rpc := map[string]interface{}{"healthy": true}
		if err := s.connection.HealthCheck(ctx); err != nil {
			healthy = false
			rpc["healthy"] = false
			rpc["error"] = err.Error()
		}
		stats := s.connection.Stats()
		rpc["url"] = stats.CurrentURL
		rpc["chain_id"] = stats.ChainID
		rpc["latest_block"] = stats.LatestBlock
		components["rpc"] = rpc
	}

	if s.storage != nil {
		db := map[string]interface{}{"healthy": true}
		if err := s.storage.Ping(); err != nil {
			healthy = false
			db["healthy"] = false
			db["error"] = err.Error()
		}
		components["storage"] = db
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		"version":    s.info.Version,
		"deployed":   s.bounties.Deployed(),
		"components": components,
	})
}

// statsHandler returns the contract counters
func (s *HTTPServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.bounties.Stats(r.Context())
	if err != nil {
		s.writeBountyError(w, err, "Failed to fetch stats")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// listBountiesHandler pages through bounties newest first
func (s *HTTPServer) listBountiesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := bounty.ListQuery{
		Status: q.Get("status"),
		Poster: q.Get("poster"),
		Worker: q.Get("worker"),
		Limit:  intParam(q.Get("limit"), bounty.DefaultLimit),
		Offset: max(intParam(q.Get("offset"), 0), 0),
	}

	result, err := s.bounties.List(r.Context(), query)
	if err != nil {
		s.writeBountyError(w, err, "Failed to fetch bounties")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// getBountyHandler returns one bounty
func (s *HTTPServer) getBountyHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bountyID(w, r)
	if !ok {
		return
	}

	b, err := s.bounties.Get(r.Context(), id)
	if err != nil {
		s.writeBountyError(w, err, "Failed to fetch bounty")
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

// bountyActivityHandler returns the contract events of one bounty
func (s *HTTPServer) bountyActivityHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bountyID(w, r)
	if !ok {
		return
	}

	activity, err := s.bounties.Activity(r.Context(), id)
	if err != nil {
		s.writeBountyError(w, err, "Failed to fetch bounty activity")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"bountyId": id.String(),
		"events":   activity,
	})
}

// bountyListingHandler returns the off-chain listing mirrored by a bounty
func (s *HTTPServer) bountyListingHandler(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgStorageDisabled, nil)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 0 {
		s.writeError(w, http.StatusBadRequest, "Invalid bounty id", nil)
		return
	}

	listing, err := s.storage.GetListingByContractID(r.Context(), id)
	if err != nil {
		s.writeStorageError(w, err, "Listing not found", "Failed to fetch listing")
		return
	}
	s.writeJSON(w, http.StatusOK, listing)
}

// listAgentsHandler lists the agent directory
func (s *HTTPServer) listAgentsHandler(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgStorageDisabled, nil)
		return
	}

	q := r.URL.Query()
	filter := models.AgentFilter{
		Limit:  agentLimit(intParam(q.Get("limit"), bounty.DefaultLimit)),
		Offset: max(intParam(q.Get("offset"), 0), 0),
	}
	if skill := q.Get("skill"); skill != "" {
		filter.Skill = &skill
	}
	if v := q.Get("verified"); v != "" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid verified filter", nil)
			return
		}
		filter.Verified = &verified
	}

	agents, err := s.storage.GetAgents(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch agents", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"agents": agents,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

type agentResponse struct {
	models.AgentProfile
	Reviews []*models.Review `json:"reviews"`
}

// getAgentHandler returns one agent with reputation and received reviews
func (s *HTTPServer) getAgentHandler(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgStorageDisabled, nil)
		return
	}

	wallet := mux.Vars(r)["wallet"]
	if !utils.IsValidAddress(wallet) {
		s.writeError(w, http.StatusBadRequest, "Invalid wallet address", nil)
		return
	}

	ctx := r.Context()
	agent, err := s.storage.GetAgent(ctx, wallet)
	if err != nil {
		s.writeStorageError(w, err, "Agent not found", "Failed to fetch agent")
		return
	}

	rep, err := s.storage.GetAgentReputation(ctx, wallet)
	if err != nil {
		s.writeStorageError(w, err, "Agent not found", "Failed to fetch agent reputation")
		return
	}

	reviews, err := s.storage.GetReviews(ctx, wallet)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch agent reviews", err)
		return
	}

	s.writeJSON(w, http.StatusOK, agentResponse{
		AgentProfile: models.AgentProfile{Agent: *agent, Reputation: rep},
		Reviews:      reviews,
	})
}

// bountyID parses the {id} path variable. The deployment check comes first so
// an unconfigured API answers 503 for every bounty route.
func (s *HTTPServer) bountyID(w http.ResponseWriter, r *http.Request) (*big.Int, bool) {
	if !s.bounties.Deployed() {
		s.writeError(w, http.StatusServiceUnavailable, msgContractNotDeployed, nil)
		return nil, false
	}

	id, ok := new(big.Int).SetString(mux.Vars(r)["id"], 10)
	if !ok || id.Sign() < 0 {
		s.writeError(w, http.StatusBadRequest, "Invalid bounty id", nil)
		return nil, false
	}
	return id, true
}

// writeBountyError maps bounty service errors to statuses
func (s *HTTPServer) writeBountyError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, bounty.ErrContractNotDeployed):
		s.writeError(w, http.StatusServiceUnavailable, msgContractNotDeployed, nil)
	case errors.Is(err, bounty.ErrBountyNotFound):
		s.writeError(w, http.StatusNotFound, "Bounty not found", nil)
	default:
		s.writeError(w, http.StatusInternalServerError, fallback, err)
	}
}

func (s *HTTPServer) writeStorageError(w http.ResponseWriter, err error, notFound, fallback string) {
	if utils.HasCode(err, utils.ErrCodeNotFound) {
		s.writeError(w, http.StatusNotFound, notFound, nil)
		return
	}
	s.writeError(w, http.StatusInternalServerError, fallback, err)
}

// intParam parses a query integer, falling back on absence or garbage
// agentLimit pages the directory like the bounty list, except that a
// non-positive limit falls back to the default
func agentLimit(limit int) int {
	if limit <= 0 {
		return bounty.DefaultLimit
	}
	return bounty.NormalizeLimit(limit)
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
