// Package bounty answers the bounty read endpoints from contract snapshots.
// Nothing is cached: every call reads the contract again.
package bounty

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/smartdevs17/clawdin/internal/contract"
	"github.com/smartdevs17/clawdin/internal/metrics"
	"github.com/smartdevs17/clawdin/pkg/utils"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	// ErrContractNotDeployed means no contract address is configured
	ErrContractNotDeployed = errors.New("contract not deployed")
	// ErrBountyNotFound means the id has no record (zero poster)
	ErrBountyNotFound = errors.New("bounty not found")
)

// ListQuery selects a page of bounties, newest first
type ListQuery struct {
	Status string
	Poster string
	Worker string
	Limit  int
	Offset int
}

// ListResult is one page of a listing scan
type ListResult struct {
	Bounties []contract.Bounty `json:"bounties"`
	Total    uint64            `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	HasMore  bool              `json:"hasMore"`
}

// Stats aggregates the contract counters
type Stats struct {
	TotalBounties      uint64  `json:"totalBounties"`
	TotalFeesCollected string  `json:"totalFeesCollected"`
	EscrowedBalance    string  `json:"escrowedBalance"`
	PlatformFeePercent float64 `json:"platformFeePercent"`
	FeeRecipient       string  `json:"feeRecipient"`
	Contract           string  `json:"contract"`
	Network            string  `json:"network"`
}

// Service reads bounties through the contract read port
type Service struct {
	reader         contract.Reader
	network        string
	startBlock     uint64
	metricsManager *metrics.Manager
	logger         *logrus.Entry
}

// NewService creates a bounty service. A nil reader puts it in not-deployed mode.
func NewService(reader contract.Reader, network string, startBlock uint64, metricsManager *metrics.Manager) *Service {
	return &Service{
		reader:         reader,
		network:        network,
		startBlock:     startBlock,
		metricsManager: metricsManager,
		logger:         utils.ComponentLogger("bounty"),
	}
}

// Deployed reports whether a contract is configured
func (s *Service) Deployed() bool {
	return s.reader != nil
}

// ContractAddress returns the configured contract, or "" when not deployed
func (s *Service) ContractAddress() string {
	if s.reader == nil {
		return ""
	}
	return s.reader.Address().Hex()
}

// NormalizeLimit bounds a requested page size to [0, MaxLimit]. Callers fill
// in DefaultLimit when no limit was given; an explicit zero or negative limit
// asks for an empty page.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// List scans ids downward from count-1-offset, skipping unreadable records and
// filter misses, until the page is full or ids run out. Only a failure to read
// the counter fails the request.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if s.reader == nil {
		return nil, ErrContractNotDeployed
	}

	q.Limit = NormalizeLimit(q.Limit)
	if q.Offset < 0 {
		q.Offset = 0
	}

	next, err := s.reader.NextBountyID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read bounty count: %w", err)
	}
	total := clampCount(next)

	result := &ListResult{
		Bounties: make([]contract.Bounty, 0, q.Limit),
		Total:    uint64(total),
		Limit:    q.Limit,
		Offset:   q.Offset,
	}

	var scanned, holes, filtered int
	for i := total - 1 - int64(q.Offset); i >= 0 && len(result.Bounties) < q.Limit; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		scanned++
		raw, err := s.reader.GetBounty(ctx, big.NewInt(i))
		if err != nil || !raw.Exists() {
			holes++
			s.logger.WithFields(logrus.Fields{"bounty_id": i, "error": err}).Debug("Skipping unreadable bounty")
			continue
		}

		b := contract.Decode(raw)
		if !q.matches(b) {
			filtered++
			continue
		}
		result.Bounties = append(result.Bounties, b)
	}

	result.HasMore = int64(len(result.Bounties)) < total-int64(q.Offset)

	if s.metricsManager != nil {
		s.metricsManager.GetPrometheusMetrics().RecordScan(scanned, holes, filtered)
	}
	s.logger.WithFields(logrus.Fields{
		"total":    total,
		"returned": len(result.Bounties),
		"scanned":  scanned,
		"holes":    holes,
	}).Debug("Bounty scan finished")

	return result, nil
}

func (q ListQuery) matches(b contract.Bounty) bool {
	if q.Status != "" && !strings.EqualFold(string(b.Status), q.Status) {
		return false
	}
	if q.Poster != "" && !utils.SameAddress(b.Poster, q.Poster) {
		return false
	}
	if q.Worker != "" && (b.Worker == nil || !utils.SameAddress(*b.Worker, q.Worker)) {
		return false
	}
	return true
}

// Get fetches a single bounty
func (s *Service) Get(ctx context.Context, id *big.Int) (*contract.Bounty, error) {
	if s.reader == nil {
		return nil, ErrContractNotDeployed
	}

	raw, err := s.reader.GetBounty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read bounty %s: %w", id, err)
	}
	if !raw.Exists() {
		return nil, ErrBountyNotFound
	}

	b := contract.Decode(raw)
	return &b, nil
}

// Stats reads the contract counters and the fee recipient concurrently
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if s.reader == nil {
		return nil, ErrContractNotDeployed
	}

	var next, fees, escrow, feeBps *big.Int
	var recipient common.Address
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		next, err = s.reader.NextBountyID(gctx)
		return err
	})
	g.Go(func() (err error) {
		fees, err = s.reader.TotalFeesCollected(gctx)
		return err
	})
	g.Go(func() (err error) {
		escrow, err = s.reader.EscrowedBalance(gctx)
		return err
	})
	g.Go(func() (err error) {
		feeBps, err = s.reader.PlatformFeeBps(gctx)
		return err
	})
	g.Go(func() (err error) {
		recipient, err = s.reader.FeeRecipient(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("read contract stats: %w", err)
	}

	return &Stats{
		TotalBounties:      uint64(clampCount(next)),
		TotalFeesCollected: contract.FormatUnits(fees, contract.USDCDecimals),
		EscrowedBalance:    contract.FormatUnits(escrow, contract.USDCDecimals),
		PlatformFeePercent: decimal.NewFromBigInt(feeBps, -2).InexactFloat64(),
		FeeRecipient:       recipient.Hex(),
		Contract:           s.reader.Address().Hex(),
		Network:            s.network,
	}, nil
}

// Activity returns the decoded lifecycle events of one bounty
func (s *Service) Activity(ctx context.Context, id *big.Int) ([]contract.Activity, error) {
	if s.reader == nil {
		return nil, ErrContractNotDeployed
	}

	activity, err := s.reader.BountyActivity(ctx, id, s.startBlock)
	if err != nil {
		return nil, fmt.Errorf("read bounty %s activity: %w", id, err)
	}
	return activity, nil
}

// clampCount converts the counter to a loop bound
func clampCount(v *big.Int) int64 {
	if v == nil || v.Sign() <= 0 {
		return 0
	}
	if !v.IsInt64() {
		return math.MaxInt64
	}
	return v.Int64()
}
