package connection

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/clawdin/internal/metrics"
	"github.com/smartdevs17/clawdin/pkg/utils"
)

// ChainClient exposes the contract calls the API needs on top of a Manager.
// A transport failure drops the manager's client so the next call re-dials;
// errors the node answered with (reverts, bad params) leave it connected.
type ChainClient struct {
	manager        Manager
	metricsManager *metrics.Manager
	logger         *logrus.Entry
}

// NewChainClient creates a new chain client wrapper
func NewChainClient(manager Manager, metricsManager *metrics.Manager) *ChainClient {
	return &ChainClient{
		manager:        manager,
		metricsManager: metricsManager,
		logger:         utils.ComponentLogger("chain_client"),
	}
}

// CallContract executes an eth_call against the latest block
func (cc *ChainClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	client, err := cc.manager.GetClient(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := client.CallContract(ctx, msg, blockNumber)
	cc.record("eth_call", err, time.Since(start))
	if err != nil {
		cc.logger.WithError(err).Debug("Contract call failed")
		cc.markIfTransport(ctx, err)
		return nil, utils.WrapAppError(utils.ErrCodeBlockchain, "Contract call failed", err)
	}
	return out, nil
}

// FilterLogs runs an eth_getLogs query
func (cc *ChainClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	client, err := cc.manager.GetClient(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	logs, err := client.FilterLogs(ctx, query)
	cc.record("eth_getLogs", err, time.Since(start))
	if err != nil {
		cc.logger.WithError(err).Error("Failed to filter logs")
		cc.markIfTransport(ctx, err)
		return nil, utils.WrapAppError(utils.ErrCodeBlockchain, "Failed to filter logs", err)
	}

	cc.logger.WithField("count", len(logs)).Debug("Filtered logs")
	return logs, nil
}

// markIfTransport reports err to the manager unless the node itself produced
// it or the caller gave up
func (cc *ChainClient) markIfTransport(ctx context.Context, err error) {
	if ctx.Err() != nil || isNodeError(err) {
		return
	}
	cc.manager.MarkFailed(err)
}

// isNodeError reports whether err is a JSON-RPC error response, which means
// the endpoint is reachable and answering
func isNodeError(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return true
	}
	var dataErr rpc.DataError
	return errors.As(err, &dataErr)
}

func (cc *ChainClient) record(method string, err error, duration time.Duration) {
	if cc.metricsManager == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	cc.metricsManager.GetPrometheusMetrics().RecordRPCRequest(cc.manager.CurrentURL(), method, status, duration)
}
