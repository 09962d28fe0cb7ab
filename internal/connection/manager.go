package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/clawdin/internal/config"
	"github.com/smartdevs17/clawdin/internal/metrics"
	"github.com/smartdevs17/clawdin/pkg/utils"
)

// Manager defines the connection manager interface
type Manager interface {
	GetClient(ctx context.Context) (*ethclient.Client, error)
	HealthCheck(ctx context.Context) error
	MarkFailed(err error)
	CurrentURL() string
	IsConnected() bool
	Close() error
	Stats() ConnectionStats
}

// ConnectionManager dials the configured RPC endpoints, primary first
type ConnectionManager struct {
	urls           []string
	timeout        time.Duration
	client         *ethclient.Client
	mu             sync.RWMutex
	logger         *logrus.Entry
	stats          ConnectionStats
	metricsManager *metrics.Manager
}

// ConnectionStats holds connection statistics
type ConnectionStats struct {
	TotalRequests   uint64    `json:"total_requests"`
	FailedRequests  uint64    `json:"failed_requests"`
	Reconnects      uint64    `json:"reconnects"`
	CurrentURL      string    `json:"current_url"`
	LastConnectedAt time.Time `json:"last_connected_at"`
	LastHealthCheck time.Time `json:"last_health_check"`
	LastError       string    `json:"last_error,omitempty"`
	IsHealthy       bool      `json:"is_healthy"`
	ChainID         uint64    `json:"chain_id"`
	LatestBlock     uint64    `json:"latest_block"`
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(cfg *config.ChainConfig, metricsManager *metrics.Manager) *ConnectionManager {
	urls := []string{cfg.RPCURL}
	urls = append(urls, cfg.BackupRPCURLs...)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &ConnectionManager{
		urls:           urls,
		timeout:        timeout,
		logger:         utils.ComponentLogger("connection"),
		metricsManager: metricsManager,
		stats: ConnectionStats{
			CurrentURL: cfg.RPCURL,
		},
	}
}

// GetClient returns the current client, dialing one if none is live
func (cm *ConnectionManager) GetClient(ctx context.Context) (*ethclient.Client, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.stats.TotalRequests++
	if cm.client != nil {
		return cm.client, nil
	}
	return cm.connectLocked(ctx)
}

// connectLocked tries every endpoint once, in order. Caller holds cm.mu.
func (cm *ConnectionManager) connectLocked(ctx context.Context) (*ethclient.Client, error) {
	var lastErr error

	for _, url := range cm.urls {
		cm.logger.WithField("url", url).Debug("Attempting connection")

		client, err := cm.dial(ctx, url)
		if err != nil {
			cm.logger.WithFields(logrus.Fields{"url": url, "error": err}).Warn("Connection failed")
			cm.stats.FailedRequests++
			if cm.metricsManager != nil {
				cm.metricsManager.GetPrometheusMetrics().RecordConnectionError(url)
			}
			lastErr = err
			continue
		}

		if !cm.stats.LastConnectedAt.IsZero() {
			cm.stats.Reconnects++
		}
		cm.client = client
		cm.stats.CurrentURL = url
		cm.stats.LastConnectedAt = time.Now()
		cm.stats.IsHealthy = true
		cm.stats.LastError = ""

		cm.logger.WithField("url", url).Info("Connected to chain RPC endpoint")
		return client, nil
	}

	cm.stats.IsHealthy = false
	details := "no endpoints configured"
	if lastErr != nil {
		details = lastErr.Error()
		cm.stats.LastError = details
	}
	return nil, utils.NewAppError(utils.ErrCodeConnection, "Failed to connect to any RPC endpoint", details)
}

// dial opens a client and verifies it answers eth_chainId
func (cm *ConnectionManager) dial(ctx context.Context, url string) (*ethclient.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, url)
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(dialCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain id check failed: %w", err)
	}
	cm.stats.ChainID = chainID.Uint64()
	return client, nil
}

// MarkFailed drops the current client so the next call re-dials, starting from the primary
func (cm *ConnectionManager) MarkFailed(err error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.stats.FailedRequests++
	cm.stats.IsHealthy = false
	if err != nil {
		cm.stats.LastError = err.Error()
	}
	if cm.client != nil {
		cm.client.Close()
		cm.client = nil
	}
}

// HealthCheck verifies the endpoint responds with a chain id and head block
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	client, err := cm.GetClient(ctx)
	if err != nil {
		return err
	}

	checkCtx, cancel := context.WithTimeout(ctx, cm.timeout)
	defer cancel()

	chainID, err := client.ChainID(checkCtx)
	if err != nil {
		cm.MarkFailed(err)
		return utils.WrapAppError(utils.ErrCodeConnection, "Health check failed", err)
	}

	latest, err := client.BlockNumber(checkCtx)
	if err != nil {
		cm.MarkFailed(err)
		return utils.WrapAppError(utils.ErrCodeConnection, "Health check failed", err)
	}

	cm.mu.Lock()
	cm.stats.ChainID = chainID.Uint64()
	cm.stats.LatestBlock = latest
	cm.stats.LastHealthCheck = time.Now()
	cm.stats.IsHealthy = true
	cm.mu.Unlock()

	return nil
}

// CurrentURL returns the endpoint in use, or the primary if none is connected
func (cm *ConnectionManager) CurrentURL() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.stats.CurrentURL
}

// IsConnected reports whether a healthy client is held
func (cm *ConnectionManager) IsConnected() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.client != nil && cm.stats.IsHealthy
}

// Stats returns a snapshot of connection statistics
func (cm *ConnectionManager) Stats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.stats
}

// Close closes the current client
func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.client != nil {
		cm.client.Close()
		cm.client = nil
		cm.logger.Info("Chain RPC connection closed")
	}
	cm.stats.IsHealthy = false
	return nil
}
