package types

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/0lexplorer/explorerx/pkg/metrics"
	"github.com/0lexplorer/explorerx/pkg/provenance"
	"github.com/0lexplorer/explorerx/pkg/redis"
	"github.com/0lexplorer/explorerx/pkg/registry"
	"github.com/0lexplorer/explorerx/pkg/rpc"
)

// Classifier runs the provenance pipeline for one address.
type Classifier interface {
	Classify(ctx context.Context, address provenance.Address) *provenance.Classification
}

// ChainProbe is the upstream call used to decide readiness.
type ChainProbe interface {
	Metadata(ctx context.Context) (*rpc.Metadata, error)
}

type App struct {
	Pipeline Classifier
	Wallets  *registry.Registry
	Probe    ChainProbe
	// Pool runs the pipeline's concurrent upstream calls.
	Pool pond.Pool
	// RedisClient is nil when real-time events are disabled.
	RedisClient *redis.Client
	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
	// Cron re-runs the readiness probe according to CronSpec.
	Cron     *cron.Cron
	CronSpec string

	readyMu sync.RWMutex
	ready   Readiness
}

// Readiness is the outcome of the last upstream probe.
type Readiness struct {
	Ready     bool      `json:"ready"`
	Version   uint64    `json:"version,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// CheckReadiness probes the ledger node (and Redis when enabled) and stores the result.
func (a *App) CheckReadiness(ctx context.Context) Readiness {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res := Readiness{CheckedAt: time.Now().UTC()}
	var err error
	if a.Probe == nil {
		err = errors.New("no ledger node configured")
	} else {
		var meta *rpc.Metadata
		if meta, err = a.Probe.Metadata(ctx); err == nil && meta != nil {
			res.Version = meta.Version
		}
	}
	if err == nil && a.RedisClient != nil {
		err = a.RedisClient.Health(ctx)
	}

	if err != nil {
		res.Error = err.Error()
		a.Logger.Warn("Readiness probe failed", zap.Error(err))
	} else {
		res.Ready = true
	}

	a.readyMu.Lock()
	a.ready = res
	a.readyMu.Unlock()
	return res
}

// Readiness returns the last probe result. It is not ready until the first probe succeeds.
func (a *App) Readiness() Readiness {
	a.readyMu.RLock()
	defer a.readyMu.RUnlock()
	return a.ready
}

// SetupScheduler sets up the cron scheduler running the readiness probe.
func (a *App) SetupScheduler(ctx context.Context, logger cron.Logger, cronSpec string) error {
	a.CronSpec = cronSpec
	a.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(logger)))

	_, err := a.Cron.AddFunc(cronSpec, func() {
		a.CheckReadiness(ctx)
	})
	return err
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()

	if a.Cron != nil {
		a.CheckReadiness(ctx)
		a.Cron.Start()
		a.Logger.Info("Readiness cron started", zap.String("cronSpec", a.CronSpec))
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}

	_ = a.Server.Shutdown(shutdownCtx)

	if a.Pool != nil {
		a.Pool.StopAndWait()
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
