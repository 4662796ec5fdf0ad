package query

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/0lexplorer/explorerx/app/query/types"
	"github.com/0lexplorer/explorerx/pkg/logging"
	"github.com/0lexplorer/explorerx/pkg/metrics"
	"github.com/0lexplorer/explorerx/pkg/provenance"
	"github.com/0lexplorer/explorerx/pkg/redis"
	"github.com/0lexplorer/explorerx/pkg/registry"
	"github.com/0lexplorer/explorerx/pkg/retry"
	"github.com/0lexplorer/explorerx/pkg/rpc"
	"github.com/0lexplorer/explorerx/pkg/utils"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	clients := rpc.NewClients(
		rpc.OptsFromEnv(),
		utils.EnvList("NODE_RPC_URLS", "http://localhost:8080"),
		utils.EnvList("PERMISSION_TREE_URLS", "http://localhost:3030"),
		utils.EnvList("VITALS_URLS", "http://localhost:3030"),
	)
	logger.Info("Upstreams configured",
		zap.Strings("node", clients.Node.Endpoints()),
		zap.Strings("permissionTree", clients.PermissionTree.Endpoints()),
		zap.Strings("vitals", clients.Vitals.Endpoints()))

	wallets, err := registry.Load(utils.Env("COMMUNITY_WALLETS_FILE", ""))
	if err != nil {
		logger.Fatal("Unable to load community wallet registry", zap.Error(err))
	}
	logger.Info("Community wallet registry loaded", zap.Int("wallets", wallets.Len()))

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promRegistry)

	pool := provenance.NewPool(utils.EnvInt("PIPELINE_MAX_PARALLELISM", 0))

	pipeline, err := provenance.New(provenance.Config{
		Node:           clients.Node,
		PermissionTree: clients.PermissionTree,
		Vitals:         clients.Vitals,
		Wallets:        wallets,
		Pool:           pool,
		Logger:         logger,
		Metrics:        m,
	})
	if err != nil {
		logger.Fatal("Unable to initialize pipeline", zap.Error(err))
	}

	// Initialize Redis client for real-time WebSocket events (optional)
	var redisClient *redis.Client
	if utils.EnvBool("REDIS_ENABLED", false) {
		cfg := retry.DefaultConfig()
		cfg.MaxRetries = utils.EnvInt("REDIS_CONNECT_RETRIES", cfg.MaxRetries)
		err = retry.WithBackoff(ctx, cfg, logger, "redis connect", func() error {
			var connErr error
			redisClient, connErr = redis.NewClient(ctx, logger)
			return connErr
		})
		if err != nil {
			logger.Warn("Failed to initialize Redis client - WebSocket real-time events will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Redis client initialized for WebSocket real-time events")
		}
	} else {
		logger.Info("Redis disabled - WebSocket real-time events will not be available")
	}

	app := &types.App{
		Pipeline:    pipeline,
		Wallets:     wallets,
		Probe:       clients.Node,
		Pool:        pool,
		RedisClient: redisClient,
		Metrics:     m,
		Registry:    promRegistry,
		Logger:      logger,
	}

	cronSpec := utils.Env("READINESS_CRON", "*/30 * * * * *")
	if err := app.SetupScheduler(ctx, cron.DefaultLogger, cronSpec); err != nil {
		logger.Fatal("Unable to schedule readiness probe", zap.Error(err), zap.String("cronSpec", cronSpec))
	}

	return app
}
