package bootstrap

import (
	"context"

	"github.com/redis/go-redis/v9"

	"dexter/internal/adapters/ai"
	"dexter/internal/adapters/config"
	"dexter/internal/adapters/kafka"
	pgclient "dexter/internal/adapters/postgres"
	redisclient "dexter/internal/adapters/redis"
	"dexter/internal/agent"
	"dexter/internal/api"
	"dexter/internal/api/chat"
	"dexter/internal/api/health"
	"dexter/internal/domain/marketdata"
	"dexter/internal/metrics"
	"dexter/internal/ratelimit"
	pgrepo "dexter/internal/repository/postgres"
	redisrepo "dexter/internal/repository/redis"
	"dexter/internal/telemetry"
	"dexter/internal/tools"
	"dexter/internal/tools/market"
	"dexter/pkg/errors"
	"dexter/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer
	PG    *pgclient.Client
	Redis *redisclient.Client
	Kafka *kafka.Producer

	// Domain Layer
	MarketData marketdata.Repository
	Tools      *tools.Registry

	// Agent Layer
	Models       *ai.Registry
	Entitlements *ai.Entitlements
	Quota        ratelimit.Counter
	Orchestrator *agent.Orchestrator

	// Application Layer
	Server *api.Server
}

// NewContainer wires the full application graph. Postgres is required;
// Redis, Kafka and each generation provider are optional and degrade to
// in-process or no-op substitutes when unconfigured.
func NewContainer(ctx context.Context, cfg *config.Config, tracker errors.Tracker) (*Container, error) {
	log := logger.Get()

	c := &Container{
		Config:       cfg,
		Log:          log,
		ErrorTracker: tracker,
	}

	metrics.Init()

	if err := c.initStores(cfg); err != nil {
		return nil, err
	}
	c.initDomain()
	if err := c.initAgent(ctx, cfg); err != nil {
		return nil, err
	}
	c.initServer(cfg)

	log.Info("✓ Container initialized")
	return c, nil
}

// initStores connects the data stores.
func (c *Container) initStores(cfg *config.Config) error {
	pg, err := pgclient.NewClient(cfg.Postgres)
	if err != nil {
		return errors.Wrap(err, "postgres init")
	}
	c.PG = pg
	c.Log.Info("✓ PostgreSQL connected")

	if cfg.Redis.Enabled() {
		rd, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			// Cache and distributed quota are optional capabilities.
			c.Log.Warnf("Redis unavailable, continuing without cache: %v", err)
		} else {
			c.Redis = rd
			c.Log.Info("✓ Redis connected")
		}
	}

	if cfg.Kafka.Enabled() {
		c.Kafka = kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		c.Log.Info("✓ Kafka producer configured")
	}

	return nil
}

// initDomain builds the market data repository stack and the tool registry.
func (c *Container) initDomain() {
	var repo marketdata.Repository = pgrepo.NewMarketDataRepository(c.PG.DB())
	if c.Redis != nil {
		repo = redisrepo.NewMarketDataCache(repo, c.Redis, 0)
	}
	c.MarketData = repo

	c.Tools = tools.NewRegistry()
	market.RegisterAll(c.Tools, market.Deps{Repo: repo})
}

// initAgent builds generation providers, admission control and the
// orchestrator.
func (c *Container) initAgent(ctx context.Context, cfg *config.Config) error {
	var openaiGen, geminiGen ai.Generator

	if cfg.AI.OpenAIKey != "" {
		gen, err := ai.NewOpenAIGenerator(
			cfg.AI.OpenAIKey,
			ai.NewLimiter("openai", cfg.AI.OpenAIReqPerMin),
			cfg.AI.RequestTimeout,
		)
		if err != nil {
			c.Log.Warnf("OpenAI provider unavailable: %v", err)
		} else {
			openaiGen = gen
		}
	}

	if cfg.AI.GeminiKey != "" {
		gen, err := ai.NewGeminiGenerator(
			ctx,
			cfg.AI.GeminiKey,
			ai.NewLimiter("gemini", cfg.AI.GeminiReqPerMin),
			cfg.AI.RequestTimeout,
		)
		if err != nil {
			c.Log.Warnf("Gemini provider unavailable: %v", err)
		} else {
			geminiGen = gen
		}
	}

	if openaiGen == nil && geminiGen == nil {
		return errors.Wrap(errors.ErrGenerationUnavailable, "no generation provider configured")
	}

	c.Models = ai.NewRegistry()
	c.Models.RegisterDefaults(openaiGen, geminiGen)
	c.Entitlements = ai.NewEntitlements(cfg.Chat.ProCallers)

	if c.Redis != nil {
		c.Quota = ratelimit.NewRedisCounter(c.Redis.Client(), cfg.Chat.RateLimit, cfg.Chat.RateWindow)
	} else {
		c.Quota = ratelimit.NewMemoryCounter(cfg.Chat.RateLimit, cfg.Chat.RateWindow)
	}

	var sink agent.TelemetrySink = telemetry.NoopSink{}
	if c.Kafka != nil {
		sink = telemetry.NewKafkaSink(c.Kafka)
	}

	planner := agent.NewPlanner()
	c.Orchestrator = agent.NewOrchestrator(
		agent.NewExtractor(),
		planner,
		agent.NewExecutor(c.Tools, cfg.Chat.ToolFanout, cfg.Chat.ToolTimeout),
		agent.NewReflector(planner),
		agent.NewSynthesizer(),
		c.Models,
		c.Entitlements,
		c.Quota,
		sink,
		cfg.Chat,
	)

	return nil
}

// initServer assembles the HTTP surface.
func (c *Container) initServer(cfg *config.Config) {
	chatHandler := chat.New(c.Orchestrator, c.Models, cfg.AI.DefaultModel)

	var redisConn *redis.Client
	if c.Redis != nil {
		redisConn = c.Redis.Client()
	}
	healthHandler := health.New(c.Log, c.PG.DB(), redisConn, cfg.App.Name, cfg.App.Version)

	c.Server = api.NewServer(api.ServerConfig{
		Port:        cfg.HTTP.Port,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	}, chatHandler, healthHandler, c.Log)
}

// Close releases infrastructure resources in reverse order.
func (c *Container) Close() {
	if c.Kafka != nil {
		if err := c.Kafka.Close(); err != nil {
			c.Log.Errorf("Kafka close failed: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Log.Errorf("Redis close failed: %v", err)
		}
	}
	if c.PG != nil {
		if err := c.PG.Close(); err != nil {
			c.Log.Errorf("Postgres close failed: %v", err)
		}
	}
}
