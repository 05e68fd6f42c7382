package bootstrap

import (
	"context"
	"log"

	"ai-review-be/internal/config"
	"ai-review-be/internal/controller"
	"ai-review-be/internal/pkg/logger"
	"ai-review-be/internal/pkg/metrics"
	"ai-review-be/internal/repository/implementation"
	"ai-review-be/internal/repository/memory"
	redisRepo "ai-review-be/internal/repository/redis"
	"ai-review-be/internal/service"
	"ai-review-be/pkg/backend"
	"ai-review-be/pkg/events"
	"ai-review-be/pkg/interview/composer"
	"ai-review-be/pkg/interview/contextstore"
	"ai-review-be/pkg/interview/engine"
	"ai-review-be/pkg/interview/gate"
	"ai-review-be/pkg/interview/lexicon"
	"ai-review-be/pkg/interview/planner"
	"ai-review-be/pkg/interview/responder"
	"ai-review-be/pkg/llm/factory"
	pktNats "ai-review-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	InterviewController controller.IInterviewController

	// Services
	InterviewService service.IInterviewService
	ConsumerService  service.IConsumerService

	// Infrastructure
	Metrics        *metrics.PrometheusRecorder
	Logger         logger.ILogger
	NatsSubscriber *pktNats.Subscriber

	closers []func()
}

// NewContainer wires the interview stack. db may be nil; Redis and NATS are
// optional and skipped with a warning when unreachable.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	eventLogger := logger.NewIsolatedLogger(cfg.App.EventLogFilePath)
	recorder := metrics.NewPrometheusRecorder()

	c := &Container{Metrics: recorder, Logger: sysLogger}

	// 2. LLM Provider
	apiKey := cfg.Ai.HuggingFaceKey
	if cfg.Ai.LLMProvider == "openai" {
		apiKey = cfg.Ai.OpenAIKey
	}
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:    cfg.Ai.LLMProvider,
		Model:       cfg.Ai.LLMModel,
		BaseURL:     cfg.Ai.OllamaBaseURL,
		APIKey:      apiKey,
		Timeout:     cfg.Ai.Timeout,
		MaxAttempts: cfg.Ai.MaxAttempts,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	llmProvider = recorder.InstrumentLLM(llmProvider, cfg.Ai.LLMProvider)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Context Store tiers: memory first, then Redis, then Postgres
	tiers := []contextstore.Tier{
		{Name: "memory", Repo: memory.NewSessionRepository(cfg.Interview.SessionTTL)},
	}
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
			_ = rdb.Close()
		} else {
			tiers = append(tiers, contextstore.Tier{Name: "redis", Repo: redisRepo.NewSessionRepository(rdb, cfg.Interview.SessionTTL)})
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}
	if db != nil {
		tiers = append(tiers, contextstore.Tier{Name: "postgres", Repo: implementation.NewInterviewContextRepository(db)})
	}
	contextStore, err := contextstore.NewTieredStore(sysLogger, tiers...)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize context store: %v", err)
	}

	// 4. Interview core
	lx := lexicon.Default()
	backendClient := backend.NewClient(backend.Config{
		BaseURL:      cfg.Backend.BaseURL,
		ReadTimeout:  cfg.Backend.ReadTimeout,
		WriteTimeout: cfg.Backend.WriteTimeout,
		ReadAttempts: cfg.Backend.ReadAttempts,
	}, sysLogger)

	eng := engine.NewEngine(
		gate.NewGate(llmProvider, lx, sysLogger),
		planner.NewPlanner(llmProvider, lx, nil, planner.Config{
			SufficientSlots: cfg.Interview.SufficientSlots,
			MaxSlots:        cfg.Interview.MaxSlots,
		}, sysLogger),
		responder.NewResponder(llmProvider, sysLogger),
		composer.NewComposer(llmProvider, sysLogger),
		lx,
		engine.Config{ReaskLimit: cfg.Interview.ReaskLimit},
		sysLogger,
		engine.WithRecorder(recorder),
		engine.WithSubmitter(service.NewBackendSubmitter(backendClient)),
	)

	// 5. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	publishers := events.FanOut{events.NewBusPublisher(pubSub, events.Topic)}

	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publishers = append(publishers, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, eventLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.NatsSubscriber = natsSub
			c.closers = append(c.closers, natsSub.Close)
		}
	}
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 6. Services
	c.InterviewService = service.NewInterviewService(contextStore, eng, backendClient, publishers, recorder, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, events.Topic, eventLogger, recorder)

	// 7. Controllers
	c.InterviewController = controller.NewInterviewController(c.InterviewService, cfg.JWT.Secret)

	return c
}

// StartBackground launches the event consumers. NATS auditing is attached
// only when a subscriber connected.
func (c *Container) StartBackground(ctx context.Context) error {
	if err := c.ConsumerService.Consume(ctx); err != nil {
		return err
	}
	if c.NatsSubscriber != nil {
		if err := c.ConsumerService.ConsumeRemote(ctx, c.NatsSubscriber); err != nil {
			log.Printf("[WARN] NATS audit consumer disabled: %v", err)
		}
	}
	return nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
