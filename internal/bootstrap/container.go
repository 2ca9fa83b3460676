package bootstrap

import (
	"context"
	"log"

	"pharmacy-assistant-be/internal/config"
	"pharmacy-assistant-be/internal/controller"
	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/internal/repository/contract"
	"pharmacy-assistant-be/internal/repository/memory"
	"pharmacy-assistant-be/internal/repository/redisstore"
	"pharmacy-assistant-be/internal/repository/unitofwork"
	"pharmacy-assistant-be/internal/service"
	"pharmacy-assistant-be/pkg/assistant/inventory"
	"pharmacy-assistant-be/pkg/database"
	"pharmacy-assistant-be/pkg/events"

	pktNats "pharmacy-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController
	HealthController    controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	closers []func()
}

// NewContainer wires the application. db may be nil, in which case the
// assistant answers without inventory data.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Logging
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	c.closers = append(c.closers, func() {
		_ = sysLogger.Sync()
		_ = auditLogger.Sync()
	})

	checks := map[string]controller.HealthCheck{}

	// 2. Inventory
	var inv inventory.Lookup
	if db != nil {
		inv = service.NewInventoryService(unitofwork.NewRepositoryFactory(db))
		checks["database"] = func(ctx context.Context) error { return database.Ping(ctx, db) }
	} else {
		log.Printf("[WARN] No inventory database configured, stock data unavailable")
	}

	// 3. Session storage
	var sessions contract.SessionStore
	if cfg.App.SessionStore == "redis" {
		rdb := redisstore.NewClient(cfg.App.RedisURL)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessions = redisstore.NewSessionRepository(rdb, cfg.App.SessionTTL)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	} else {
		sessions = memory.NewSessionRepository(cfg.App.SessionTTL)
	}
	checks["sessions"] = sessions.Ping

	// 4. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var forwarder events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 5. Services
	executor, err := NewExecutor(cfg, inv, sysLogger)
	if err != nil {
		c.Close()
		return nil, err
	}

	publisherService := service.NewPublisherService(service.AuditTopic, pubSub)
	assistantService := service.NewAssistantService(executor, sessions, publisherService, sysLogger)

	c.ConsumerService = service.NewConsumerService(pubSub, service.AuditTopic, auditLogger, forwarder)

	// 6. Controllers
	c.AssistantController = controller.NewAssistantController(assistantService)
	c.HealthController = controller.NewHealthController(checks)

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
