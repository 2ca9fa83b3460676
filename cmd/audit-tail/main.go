package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pharmacy-assistant-be/internal/config"
	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/pkg/events"
	pktNats "pharmacy-assistant-be/pkg/nats"
)

// audit-tail reads assistant audit events from NATS with a durable consumer
// and appends them to a local audit file, e.g. on a compliance host.
func main() {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		log.Fatal("Error: NATS_URL is not set")
	}

	durable := os.Getenv("AUDIT_TAIL_DURABLE")
	if durable == "" {
		durable = "assistant-audit-tail"
	}

	auditLog := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	defer auditLog.Sync()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sub.Subscribe(ctx, events.QueryResolvedType, durable, func(_ context.Context, ev events.Event) error {
		auditLog.Info("ASSISTANT_AUDIT", "Query resolved", ev.Payload())
		line, err := json.Marshal(ev.Payload())
		if err != nil {
			return err
		}
		log.Println(string(line))
		return nil
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	<-ctx.Done()
	log.Println("audit-tail stopped")
}
