package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"pitstop/internal/notifications"
	"pitstop/pkg/config"
	"pitstop/pkg/kafka"
	kafka_config "pitstop/pkg/kafka/config"
)

const ServiceName = "notifier"

const consumerGroup = "pitstop-notifier"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Notifier service")

	kafkaCfg := kafka_config.Load()
	notificationService := notifications.NewService(cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafka_config.TopicBookingEvents,
		consumerGroup,
		kafka_config.TopicBookingEventsDLQ,
		notificationService.HandleBookingEvent,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	cfg.Log.Info("Consuming booking events",
		"topic", kafka_config.TopicBookingEvents,
		"group", consumerGroup,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped gracefully")
}
