package main

import (
	"pitstop/internal/bookings/events"
	"pitstop/internal/bookings/handler"
	"pitstop/internal/bookings/repository"
	"pitstop/internal/bookings/service"
	"pitstop/internal/bookings/validator"
	spacesrepository "pitstop/internal/parkingspaces/repository"
	"pitstop/pkg/app"
	"pitstop/pkg/config"
	"pitstop/pkg/kafka"
	kafka_config "pitstop/pkg/kafka/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	cfg.LogConfiguration()

	cfg.Log.Info("Starting Bookings service")
	bookingService, producer := initServices(cfg)
	defer func() {
		if producer != nil {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		}
	}()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.BookingService, *kafka.Producer) {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewBookingLockRepository(cfg)
	spaceRepo := spacesrepository.NewMongoParkingSpaceRepository(cfg)

	var publisher events.Publisher
	var producer *kafka.Producer
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, kafka_config.TopicBookingEvents, kafka_config.TopicBookingEventsDLQ)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, booking events disabled", "error", err)
		publisher = events.NopPublisher{}
		producer = nil
	} else {
		publisher = events.NewKafkaPublisher(producer, cfg.Log, ServiceName)
	}

	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		spaceRepo,
		bookingValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService, producer
}
