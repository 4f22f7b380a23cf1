package main

import (
	"pitstop/internal/parkingspaces/geocode"
	"pitstop/internal/parkingspaces/handler"
	"pitstop/internal/parkingspaces/repository"
	"pitstop/internal/parkingspaces/service"
	"pitstop/internal/parkingspaces/validator"
	"pitstop/pkg/app"
	"pitstop/pkg/config"
)

const ServiceName = "parkingspaces"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	cfg.LogConfiguration()

	cfg.Log.Info("Starting Parking Spaces service")
	spaceService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewParkingSpaceHandler(spaceService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ParkingSpaceService {
	spaceValidator := validator.NewParkingSpaceValidator(cfg.Log)
	spaceRepo := repository.NewMongoParkingSpaceRepository(cfg)
	geocoder := geocode.NewMapboxGeocoder(cfg)

	spaceService := service.NewParkingSpaceService(
		spaceRepo,
		geocoder,
		spaceValidator,
		cfg,
	)

	cfg.Log.Info("Parking space service initialized", "database", cfg.MongoDatabaseName)
	return spaceService
}
