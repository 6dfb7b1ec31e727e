package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/busseva/busseva-backend/internal/config"
	"github.com/busseva/busseva-backend/internal/database"
	"github.com/busseva/busseva-backend/internal/logger"
	"github.com/busseva/busseva-backend/internal/model"
	"github.com/busseva/busseva-backend/internal/repository"
	"github.com/busseva/busseva-backend/internal/service"
	"github.com/busseva/busseva-backend/internal/storage"
)

func fare(v float64) *float64 { return &v }

var samples = []model.CreateBusRequest{
	{BusNumber: "12A", Route: "City Centre - Airport", Description: "Airport express via the ring road", Fare: fare(40), Timings: "5am-11pm, every 20 min", Stops: "City Centre, Central Station, Ring Road, Airport"},
	{BusNumber: "S12", Route: "City Loop", Description: "Clockwise loop around the old city", Fare: fare(15), Timings: "6am-10pm, every 10 min", Stops: "Market, Town Hall, Museum, Market"},
	{BusNumber: "27", Route: "University - Harbour", Description: "Serves the campus and the ferry terminal", Fare: fare(20), Timings: "6am-9pm", Stops: "University, Library, Old Bridge, Harbour"},
	{BusNumber: "N5", Route: "Night Line East", Description: "Night service to the eastern suburbs", Fare: fare(25), Timings: "11pm-5am, hourly", Stops: "Central Station, Hospital, East Park, Depot"},
	{BusNumber: "101", Route: "Suburb Express", Description: "Limited stops between the suburbs and the city", Fare: fare(30), Timings: "Weekdays 7am-7pm", Stops: "North Suburb, Tech Park, City Centre"},
}

func main() {
	var imagePath string
	flag.StringVar(&imagePath, "image", "", "Image file attached to every seeded bus (required)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if imagePath == "" {
		fmt.Println("Usage: seed-buses -image <path-to-jpg-or-png>")
		os.Exit(2)
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	var blobs storage.BlobStore
	if cfg.StorageBackend == config.StorageS3 {
		if blobs, err = storage.NewS3Store(ctx, cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
	} else {
		blobs = storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPath)
	}

	busService := service.NewBusService(
		repository.NewBusRepository(pool),
		service.NewMediaService(cfg, blobs),
		log,
	)

	fmt.Printf("=== Seeding %d Buses ===\n", len(samples))

	successCount := 0
	for _, req := range samples {
		f, err := os.Open(imagePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open image")
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			log.Fatal().Err(err).Msg("Failed to stat image")
		}

		bus, err := busService.Create(ctx, req, &model.ImageUpload{
			Reader:   f,
			Filename: filepath.Base(imagePath),
			Size:     info.Size(),
		})
		f.Close()

		switch {
		case errors.Is(err, service.ErrDuplicateBusNumber):
			fmt.Printf("Skipping %s: already exists\n", req.BusNumber)
		case err != nil:
			fmt.Printf("Error creating bus %s: %v\n", req.BusNumber, err)
		default:
			successCount++
			fmt.Printf("Created bus %s (%s)\n", bus.BusNumber, bus.Route)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d buses.\n", successCount, len(samples))
}
