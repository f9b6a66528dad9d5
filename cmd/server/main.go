package main

import (
	"context"
	"log"

	"github.com/scenttrack/scent-coverage-go/internal/api"
	"github.com/scenttrack/scent-coverage-go/internal/boundary"
	"github.com/scenttrack/scent-coverage-go/internal/config"
	"github.com/scenttrack/scent-coverage-go/internal/database"
	"github.com/scenttrack/scent-coverage-go/internal/handler"
	"github.com/scenttrack/scent-coverage-go/internal/repository"
	"github.com/scenttrack/scent-coverage-go/internal/scent"
	"github.com/scenttrack/scent-coverage-go/internal/service"
	"github.com/scenttrack/scent-coverage-go/internal/sim"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	ctx := context.Background()

	// Observation source: SQLite or in-memory, interchangeable.
	var source scent.ObservationSource
	var trails service.TrailSource
	var store handler.ObservationStore

	switch cfg.Source {
	case "sqlite":
		if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
			log.Fatal("Failed to initialize database: ", err)
		}
		defer database.Close()
		repo := repository.NewObservationRepository(database.GetDB())
		source, trails, store = repo, repo, repo
	case "memory":
		mem := repository.NewMemorySource()
		source, trails, store = mem, mem, mem
	}

	if err := source.Initialize(ctx); err != nil {
		log.Fatal("Failed to initialize observation source: ", err)
	}

	forest, refLat, err := boundary.Load(cfg.BoundaryPath)
	if err != nil {
		log.Fatal("Failed to load boundary polygon: ", err)
	}

	builder, err := scent.NewPolygonBuilder(scent.BuilderConfig{
		OmniRadiusM:           cfg.OmniRadiusM,
		FanPointCount:         cfg.FanPointCount,
		MinDistanceMultiplier: cfg.MinDistanceMultiplier,
		MaxDistanceMultiplier: cfg.MaxDistanceMultiplier,
		MaxWindSpeedMS:        cfg.MaxWindSpeedMS,
	})
	if err != nil {
		log.Fatal("Invalid detection parameters: ", err)
	}

	tracker := scent.NewCoverageTracker(source, builder, scent.NewUnificationEngine(), cfg.SessionID)
	calc, err := scent.NewCoverageCalculator(tracker, forest, refLat)
	if err != nil {
		log.Fatal("Failed to set up coverage calculator: ", err)
	}

	if cfg.SimEnabled {
		simCfg := sim.DefaultConfig()
		simCfg.SessionID = cfg.SessionID
		simulator := sim.New(simCfg, store)
		go func() {
			if err := simulator.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Simulator stopped: %v", err)
			}
		}()
		log.Printf("Simulator enabled for session %s", cfg.SessionID)
	}

	coverageService := service.NewCoverageService(tracker, calc, trails, cfg.SessionID)
	router := api.SetupRouter(cfg,
		handler.NewCoverageHandler(coverageService),
		handler.NewObservationHandler(store),
	)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
