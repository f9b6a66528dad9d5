// Command simulate feeds synthetic rover observations into the
// observation store so the coverage API has data to aggregate.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/scenttrack/scent-coverage-go/internal/config"
	"github.com/scenttrack/scent-coverage-go/internal/database"
	"github.com/scenttrack/scent-coverage-go/internal/repository"
	"github.com/scenttrack/scent-coverage-go/internal/sim"
)

func main() {
	var (
		rovers   = flag.String("rovers", "Alpha,Bravo", "comma-separated rover display names")
		lat      = flag.Float64("lat", -36.85, "region center latitude")
		lon      = flag.Float64("lon", 174.76, "region center longitude")
		radius   = flag.Float64("radius", 1000, "region radius in meters")
		interval = flag.Duration("interval", 2*time.Second, "time between observation rounds")
		seed     = flag.Int64("seed", 0, "random seed, 0 = time-based")
	)
	flag.Parse()

	cfg := config.Load()
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close()

	repo := repository.NewObservationRepository(database.GetDB())

	simCfg := sim.DefaultConfig()
	simCfg.SessionID = cfg.SessionID
	simCfg.CenterLat = *lat
	simCfg.CenterLon = *lon
	simCfg.RadiusM = *radius
	simCfg.Interval = *interval
	simCfg.Seed = *seed
	simCfg.RoverNames = strings.Split(*rovers, ",")
	simCfg.MaxWindMS = cfg.MaxWindSpeedMS

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	simulator := sim.New(simCfg, repo)
	if err := simulator.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("Simulator failed: ", err)
	}
	log.Printf("Simulator stopped, session %s", simulator.SessionID())
}
