package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration.
type Config struct {
	Port         string
	Source       string // "sqlite" or "memory"
	DBPath       string
	BoundaryPath string
	JWTSecret    string
	SessionID    string
	SimEnabled   bool

	// Detection-area parameters, validated at load time.
	OmniRadiusM           float64
	FanPointCount         int
	MinDistanceMultiplier float64
	MaxDistanceMultiplier float64
	MaxWindSpeedMS        float64
}

// Load reads configuration from the environment with defaults.
func Load() *Config {
	return &Config{
		Port:         envStr("PORT", ":8080"),
		Source:       envStr("OBSERVATION_SOURCE", "sqlite"),
		DBPath:       envStr("DB_PATH", "./data/observations.db"),
		BoundaryPath: envStr("BOUNDARY_PATH", "./data/forest.geojson"),
		JWTSecret:    envStr("JWT_SECRET", "change-me-in-production"),
		SessionID:    envStr("SESSION_ID", "default"),
		SimEnabled:   envStr("SIM_ENABLED", "") == "true",

		OmniRadiusM:           envFloat("OMNI_RADIUS_M", 30),
		FanPointCount:         envInt("FAN_POINT_COUNT", 12),
		MinDistanceMultiplier: envFloat("MIN_DISTANCE_MULTIPLIER", 1.5),
		MaxDistanceMultiplier: envFloat("MAX_DISTANCE_MULTIPLIER", 10),
		MaxWindSpeedMS:        envFloat("MAX_WIND_SPEED_MS", 8),
	}
}

// Validate rejects out-of-range parameters. Detection parameters are
// checked here, at configuration-load time, never per observation.
func (c *Config) Validate() error {
	switch c.Source {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("config: unknown observation source %q", c.Source)
	}
	if c.OmniRadiusM <= 0 {
		return fmt.Errorf("config: OMNI_RADIUS_M must be positive, got %v", c.OmniRadiusM)
	}
	if c.FanPointCount < 2 {
		return fmt.Errorf("config: FAN_POINT_COUNT must be at least 2, got %d", c.FanPointCount)
	}
	if c.MinDistanceMultiplier <= 0 {
		return fmt.Errorf("config: MIN_DISTANCE_MULTIPLIER must be positive, got %v", c.MinDistanceMultiplier)
	}
	if c.MaxDistanceMultiplier < c.MinDistanceMultiplier {
		return fmt.Errorf("config: MAX_DISTANCE_MULTIPLIER %v below MIN_DISTANCE_MULTIPLIER %v",
			c.MaxDistanceMultiplier, c.MinDistanceMultiplier)
	}
	if c.MaxWindSpeedMS <= 0 {
		return fmt.Errorf("config: MAX_WIND_SPEED_MS must be positive, got %v", c.MaxWindSpeedMS)
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
