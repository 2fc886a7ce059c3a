package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ScoringWeights splits the composite score across the six criteria.
// They must sum to 1.0 (within 0.01).
type ScoringWeights struct {
	Distance     float64 `yaml:"distance" json:"distance"`
	Capacity     float64 `yaml:"capacity" json:"capacity"`
	TimeUrgency  float64 `yaml:"timeUrgency" json:"timeUrgency"`
	RouteCompat  float64 `yaml:"routeCompat" json:"routeCompat"`
	Performance  float64 `yaml:"performance" json:"performance"`
	Interference float64 `yaml:"interference" json:"interference"`
}

func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		Distance:     0.25,
		Capacity:     0.15,
		TimeUrgency:  0.25,
		RouteCompat:  0.10,
		Performance:  0.10,
		Interference: 0.15,
	}
}

func (w ScoringWeights) Validate() error {
	sum := w.Distance + w.Capacity + w.TimeUrgency + w.RouteCompat + w.Performance + w.Interference
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("scoring weights sum to %.4f, want 1.0 +/- 0.01", sum)
	}
	return nil
}

// GridConfig parameterizes the fast-mode geographic pre-filter: a 3x2
// bucket grid over a service-area bounding box. Defaults cover
// Montevideo.
type GridConfig struct {
	LatMin    float64 `yaml:"latMin" json:"latMin"`
	LatMax    float64 `yaml:"latMax" json:"latMax"`
	LonMin    float64 `yaml:"lonMin" json:"lonMin"`
	LonMax    float64 `yaml:"lonMax" json:"lonMax"`
	LatCenter float64 `yaml:"latCenter" json:"latCenter"`
	LonCenter float64 `yaml:"lonCenter" json:"lonCenter"`
	LonWest   float64 `yaml:"lonWest" json:"lonWest"`
	LatNorth  float64 `yaml:"latNorth" json:"latNorth"`
}

func DefaultGrid() GridConfig {
	return GridConfig{
		LatMin:    -34.92,
		LatMax:    -34.80,
		LonMin:    -56.22,
		LonMax:    -56.10,
		LatCenter: -34.905,
		LonCenter: -56.170,
		LonWest:   -56.195,
		LatNorth:  -34.895,
	}
}

func (g GridConfig) Validate() error {
	if g.LatMin >= g.LatMax || g.LonMin >= g.LonMax {
		return fmt.Errorf("grid bounds inverted: lat [%v,%v] lon [%v,%v]", g.LatMin, g.LatMax, g.LonMin, g.LonMax)
	}
	return nil
}

// Config is the full service configuration, loaded from an optional
// yaml file with env overrides applied on top.
type Config struct {
	Port string `yaml:"port" json:"port"`

	Weights ScoringWeights `yaml:"weights" json:"weights"`
	Grid    GridConfig     `yaml:"grid" json:"grid"`

	// MinAssignScore is the FindBestVehicle acceptance threshold.
	MinAssignScore float64 `yaml:"minAssignScore" json:"minAssignScore"`
	// FastTopN limits full scoring to the N best quick-ranked vehicles.
	FastTopN int `yaml:"fastTopN" json:"fastTopN"`

	// FallbackSpeedKmh drives straight-line estimates when no road
	// graph is available.
	FallbackSpeedKmh float64 `yaml:"fallbackSpeedKmh" json:"fallbackSpeedKmh"`
	// UrbanFactor inflates raw edge travel times for stops and lights.
	UrbanFactor float64 `yaml:"urbanFactor" json:"urbanFactor"`

	// OptimizerBudget bounds the sequence local search.
	OptimizerBudget time.Duration `yaml:"optimizerBudget" json:"optimizerBudget"`

	// Zone layer GeoJSON paths. Missing files load as empty layers.
	BillingZonesPath string `yaml:"billingZonesPath" json:"billingZonesPath"`
	AdminZonesPath   string `yaml:"adminZonesPath" json:"adminZonesPath"`

	// Graph cache backends, selected when set.
	DatabaseURL string `yaml:"-" json:"-"`
	RedisURL    string `yaml:"-" json:"-"`
}

func Default() Config {
	return Config{
		Port:             "8080",
		Weights:          DefaultWeights(),
		Grid:             DefaultGrid(),
		MinAssignScore:   0.3,
		FastTopN:         3,
		FallbackSpeedKmh: 25,
		UrbanFactor:      0.85,
		OptimizerBudget:  2 * time.Second,
		BillingZonesPath: "data/zonas_f.geojson",
		AdminZonesPath:   "data/zonas_4.geojson",
	}
}

// Load reads the yaml file at path when it exists, then applies env
// overrides, then validates. Empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("BILLING_ZONES_PATH"); v != "" {
		c.BillingZonesPath = v
	}
	if v := os.Getenv("ADMIN_ZONES_PATH"); v != "" {
		c.AdminZonesPath = v
	}
	if v := os.Getenv("MIN_ASSIGN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MinAssignScore = f
		}
	}
	if v := os.Getenv("FAST_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.FastTopN = n
		}
	}
	if v := os.Getenv("OPTIMIZER_BUDGET_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.OptimizerBudget = time.Duration(n) * time.Millisecond
		}
	}
}

func (c *Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if c.MinAssignScore < 0 || c.MinAssignScore > 1 {
		return fmt.Errorf("min assign score %v outside [0,1]", c.MinAssignScore)
	}
	if c.FastTopN < 1 {
		return fmt.Errorf("fast top-n must be >= 1")
	}
	if c.FallbackSpeedKmh <= 0 {
		return fmt.Errorf("fallback speed must be > 0")
	}
	if c.UrbanFactor <= 0 || c.UrbanFactor > 1 {
		return fmt.Errorf("urban factor %v outside (0,1]", c.UrbanFactor)
	}
	return nil
}
