package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Tunables holds the empirically tuned thresholds of the trip pipeline.
type Tunables struct {
	// Activities and gaps shorter than this are noise, not events.
	ShortActivity time.Duration `mapstructure:"SHORT_ACTIVITY"`

	// STILL intervals shorter than this between the same activity are collapsed.
	StillSandwich time.Duration `mapstructure:"STILL_SANDWICH"`

	// Nominal step sampling period; locations within 1.5x of it are folded.
	StepSamplingPeriod time.Duration `mapstructure:"STEP_SAMPLING_PERIOD"`

	// A moving activity silent for UnreasonableGapFactor*ShortActivity is split.
	UnreasonableGapFactor float64 `mapstructure:"UNREASONABLE_GAP_FACTOR"`

	// Boundary expansion (steps/min, m/s)
	WalkingCadence   float64 `mapstructure:"WALKING_CADENCE"`
	StillMaxCadence  float64 `mapstructure:"STILL_MAX_CADENCE"`
	StillStopCadence float64 `mapstructure:"STILL_STOP_CADENCE"`
	StationarySpeed  float64 `mapstructure:"STATIONARY_SPEED"`

	// Trip correction
	HighCadence       float64 `mapstructure:"HIGH_CADENCE"`        // steps/min
	LostActivitySteps int64   `mapstructure:"LOST_ACTIVITY_STEPS"` // steps
	MovingSpeed       float64 `mapstructure:"MOVING_SPEED"`        // m/s
	VehicleWalkSpeed  float64 `mapstructure:"VEHICLE_WALK_SPEED"`  // m/s
	LinearThreshold   float64 `mapstructure:"LINEAR_THRESHOLD"`    // meters
	MinVehicleRadius  float64 `mapstructure:"MIN_VEHICLE_RADIUS"`  // meters
	MinBicycleRadius  float64 `mapstructure:"MIN_BICYCLE_RADIUS"`  // meters

	// Trace cleaning
	MaxAccuracy       float64 `mapstructure:"MAX_ACCURACY"` // meters
	SpikePasses       int     `mapstructure:"SPIKE_PASSES"`
	SEDKeepRatio      float64 `mapstructure:"SED_KEEP_RATIO"`
	SEDMinPoints      int     `mapstructure:"SED_MIN_POINTS"`
	StayPointDistance float64 `mapstructure:"STAY_POINT_DISTANCE"` // meters
	StayPointMinSize  int     `mapstructure:"STAY_POINT_MIN_SIZE"`
}

// DayFlags are the day-scoped switches for trace simplification.
type DayFlags struct {
	StayPoints         bool `mapstructure:"ENABLE_STAY_POINTS"`
	DaySimplification  bool `mapstructure:"ENABLE_DAY_SIMPLIFICATION"`
	TripSimplification bool `mapstructure:"ENABLE_TRIP_SIMPLIFICATION"`
}

// Config is everything the engine reads besides the samples themselves.
type Config struct {
	Tunables `mapstructure:",squash"`
	DayFlags `mapstructure:",squash"`

	// Database is the SQLite sample store used by the CLIs.
	Database string `mapstructure:"DATABASE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogJSON  bool   `mapstructure:"LOG_JSON"`
}

// DefaultTunables returns the production-tested thresholds.
func DefaultTunables() Tunables {
	return Tunables{
		ShortActivity:         120 * time.Second,
		StillSandwich:         60 * time.Second,
		StepSamplingPeriod:    30 * time.Second,
		UnreasonableGapFactor: 3,
		WalkingCadence:        10,
		StillMaxCadence:       20,
		StillStopCadence:      50,
		StationarySpeed:       0.1,
		HighCadence:           60,
		LostActivitySteps:     1000,
		MovingSpeed:           1.0,
		VehicleWalkSpeed:      11, // ~40 km/h
		LinearThreshold:       1500,
		MinVehicleRadius:      1500,
		MinBicycleRadius:      300,
		MaxAccuracy:           50,
		SpikePasses:           4,
		SEDKeepRatio:          0.65,
		SEDMinPoints:          8,
		StayPointDistance:     25,
		StayPointMinSize:      5,
	}
}

// Default returns a Config with default tunables and all flags off.
func Default() Config {
	return Config{
		Tunables: DefaultTunables(),
		Database: "daytrips.sqlite",
		LogLevel: "info",
	}
}

// Normalize replaces zero or negative tunables with their defaults.
func (t Tunables) Normalize() Tunables {
	d := DefaultTunables()
	if t.ShortActivity <= 0 {
		t.ShortActivity = d.ShortActivity
	}
	if t.StillSandwich <= 0 {
		t.StillSandwich = d.StillSandwich
	}
	if t.StepSamplingPeriod <= 0 {
		t.StepSamplingPeriod = d.StepSamplingPeriod
	}
	if t.UnreasonableGapFactor <= 0 {
		t.UnreasonableGapFactor = d.UnreasonableGapFactor
	}
	if t.WalkingCadence <= 0 {
		t.WalkingCadence = d.WalkingCadence
	}
	if t.StillMaxCadence <= 0 {
		t.StillMaxCadence = d.StillMaxCadence
	}
	if t.StillStopCadence <= 0 {
		t.StillStopCadence = d.StillStopCadence
	}
	if t.StationarySpeed <= 0 {
		t.StationarySpeed = d.StationarySpeed
	}
	if t.HighCadence <= 0 {
		t.HighCadence = d.HighCadence
	}
	if t.LostActivitySteps <= 0 {
		t.LostActivitySteps = d.LostActivitySteps
	}
	if t.MovingSpeed <= 0 {
		t.MovingSpeed = d.MovingSpeed
	}
	if t.VehicleWalkSpeed <= 0 {
		t.VehicleWalkSpeed = d.VehicleWalkSpeed
	}
	if t.LinearThreshold <= 0 {
		t.LinearThreshold = d.LinearThreshold
	}
	if t.MinVehicleRadius <= 0 {
		t.MinVehicleRadius = d.MinVehicleRadius
	}
	if t.MinBicycleRadius <= 0 {
		t.MinBicycleRadius = d.MinBicycleRadius
	}
	if t.MaxAccuracy <= 0 {
		t.MaxAccuracy = d.MaxAccuracy
	}
	if t.SpikePasses <= 0 {
		t.SpikePasses = d.SpikePasses
	}
	if t.SEDKeepRatio <= 0 || t.SEDKeepRatio > 1 {
		t.SEDKeepRatio = d.SEDKeepRatio
	}
	if t.SEDMinPoints < 3 {
		t.SEDMinPoints = d.SEDMinPoints
	}
	if t.StayPointDistance <= 0 {
		t.StayPointDistance = d.StayPointDistance
	}
	if t.StayPointMinSize <= 0 {
		t.StayPointMinSize = d.StayPointMinSize
	}
	return t
}

// Load reads DAYTRIPS_* environment variables on top of the defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DAYTRIPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	defaults := map[string]any{
		"SHORT_ACTIVITY":             def.ShortActivity,
		"STILL_SANDWICH":             def.StillSandwich,
		"STEP_SAMPLING_PERIOD":       def.StepSamplingPeriod,
		"UNREASONABLE_GAP_FACTOR":    def.UnreasonableGapFactor,
		"WALKING_CADENCE":            def.WalkingCadence,
		"STILL_MAX_CADENCE":          def.StillMaxCadence,
		"STILL_STOP_CADENCE":         def.StillStopCadence,
		"STATIONARY_SPEED":           def.StationarySpeed,
		"HIGH_CADENCE":               def.HighCadence,
		"LOST_ACTIVITY_STEPS":        def.LostActivitySteps,
		"MOVING_SPEED":               def.MovingSpeed,
		"VEHICLE_WALK_SPEED":         def.VehicleWalkSpeed,
		"LINEAR_THRESHOLD":           def.LinearThreshold,
		"MIN_VEHICLE_RADIUS":         def.MinVehicleRadius,
		"MIN_BICYCLE_RADIUS":         def.MinBicycleRadius,
		"MAX_ACCURACY":               def.MaxAccuracy,
		"SPIKE_PASSES":               def.SpikePasses,
		"SED_KEEP_RATIO":             def.SEDKeepRatio,
		"SED_MIN_POINTS":             def.SEDMinPoints,
		"STAY_POINT_DISTANCE":        def.StayPointDistance,
		"STAY_POINT_MIN_SIZE":        def.StayPointMinSize,
		"ENABLE_STAY_POINTS":         false,
		"ENABLE_DAY_SIMPLIFICATION":  false,
		"ENABLE_TRIP_SIMPLIFICATION": false,
		"DATABASE":                   def.Database,
		"LOG_LEVEL":                  def.LogLevel,
		"LOG_JSON":                   false,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Tunables = cfg.Tunables.Normalize()
	return cfg, nil
}
