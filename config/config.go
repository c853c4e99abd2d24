/*
Package config holds the settings of the path simulator.

Settings are layered: built-in defaults, then a YAML file, then environment
variables prefixed with AUTOPATH_ (e.g. AUTOPATH_DRIVE_KP). The result is
validated before use.

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/field"
	"github.com/npillmayer/autopath/index"
	"github.com/npillmayer/autopath/sim"
	"github.com/npillmayer/autopath/track"
	"github.com/npillmayer/schuko/tracing"
	"gopkg.in/yaml.v3"
)

// tracer writes to trace with key 'autopath.config'
func tracer() tracing.Trace {
	return tracing.Select("autopath.config")
}

// ErrInvalid is returned for configurations which fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Config contains all settings.
type Config struct {
	Index    IndexConfig    `yaml:"index"`
	Tracking TrackingConfig `yaml:"tracking"`
	Planner  PlannerConfig  `yaml:"planner"`
	Robot    RobotConfig    `yaml:"robot"`
	Drive    DriveConfig    `yaml:"drive"`
	Field    FieldConfig    `yaml:"field"`
	Sim      SimConfig      `yaml:"sim"`
	Trace    TraceConfig    `yaml:"trace"`
}

// IndexConfig sets the resolution of lookup trees (2^exponent samples).
type IndexConfig struct {
	Exponent int `yaml:"exponent" validate:"min=1,max=16"`
}

// TrackingConfig sets when the robot counts as being on its path.
type TrackingConfig struct {
	MaxDistance   float64 `yaml:"max_distance" validate:"gt=0"`
	MaxHeadingDeg float64 `yaml:"max_heading_deg" validate:"gt=0,lte=180"`
}

// PlannerConfig mirrors track.PlannerParams.
type PlannerConfig struct {
	CostSamples    int     `yaml:"cost_samples" validate:"min=2"`
	LengthWeight   float64 `yaml:"length_weight" validate:"gte=0"`
	MaxRateWeight  float64 `yaml:"max_rate_weight" validate:"gte=0"`
	AvgRateWeight  float64 `yaml:"avg_rate_weight" validate:"gte=0"`
	SeedSamples    int     `yaml:"seed_samples" validate:"min=1"`
	SeedWindow     float64 `yaml:"seed_window" validate:"gte=0,lte=1"`
	InitialTangent float64 `yaml:"initial_tangent" validate:"gte=0,ltefield=MaxTangent"`
	Iterations     int     `yaml:"iterations" validate:"gte=0"`
	DiffStep       float64 `yaml:"diff_step" validate:"gt=0"`
	StepScale      float64 `yaml:"step_scale" validate:"gt=0"`
	MaxGradient    float64 `yaml:"max_gradient" validate:"gt=0"`
	MaxTangent     float64 `yaml:"max_tangent" validate:"gt=0"`
}

// RobotConfig is the robot's rectangle. The width is also the wheelbase.
type RobotConfig struct {
	Width  float64 `yaml:"width" validate:"gt=0"`
	Length float64 `yaml:"length" validate:"gt=0"`
}

// DriveConfig sets the motor model and the wheel controllers.
type DriveConfig struct {
	Kp           float64 `yaml:"kp" validate:"gte=0"`
	Kv           float64 `yaml:"kv" validate:"gte=0"`
	MaxVoltage   float64 `yaml:"max_voltage" validate:"gt=0"`
	FreeSpeed    float64 `yaml:"free_speed" validate:"gt=0"`
	MaxAccel     float64 `yaml:"max_accel" validate:"gt=0"`
	Drag         float64 `yaml:"drag" validate:"gte=0"`
	Lookahead    float64 `yaml:"lookahead" validate:"gte=0"`
	MinSpeed     float64 `yaml:"min_speed" validate:"gte=0,ltfield=FreeSpeed"`
	DoneDistance float64 `yaml:"done_distance" validate:"gt=0"`
	DoneSpeed    float64 `yaml:"done_speed" validate:"gt=0"`
}

// FieldConfig is the size of the field, centered at the origin. A zero
// width or height leaves the field unbounded.
type FieldConfig struct {
	Width  float64 `yaml:"width" validate:"gte=0"`
	Height float64 `yaml:"height" validate:"gte=0"`
}

// SimConfig sets the simulation clock.
type SimConfig struct {
	TimeStep float64 `yaml:"time_step" validate:"gt=0,ltfield=MaxTime"`
	MaxTime  float64 `yaml:"max_time" validate:"gt=0"`
}

// TraceConfig sets the trace level.
type TraceConfig struct {
	Level string `yaml:"level" validate:"oneof=error info debug Error Info Debug"`
}

// Default returns the built-in settings.
func Default() Config {
	tol := track.DefaultTolerance()
	pp := track.DefaultPlannerParams()
	sp := sim.DefaultParams()
	return Config{
		Index: IndexConfig{Exponent: index.DefaultExponent},
		Tracking: TrackingConfig{
			MaxDistance:   tol.MaxDistance,
			MaxHeadingDeg: tol.MaxHeading / autopath.Deg2Rad,
		},
		Planner: PlannerConfig{
			CostSamples:    pp.CostSamples,
			LengthWeight:   pp.LengthWeight,
			MaxRateWeight:  pp.MaxRateWeight,
			AvgRateWeight:  pp.AvgRateWeight,
			SeedSamples:    pp.SeedSamples,
			SeedWindow:     pp.SeedWindow,
			InitialTangent: pp.InitialTangent,
			Iterations:     pp.Iterations,
			DiffStep:       pp.DiffStep,
			StepScale:      pp.StepScale,
			MaxGradient:    pp.MaxGradient,
			MaxTangent:     pp.MaxTangent,
		},
		Robot: RobotConfig{Width: 2, Length: 2.5},
		Drive: DriveConfig{
			Kp:           sp.Kp,
			Kv:           sp.Kv,
			MaxVoltage:   sp.MaxVoltage,
			FreeSpeed:    sp.FreeSpeed,
			MaxAccel:     sp.MaxAccel,
			Drag:         sp.Drag,
			Lookahead:    sp.Lookahead,
			MinSpeed:     sp.MinSpeed,
			DoneDistance: sp.DoneDistance,
			DoneSpeed:    sp.DoneSpeed,
		},
		Field: FieldConfig{Width: 54, Height: 27},
		Sim:   SimConfig{TimeStep: 0.01, MaxTime: 30},
		Trace: TraceConfig{Level: "error"},
	}
}

// Load returns the defaults, overridden by the YAML file at path (if path is
// not empty) and then by the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	tracer().Debugf("configuration loaded from %q", path)
	return cfg, nil
}

// Unknown keys are rejected, so that misspelled settings do not go unnoticed.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks all settings.
func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if (cfg.Field.Width == 0) != (cfg.Field.Height == 0) {
		return fmt.Errorf("%w: field width and height must both be set or both be 0", ErrInvalid)
	}
	return nil
}

// === Converters ============================================================

// Tolerance returns the on-path tolerance.
func (cfg Config) Tolerance() track.Tolerance {
	return track.Tolerance{
		MaxDistance: cfg.Tracking.MaxDistance,
		MaxHeading:  cfg.Tracking.MaxHeadingDeg * autopath.Deg2Rad,
	}
}

// PlannerParams returns the parameters of the adjustment path optimizer.
func (cfg Config) PlannerParams() track.PlannerParams {
	p := cfg.Planner
	return track.PlannerParams{
		CostSamples:    p.CostSamples,
		LengthWeight:   p.LengthWeight,
		MaxRateWeight:  p.MaxRateWeight,
		AvgRateWeight:  p.AvgRateWeight,
		SeedSamples:    p.SeedSamples,
		SeedWindow:     p.SeedWindow,
		InitialTangent: p.InitialTangent,
		Iterations:     p.Iterations,
		DiffStep:       p.DiffStep,
		StepScale:      p.StepScale,
		MaxGradient:    p.MaxGradient,
		MaxTangent:     p.MaxTangent,
	}
}

// SimParams returns the simulator parameters.
func (cfg Config) SimParams() sim.Params {
	d := cfg.Drive
	return sim.Params{
		Kp:           d.Kp,
		Kv:           d.Kv,
		MaxVoltage:   d.MaxVoltage,
		FreeSpeed:    d.FreeSpeed,
		MaxAccel:     d.MaxAccel,
		Drag:         d.Drag,
		Lookahead:    d.Lookahead,
		MinSpeed:     d.MinSpeed,
		DoneDistance: d.DoneDistance,
		DoneSpeed:    d.DoneSpeed,
		Exponent:     cfg.Index.Exponent,
		Tolerance:    cfg.Tolerance(),
		Planner:      cfg.PlannerParams(),
	}
}

// PlaceRobot puts a robot at rest at pose.
func (cfg Config) PlaceRobot(pose autopath.Pose) sim.Robot {
	return sim.NewRobot(pose, cfg.Robot.Width, cfg.Robot.Length)
}

// Bounds returns the field polygon, or nil for an unbounded field.
func (cfg Config) Bounds() *field.Polygon {
	if cfg.Field.Width == 0 || cfg.Field.Height == 0 {
		return nil
	}
	half := autopath.P(cfg.Field.Width/2, cfg.Field.Height/2)
	return field.Box(-half, half)
}

// TraceLevel returns the configured trace level.
func (cfg Config) TraceLevel() tracing.TraceLevel {
	return tracing.TraceLevelFromString(cfg.Trace.Level)
}
