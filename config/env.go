package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// EnvPrefix is prepended to the names of all environment overrides.
const EnvPrefix = "AUTOPATH_"

// envTargets maps environment variable names (without prefix) to settings.
func envTargets(cfg *Config) map[string]any {
	return map[string]any{
		"INDEX_EXPONENT":          &cfg.Index.Exponent,
		"TRACKING_MAX_DISTANCE":   &cfg.Tracking.MaxDistance,
		"TRACKING_MAX_HEADING":    &cfg.Tracking.MaxHeadingDeg,
		"PLANNER_COST_SAMPLES":    &cfg.Planner.CostSamples,
		"PLANNER_LENGTH_WEIGHT":   &cfg.Planner.LengthWeight,
		"PLANNER_MAX_RATE_WEIGHT": &cfg.Planner.MaxRateWeight,
		"PLANNER_AVG_RATE_WEIGHT": &cfg.Planner.AvgRateWeight,
		"PLANNER_SEED_SAMPLES":    &cfg.Planner.SeedSamples,
		"PLANNER_SEED_WINDOW":     &cfg.Planner.SeedWindow,
		"PLANNER_INITIAL_TANGENT": &cfg.Planner.InitialTangent,
		"PLANNER_ITERATIONS":      &cfg.Planner.Iterations,
		"PLANNER_DIFF_STEP":       &cfg.Planner.DiffStep,
		"PLANNER_STEP_SCALE":      &cfg.Planner.StepScale,
		"PLANNER_MAX_GRADIENT":    &cfg.Planner.MaxGradient,
		"PLANNER_MAX_TANGENT":     &cfg.Planner.MaxTangent,
		"ROBOT_WIDTH":             &cfg.Robot.Width,
		"ROBOT_LENGTH":            &cfg.Robot.Length,
		"DRIVE_KP":                &cfg.Drive.Kp,
		"DRIVE_KV":                &cfg.Drive.Kv,
		"DRIVE_MAX_VOLTAGE":       &cfg.Drive.MaxVoltage,
		"DRIVE_FREE_SPEED":        &cfg.Drive.FreeSpeed,
		"DRIVE_MAX_ACCEL":         &cfg.Drive.MaxAccel,
		"DRIVE_DRAG":              &cfg.Drive.Drag,
		"DRIVE_LOOKAHEAD":         &cfg.Drive.Lookahead,
		"DRIVE_MIN_SPEED":         &cfg.Drive.MinSpeed,
		"DRIVE_DONE_DISTANCE":     &cfg.Drive.DoneDistance,
		"DRIVE_DONE_SPEED":        &cfg.Drive.DoneSpeed,
		"FIELD_WIDTH":             &cfg.Field.Width,
		"FIELD_HEIGHT":            &cfg.Field.Height,
		"SIM_TIME_STEP":           &cfg.Sim.TimeStep,
		"SIM_MAX_TIME":            &cfg.Sim.MaxTime,
		"TRACE_LEVEL":             &cfg.Trace.Level,
	}
}

// loadEnv overrides settings from the environment. Malformed numbers are
// reported, not skipped.
func loadEnv(cfg *Config) error {
	var errs []error
	for key, dst := range envTargets(cfg) {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		var err error
		switch p := dst.(type) {
		case *int:
			var i int
			if i, err = strconv.Atoi(v); err == nil {
				*p = i
			}
		case *float64:
			var f float64
			if f, err = strconv.ParseFloat(v, 64); err == nil {
				*p = f
			}
		case *string:
			*p = v
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s%s: %v", ErrInvalid, EnvPrefix, key, err))
			continue
		}
		tracer().Debugf("%s%s = %s", EnvPrefix, key, v)
	}
	return errors.Join(errs...)
}
