// Package config loads the controller's YAML configuration, applies environment
// overrides and validates the result.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
)

// #region types
// Config is the full controller configuration.
type Config struct {
	PolicyName string         `yaml:"policy" json:"policy" validate:"required,oneof=reactive scripted"`
	DB         string         `yaml:"db" json:"db"`
	Period     time.Duration  `yaml:"period" json:"period" validate:"gt=0"`
	Reactive   ReactiveConfig `yaml:"reactive" json:"reactive"`
	Scripted   ScriptedConfig `yaml:"scripted" json:"scripted"`
	Serial     SerialConfig   `yaml:"serial" json:"serial"`
	Drive      DriveConfig    `yaml:"drive" json:"drive"`
	Accel      AccelConfig    `yaml:"accel" json:"accel"`
	Metrics    MetricsConfig  `yaml:"metrics" json:"metrics"`
	Log        LogConfig      `yaml:"log" json:"log"`
}

type ReactiveConfig struct {
	DriveSpeed        int16 `yaml:"drive_speed" json:"drive_speed" validate:"gte=-500,lte=500"`
	ReorientSpeed     int16 `yaml:"reorient_speed" json:"reorient_speed" validate:"gte=0,lte=500"`
	AvoidDistance     int32 `yaml:"avoid_distance" json:"avoid_distance" validate:"gte=0"`
	ReorientTolerance int32 `yaml:"reorient_tolerance" json:"reorient_tolerance" validate:"gte=0"`
}

type LegConfig struct {
	Name      string `yaml:"name" json:"name"`
	Kind      string `yaml:"kind" json:"kind" validate:"oneof=drive turn"`
	Threshold int32  `yaml:"threshold" json:"threshold" validate:"gte=0"`
	Speed     int16  `yaml:"speed" json:"speed" validate:"gte=-500,lte=500"`
}

type TriggerConfig struct {
	Wall bool `yaml:"wall" json:"wall"`
	Bump bool `yaml:"bump" json:"bump"`
}

type ScriptedConfig struct {
	Legs       []LegConfig   `yaml:"legs" json:"legs" validate:"dive"`
	StartLeg   int           `yaml:"start_leg" json:"start_leg" validate:"gte=0"`
	TriggerLeg int           `yaml:"trigger_leg" json:"trigger_leg" validate:"gte=0"`
	Trigger    TriggerConfig `yaml:"trigger" json:"trigger"`
	OnComplete string        `yaml:"on_complete" json:"on_complete" validate:"oneof=hold stop"`
}

type SerialConfig struct {
	Port string `yaml:"port" json:"port"`
	Baud int    `yaml:"baud" json:"baud" validate:"gt=0"`
	Mode string `yaml:"mode" json:"mode" validate:"oneof=safe full"`
}

// DriveConfig selects remote actuation. Addr sends wheel commands to a Drive service;
// Listen is where drive-server accepts them.
type DriveConfig struct {
	Addr   string `yaml:"addr" json:"addr"`
	Listen string `yaml:"listen" json:"listen"`
}

type AccelConfig struct {
	Alpha float64 `yaml:"alpha" json:"alpha" validate:"gt=0,lte=1"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file" json:"file"`
}

// #endregion types

// #region defaults
// Default returns the configuration the controller runs with when no file is given.
func Default() Config {
	rp := nav.DefaultReactiveParams()
	return Config{
		PolicyName: "reactive",
		DB:         "irobot_nav.db",
		Period:     60 * time.Millisecond,
		Reactive: ReactiveConfig{
			DriveSpeed:        rp.DriveSpeed,
			ReorientSpeed:     rp.ReorientSpeed,
			AvoidDistance:     rp.AvoidDistance,
			ReorientTolerance: rp.ReorientTolerance,
		},
		Scripted: scriptedFromNav(nav.DefaultScript()),
		Serial:   SerialConfig{Port: "/dev/ttyUSB0", Baud: 57600, Mode: "safe"},
		Drive:    DriveConfig{Listen: "localhost:50061"},
		Accel:    AccelConfig{Alpha: 0.2},
		Log:      LogConfig{Level: "info"},
	}
}

func scriptedFromNav(s nav.Script) ScriptedConfig {
	legs := make([]LegConfig, len(s.Legs))
	for i, l := range s.Legs {
		legs[i] = LegConfig{Name: l.Name, Kind: l.Kind.String(), Threshold: l.Threshold, Speed: l.Speed}
	}
	onComplete := "hold"
	if s.OnComplete == nav.CompleteStop {
		onComplete = "stop"
	}
	return ScriptedConfig{
		Legs:       legs,
		StartLeg:   s.StartLeg,
		TriggerLeg: s.TriggerLeg,
		Trigger:    TriggerConfig{Wall: s.Trigger.Wall, Bump: s.Trigger.Bump},
		OnComplete: onComplete,
	}
}

// #endregion defaults

// #region load
var validate = validator.New()

// Load reads path over the defaults, applies NAV_* environment overrides and
// validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DB = envOr("NAV_DB", c.DB)
	c.Serial.Port = envOr("NAV_PORT", c.Serial.Port)
	c.Drive.Addr = envOr("NAV_DRIVE_ADDR", c.Drive.Addr)
	c.Log.Level = strings.ToLower(envOr("NAV_LOG_LEVEL", c.Log.Level))
}

// Validate checks field constraints and that the selected policy can be built.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// JSON is the configuration as recorded alongside a run.
func (c Config) JSON() string {
	b, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load

// #region policy
// Policy builds the configured maneuver policy.
func (c Config) Policy() (nav.Policy, error) {
	switch c.PolicyName {
	case "reactive":
		return nav.NewReactive(nav.ReactiveParams{
			DriveSpeed:        c.Reactive.DriveSpeed,
			ReorientSpeed:     c.Reactive.ReorientSpeed,
			AvoidDistance:     c.Reactive.AvoidDistance,
			ReorientTolerance: c.Reactive.ReorientTolerance,
		}), nil
	case "scripted":
		script, err := c.Scripted.Script()
		if err != nil {
			return nil, err
		}
		return nav.NewScripted(script)
	}
	return nil, fmt.Errorf("unknown policy %q", c.PolicyName)
}

// Script converts the YAML leg list into a nav.Script.
func (s ScriptedConfig) Script() (nav.Script, error) {
	legs := make([]nav.Leg, len(s.Legs))
	for i, l := range s.Legs {
		kind := nav.LegDrive
		switch l.Kind {
		case "drive":
		case "turn":
			kind = nav.LegTurn
		default:
			return nav.Script{}, fmt.Errorf("leg %d: unknown kind %q", i, l.Kind)
		}
		legs[i] = nav.Leg{Name: l.Name, Kind: kind, Threshold: l.Threshold, Speed: l.Speed}
	}
	onComplete := nav.CompleteHold
	if s.OnComplete == "stop" {
		onComplete = nav.CompleteStop
	}
	return nav.Script{
		Legs:       legs,
		StartLeg:   s.StartLeg,
		TriggerLeg: s.TriggerLeg,
		Trigger:    nav.Trigger{Wall: s.Trigger.Wall, Bump: s.Trigger.Bump},
		OnComplete: onComplete,
	}, nil
}

// #endregion policy
