// Package config reads application settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"LINEPLAN_ENV" env-default:"local"`
	Planning   `yaml:"planning"`
	Storage    `yaml:"storage"`
	HTTPServer `yaml:"http_server"`
}

type Planning struct {
	WorkDayMinutes     int           `yaml:"work_day_minutes" env:"LINEPLAN_WORK_DAY_MINUTES" env-default:"480"`
	WorkingDaysPerWeek int           `yaml:"working_days_per_week" env:"LINEPLAN_WORKING_DAYS" env-default:"6"`
	DayStartHour       int           `yaml:"day_start_hour" env-default:"8"`
	GapThreshold       int           `yaml:"gap_threshold" env-default:"4"`
	OffsetCap          int           `yaml:"offset_cap" env-default:"4"`
	MaxLines           int           `yaml:"max_lines" env-default:"100"`
	MaxHorizonWeeks    int           `yaml:"max_horizon_weeks" env-default:"52"`
	HorizonLookahead   time.Duration `yaml:"horizon_lookahead" env-default:"72h"`
}

type Storage struct {
	DBPath string `yaml:"db_path" env:"LINEPLAN_DB" env-default:"./data/lineplan.db"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"LINEPLAN_ADDRESS" env-default:"localhost:4001"`
	Timeout        time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"LINEPLAN_ALLOWED_ORIGINS" env-default:"http://localhost:5173"`
}

// Load reads the config file at path, or CONFIG_PATH when path is empty.
// Without a file the defaults and environment are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from env: %w", err)
		}
		return &cfg, cfg.validate()
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, cfg.validate()
}

// MustLoad is Load that exits on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func (c *Config) validate() error {
	p := c.Planning
	switch {
	case p.WorkDayMinutes <= 0 || p.WorkDayMinutes > 24*60:
		return fmt.Errorf("work_day_minutes must be in (0,1440], got %d", p.WorkDayMinutes)
	case p.WorkingDaysPerWeek < 1 || p.WorkingDaysPerWeek > 7:
		return fmt.Errorf("working_days_per_week must be in [1,7], got %d", p.WorkingDaysPerWeek)
	case p.DayStartHour < 0 || p.DayStartHour > 23:
		return fmt.Errorf("day_start_hour must be in [0,23], got %d", p.DayStartHour)
	case p.GapThreshold < 1:
		return fmt.Errorf("gap_threshold must be positive, got %d", p.GapThreshold)
	case p.OffsetCap < 0:
		return fmt.Errorf("offset_cap cannot be negative, got %d", p.OffsetCap)
	case p.MaxLines < 1:
		return fmt.Errorf("max_lines must be positive, got %d", p.MaxLines)
	case p.MaxHorizonWeeks < 1:
		return fmt.Errorf("max_horizon_weeks must be positive, got %d", p.MaxHorizonWeeks)
	}
	return nil
}
