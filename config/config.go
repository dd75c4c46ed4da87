package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `envconfig:"PORT" default:"8080"`
	// ROOM_INACTIVITY_THRESHOLD is how long an empty room survives before
	// the reaper may evict it.
	InactivityThreshold time.Duration `envconfig:"ROOM_INACTIVITY_THRESHOLD" default:"60m"`
	SweepInterval       time.Duration `envconfig:"ROOM_SWEEP_INTERVAL" default:"30m"`
	// EXEC_TIMEOUT is the wall-clock limit on a single run-code request.
	ExecTimeout time.Duration `envconfig:"EXEC_TIMEOUT" default:"5s"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
