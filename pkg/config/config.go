// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379" envDocs:"redis address used as the persistent store"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""               envDocs:"redis password"`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"              envDocs:"redis logical database"`
	Namespace     string `env:"NAMESPACE"      envDefault:"rankedqueue"    envDocs:"environment namespace, prefixes every store key"`

	CycleIntervalSecond int `env:"CYCLE_INTERVAL_SECOND" envDefault:"10"  envDocs:"seconds between two matchmaking cycles"`
	LockLeaseSecond     int `env:"LOCK_LEASE_SECOND"     envDefault:"300" envDocs:"a cycle lock older than this is considered stale and can be taken over"`
	StoreMaxAttempts    int `env:"STORE_MAX_ATTEMPTS"    envDefault:"5"   envDocs:"bounded attempts for a store operation before surfacing the failure"`

	ChannelPairs int `env:"CHANNEL_PAIRS" envDefault:"500" envDocs:"number of voice channel pairs in the pool"`
	ChannelBase  int `env:"CHANNEL_BASE"  envDefault:"1"   envDocs:"first channel number; team A gets base+2i, team B base+2i+1"`

	DefaultRating int `env:"DEFAULT_RATING" envDefault:"1000" envDocs:"rating of a profile that has never played"`

	ReportQuorum                int `env:"REPORT_QUORUM"                  envDefault:"7" envDocs:"reports needed before a match outcome is resolved"`
	SameTeamAccusationThreshold int `env:"SAME_TEAM_ACCUSATION_THRESHOLD" envDefault:"4" envDocs:"same-team accusations that trigger a penalty"`
	TotalAccusationThreshold    int `env:"TOTAL_ACCUSATION_THRESHOLD"     envDefault:"6" envDocs:"total accusations that trigger a penalty"`

	EloKFactor       int `env:"ELO_K_FACTOR"      envDefault:"16" envDocs:"ELO K factor"`
	PlacementMatches int `env:"PLACEMENT_MATCHES" envDefault:"20" envDocs:"winners with fewer lifetime matches get the placement bonus"`
	PlacementBonus   int `env:"PLACEMENT_BONUS"   envDefault:"5"  envDocs:"placement bonus added to a winner's delta"`

	PenaltyTimeoutMinute       int `env:"PENALTY_TIMEOUT_MINUTE"         envDefault:"30" envDocs:"queue timeout per effective penalty point"`
	PenaltyRatingDeduction     int `env:"PENALTY_RATING_DEDUCTION"       envDefault:"4"  envDocs:"rating deducted per effective penalty point"`
	PenaltyBanThreshold        int `env:"PENALTY_BAN_THRESHOLD"          envDefault:"6"  envDocs:"effective penalty from which queue join is refused"`
	ReliefMatchesPerCorrection int `env:"RELIEF_MATCHES_PER_CORRECTION"  envDefault:"50" envDocs:"matches played per penalty correction point"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":8080" envDocs:"listen address of the prometheus endpoint"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"  envDocs:"logrus level"`
	ZipkinURL   string `env:"ZIPKIN_URL"   envDefault:""      envDocs:"zipkin collector url, tracing export is disabled when empty"`
}

// Load reads an optional .env file then parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ReportQuorum <= 0 {
		return errors.New("report quorum must be positive")
	}
	if c.ChannelPairs <= 0 {
		return errors.New("channel pool must hold at least one pair")
	}
	if c.EloKFactor <= 0 {
		return errors.New("elo k factor must be positive")
	}
	if c.StoreMaxAttempts <= 0 {
		return errors.New("store max attempts must be positive")
	}
	if c.ReliefMatchesPerCorrection <= 0 {
		return errors.New("relief matches per correction must be positive")
	}
	return nil
}

func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.CycleIntervalSecond) * time.Second
}

func (c *Config) LockLease() time.Duration {
	return time.Duration(c.LockLeaseSecond) * time.Second
}

func (c *Config) PenaltyTimeout() time.Duration {
	return time.Duration(c.PenaltyTimeoutMinute) * time.Minute
}

// Default returns the configuration with every envDefault applied and no environment lookup.
func Default() *Config {
	return &Config{
		RedisAddr:                   "localhost:6379",
		Namespace:                   "rankedqueue",
		CycleIntervalSecond:         10,
		LockLeaseSecond:             300,
		StoreMaxAttempts:            5,
		ChannelPairs:                500,
		ChannelBase:                 1,
		DefaultRating:               1000,
		ReportQuorum:                7,
		SameTeamAccusationThreshold: 4,
		TotalAccusationThreshold:    6,
		EloKFactor:                  16,
		PlacementMatches:            20,
		PlacementBonus:              5,
		PenaltyTimeoutMinute:        30,
		PenaltyRatingDeduction:      4,
		PenaltyBanThreshold:         6,
		ReliefMatchesPerCorrection:  50,
		MetricsAddr:                 ":8080",
		LogLevel:                    "info",
	}
}
