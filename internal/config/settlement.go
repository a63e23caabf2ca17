package config

import (
	"time"
)

type SettlementConfig struct {
	// DefaultDistanceKm is used for payments on rides that never recorded a
	// distance.
	DefaultDistanceKm float64       `yaml:"default_distance_km"`
	CompletionLockTTL time.Duration `yaml:"completion_lock_ttl"`
	PaymentLockTTL    time.Duration `yaml:"payment_lock_ttl"`
	HistoryLimit      int           `yaml:"history_limit"`
	// Completions stuck for longer than ResumeAfter are finished by a
	// sweep every ResumeInterval.
	ResumeAfter    time.Duration `yaml:"resume_after"`
	ResumeInterval time.Duration `yaml:"resume_interval"`
}

func loadSettlementConfig() *SettlementConfig {
	return &SettlementConfig{
		DefaultDistanceKm: getEnvAsFloat64("SETTLEMENT_DEFAULT_DISTANCE_KM", 10),
		CompletionLockTTL: getEnvAsDuration("SETTLEMENT_COMPLETION_LOCK_TTL", 30*time.Second),
		PaymentLockTTL:    getEnvAsDuration("SETTLEMENT_PAYMENT_LOCK_TTL", 10*time.Second),
		HistoryLimit:      getEnvAsInt("SETTLEMENT_HISTORY_LIMIT", 50),
		ResumeAfter:       getEnvAsDuration("SETTLEMENT_RESUME_AFTER", 2*time.Minute),
		ResumeInterval:    getEnvAsDuration("SETTLEMENT_RESUME_INTERVAL", time.Minute),
	}
}
