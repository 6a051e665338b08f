package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries server settings plus the simulator tuning knobs. Everything
// comes from the environment; unset knobs fall back to the rates the payment
// network simulation was calibrated with.
type Config struct {
	DBSource string
	Port     string
	Env      string

	// Validator.
	TxnLimit        int64   // per-transaction ceiling, currency units
	UserCancelRate  float64 // pre-debit noise probabilities
	NetworkRejRate  float64
	DuplicateRate   float64

	// Failure injector.
	FailureRate        float64 // baseline post-debit failure probability
	HighValueThreshold int64   // amounts above this draw from the settlement pool
	NightStartHour     int     // inclusive
	NightEndHour       int     // exclusive

	// Complaint pipeline.
	ComplaintWorkers int
	ComplaintQueue   int

	DBTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		DBSource: os.Getenv("DB_SOURCE"), // empty selects the in-memory ledger
		Port:     getString("SERVER_PORT", "8080"),
		Env:      getString("ENVIRONMENT", "development"),

		TxnLimit:       25000,
		UserCancelRate: 0.001,
		NetworkRejRate: 0.02,
		DuplicateRate:  0.01,

		FailureRate:        0.20,
		HighValueThreshold: 50000,
		NightStartHour:     23,
		NightEndHour:       7,

		ComplaintWorkers: 4,
		ComplaintQueue:   64,

		DBTimeout: 5 * time.Second,
	}

	var err error
	if cfg.TxnLimit, err = getInt64("TXN_LIMIT", cfg.TxnLimit); err != nil {
		return nil, err
	}
	if cfg.HighValueThreshold, err = getInt64("HIGH_VALUE_THRESHOLD", cfg.HighValueThreshold); err != nil {
		return nil, err
	}
	if cfg.FailureRate, err = getFloat("FAILURE_RATE", cfg.FailureRate); err != nil {
		return nil, err
	}
	if cfg.UserCancelRate, err = getFloat("USER_CANCEL_RATE", cfg.UserCancelRate); err != nil {
		return nil, err
	}
	if cfg.NetworkRejRate, err = getFloat("NETWORK_REJECT_RATE", cfg.NetworkRejRate); err != nil {
		return nil, err
	}
	if cfg.DuplicateRate, err = getFloat("DUPLICATE_RATE", cfg.DuplicateRate); err != nil {
		return nil, err
	}
	if cfg.NightStartHour, err = getInt("NIGHT_START_HOUR", cfg.NightStartHour); err != nil {
		return nil, err
	}
	if cfg.NightEndHour, err = getInt("NIGHT_END_HOUR", cfg.NightEndHour); err != nil {
		return nil, err
	}
	if cfg.ComplaintWorkers, err = getInt("COMPLAINT_WORKERS", cfg.ComplaintWorkers); err != nil {
		return nil, err
	}
	if cfg.ComplaintQueue, err = getInt("COMPLAINT_QUEUE", cfg.ComplaintQueue); err != nil {
		return nil, err
	}

	if cfg.FailureRate < 0 || cfg.FailureRate > 1 {
		return nil, fmt.Errorf("FAILURE_RATE must be within [0,1], got %v", cfg.FailureRate)
	}
	return cfg, nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
