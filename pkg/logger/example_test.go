package logger_test

import (
	"errors"

	"github.com/wonny/sentiforecast/pkg/config"
	"github.com/wonny/sentiforecast/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Pipeline started")
	log.Infof("Loaded %d price rows", 252)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(&config.Config{Env: "production", LogLevel: "info", LogFormat: "json"})

	log.WithFields(map[string]interface{}{
		"ticker":     "TSLA",
		"seq_length": 20,
		"horizon":    5,
	}).Info("Windows built")

	log.WithError(errors.New("insufficient windows")).
		WithField("stage", "S5").
		Error("Pipeline failed")
}
