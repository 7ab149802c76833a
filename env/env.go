//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

// Package env implements the global environment for the duet
// system.
package env

import (
	"crypto/rand"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config defines the global system configuration. It configures
// system operation for all modules. Config must not be modified
// after being passed to any module.  It is safe for concurrent use by
// multiple modules as they do not modify it.
type Config struct {
	// Rand is the entropy source. If nil, crypto/rand is used.
	Rand io.Reader

	// Logger is the logger. If nil, the logrus standard logger is
	// used.
	Logger logrus.FieldLogger

	// Verbose enables progress logging and timing reports.
	Verbose bool
}

// GetRandom returns the source of entropy for secret sharing, OT, and
// other cryptography operations.
func (config *Config) GetRandom() io.Reader {
	if config != nil && config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

// GetLogger returns the logger.
func (config *Config) GetLogger() logrus.FieldLogger {
	if config != nil && config.Logger != nil {
		return config.Logger
	}
	return logrus.StandardLogger()
}

// IsVerbose tests if the verbose mode is enabled.
func (config *Config) IsVerbose() bool {
	return config != nil && config.Verbose
}

// NewLogger creates a new logger. The log level is read from the LOG
// environment variable; unknown values leave the default Info level.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	if x, ok := os.LookupEnv("LOG"); ok {
		if level, err := logrus.ParseLevel(strings.ToLower(x)); err == nil {
			log.SetLevel(level)
		}
	}
	return log
}
