// Package logging builds the service's zap logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a sugared logger. dev selects the human-readable development
// config. When stdout carries protocol traffic (the stdio transport) all
// output goes to stderr.
func New(dev, stdoutReserved bool) (*zap.SugaredLogger, error) {
	var z zap.Config
	if dev {
		z = zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stdout"}
	} else {
		z = zap.NewProductionConfig()
	}
	if stdoutReserved {
		z.OutputPaths = []string{"stderr"}
	}

	logger, err := z.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger.Sugar(), nil
}
