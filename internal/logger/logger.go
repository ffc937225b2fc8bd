// Package logger owns the process-wide zap logger.
package logger

import "go.uber.org/zap"

// New builds the application logger: human-readable in dev, JSON in
// every other environment.  The returned logger is also installed as
// the zap global so packages without an injected logger can use
// zap.L().
func New(env string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if env == "dev" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l)
	return l, nil
}
