// Package logging constrói o logger dos binários: logr sobre zap.
package logging

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New cria um logger JSON em stderr. verbosity 0 registra Info e acima;
// cada nível extra habilita logger.V(n).
func New(verbosity int) (logr.Logger, func()) {
	if verbosity < 0 {
		verbosity = 0
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	cfg.Sampling = nil

	zl, err := cfg.Build(zap.AddCaller())
	if err != nil {
		zl = zap.NewExample()
	}
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }
}

// Fatal registra o erro e encerra o processo.
//
// Uso restrito a main.
func Fatal(logger logr.Logger, err error, msg string, keysAndValues ...any) {
	logger.Error(err, msg, keysAndValues...)
	os.Exit(1)
}
