package injector

import (
	"github.com/zeusync/pong/internal/config"
	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/core/registry"
)

// ProvideLogger builds the process logger from the log section. The cleanup
// flushes buffered entries.
func ProvideLogger(cfg config.Config) (*log.Logger, func()) {
	logger := log.NewWithOptions(log.Options{
		Level:    log.ParseLevel(cfg.Log.Level),
		Encoding: cfg.Log.Encoding,
	})
	return logger, func() { _ = logger.Sync() }
}

func ProvideRegistry(cfg config.Config) *registry.Registry {
	return registry.New(cfg.Game.RegistryShards)
}
