//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/pong/internal/config"
	"github.com/zeusync/pong/internal/core/events/bus"
	"github.com/zeusync/pong/internal/core/observability/log"
	"github.com/zeusync/pong/internal/core/observability/metrics"
	"github.com/zeusync/pong/internal/server"
)

var serverSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideRegistry,
	bus.New,
	metrics.NewInMemory,
	wire.Bind(new(metrics.Collector), new(*metrics.InMemory)),
	server.NewHub,
	server.NewWebSocketHandler,
	server.NewQUICListener,
	server.NewServer,
)

func InitializeServer(cfg config.Config) (*server.Server, func(), error) {
	wire.Build(serverSet)
	return nil, nil, nil
}
