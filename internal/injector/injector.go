//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/voidforge/voidforge/internal/core/observability/log"
	"github.com/voidforge/voidforge/internal/core/world"
)

func ProvideLogger() *log.Logger {
	wire.Build(log.Provide)
	return log.New(log.LevelDebug)
}

func ProvideWorld(opts world.Options) (*world.World, error) {
	wire.Build(
		wire.Bind(new(log.Log), new(*log.Logger)),
		log.Provide,
		world.New,
	)
	return nil, nil
}
