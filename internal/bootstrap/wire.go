//go:build wireinject

package bootstrap

import (
	"context"

	"fxportal/internal/infrastructure/events"

	"github.com/google/wire"
)

var baseSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
)

var portalSet = wire.NewSet(
	baseSet,
	ProvideSlots,
	ProvideFXService,
	ProvidePageCache,
	ProvideTradeHistory,
	ProvideEventRelay,
	ProvidePublisher,
	ProvideSessionManager,
	ProvideServer,
	ProvideHandler,
	ProvideSweeper,
	ProvideApp,
)

// InitPortal builds the portal API process and its cleanup.
func InitPortal(ctx context.Context) (*App, func(), error) {
	wire.Build(portalSet)
	return nil, nil, nil
}

// InitAuditConsumer builds the booking event audit worker.
func InitAuditConsumer() (*events.Consumer, error) {
	wire.Build(
		baseSet,
		ProvideAuditConsumer,
	)
	return nil, nil
}
