package main

import (
	"context"
	"log/slog"
	"os"

	"backoffice/config"
	"backoffice/internal/delivery"
	"backoffice/internal/delivery/http"
	"backoffice/internal/delivery/http/middleware"
	"backoffice/internal/delivery/http/router/handler"
	"backoffice/internal/domain/service"
	logs "backoffice/internal/infra/log"
	"backoffice/internal/infra/persistence/postgres"
	"backoffice/internal/infra/pubsub"
	"backoffice/internal/infra/push"
	"backoffice/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewNotificationRepository,
			postgres.NewDeviceRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			newTokenSource,
			newPushSender,
			pubsub.NewEventPublisher,
		),
	)
}

// newTokenSource builds the service-account credential exchanger. Push
// credentials are optional at startup; without them every dispatch fails
// with a credential error instead of blocking the management API.
func newTokenSource(cfg *config.Config) (service.TokenSource, error) {
	if cfg.Push == nil {
		return push.NewUnconfiguredTokenSource(), nil
	}

	return push.NewTokenSource(cfg.Push)
}

// newPushSender builds the per-message send client.
func newPushSender(cfg *config.Config) (service.PushSender, error) {
	if cfg.Push == nil {
		return push.NewUnconfiguredSender(), nil
	}

	return push.NewHTTPSender(cfg.Push)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewDispatchService,
			impl.NewSweepService,
			impl.NewNotificationService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewRequestIDMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewNotificationHandler,
			handler.NewPushHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
