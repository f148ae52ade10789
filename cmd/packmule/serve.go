package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/packmule-mc/packmule/internal/api"
	"github.com/packmule-mc/packmule/internal/catalog"
	"github.com/packmule-mc/packmule/internal/progress"
	"github.com/packmule-mc/packmule/internal/pubsub"
	"github.com/packmule-mc/packmule/internal/server"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local HTTP API until interrupted",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			// ctx.Done() returns when SIGINT or SIGTERM arrives.
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(ctx)

			bus := pubsub.NewBus(
				[]pubsub.Publisher[progress.Event]{a.progress},
				[]pubsub.Subscriber[progress.Event]{pubsub.NewFuncSubscriber("serve-progress", milestoneRenderer())},
			)
			eg.Go(func() error {
				return bus.Listen(egCtx)
			})

			routes := []api.Route{
				api.NewBasicRoute(http.MethodGet, "/packmule/v1/health", func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					fmt.Fprintln(w, `{"status":"ok"}`)
				}),
				catalog.NewEntriesRoute(a.cfg.RegistryBaseURL()),
				api.NewListInstallationsRoute(a.engine),
				api.NewCreateInstallationRoute(a.engine),
				api.NewGetInstallationRoute(a.engine),
				api.NewDeleteInstallationRoute(a.engine),
				api.NewActivateRoute(a.engine),
				api.NewInstallRoute(a.engine),
				api.NewUpdateCheckRoute(a.engine),
				api.NewUpdateRoute(a.engine),
				api.NewSetFeatureRoute(a.engine),
				api.NewApplyPresetRoute(a.engine),
				api.NewPinComponentRoute(a.engine),
				api.NewMigrateRoute(a.engine),
				api.NewLaunchRoute(a.engine),
				api.NewProgressRoute(a.engine),
				api.NewCreateBackupRoute(a.engine),
				api.NewListBackupsRoute(a.engine),
				api.NewDeleteBackupRoute(a.engine),
				api.NewPruneBackupsRoute(a.engine),
				api.NewRollbackRoute(a.engine),
			}

			logger := log.Logger
			srv := &http.Server{
				Addr:    a.cfg.APIListenAddr(),
				Handler: api.NewRouter(routes, &logger),
			}
			eg.Go(server.ServeFn(srv, "api"))

			// Gracefully shut the server down when the context is cancelled.
			eg.Go(func() error {
				<-egCtx.Done()
				log.Info().Msg("shutting down")
				return srv.Shutdown(context.Background())
			})

			if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
