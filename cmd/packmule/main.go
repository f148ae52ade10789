package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/packmule-mc/packmule/internal/backup"
	"github.com/packmule-mc/packmule/internal/config"
	"github.com/packmule-mc/packmule/internal/fetch"
	"github.com/packmule-mc/packmule/internal/installer"
	"github.com/packmule-mc/packmule/internal/launcher"
	"github.com/packmule-mc/packmule/internal/logging"
	"github.com/packmule-mc/packmule/internal/progress"
	"github.com/packmule-mc/packmule/internal/pubsub"
)

func main() {
	logging.NewLogger()

	// A .env file beside the binary seeds PACKMULE_* variables; it is
	// optional outside development.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	root := &cli.Command{
		Name:  "packmule",
		Usage: "Install, update, and launch modpack installations",
		Flags: getGlobalFlags(),
		Commands: []*cli.Command{
			catalogCommand(),
			createCommand(),
			listCommand(),
			useCommand(),
			installCommand(),
			checkCommand(),
			updateCommand(),
			featuresCommand(),
			presetCommand(),
			pinCommand(),
			unpinCommand(),
			backupCommand(),
			rollbackCommand(),
			launchCommand(),
			migrateCommand(),
			serveCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("error running command")
	}
}

// app bundles everything a subcommand needs: the loaded config, the wired
// engine, and the progress publisher feeding it.
type app struct {
	cfg      *config.Config
	engine   *installer.Engine
	progress *pubsub.BufferedPublisher[progress.Event]
}

func setup(cmd *cli.Command) (*app, error) {
	cfg, err := config.NewConfigWithOverrides(configOverrides(cmd))
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(cfg.LogLevel())

	client, err := fetch.NewClient(fetch.Options{
		Timeout:  cfg.HTTPTimeout(),
		Attempts: cfg.DownloadAttempts(),
		Backoff:  cfg.RetryBackoff(),
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.BackupsDir(), 0755); err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(filepath.Join(cfg.BackupsDir(), "index.db")), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	backups, err := backup.NewManager(db, cfg.BackupsDir(), cfg.MaxBackupsPerInstallation())
	if err != nil {
		return nil, err
	}

	var game launcher.Launcher
	if cfg.LauncherCommand() != "" {
		game = launcher.NewCommandLauncher(cfg.LauncherCommand())
	}

	publisher := pubsub.NewBufferedPublisher[progress.Event](64)
	engine, err := installer.New(cfg, client, backups, launcher.NewFileAuth(cfg.SessionPath()), game, publisher)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		engine:   engine,
		progress: publisher,
	}, nil
}

// withProgress renders progress milestones while fn runs.
func (a *app) withProgress(ctx context.Context, fn func(context.Context) error) error {
	listenCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus := pubsub.NewBus(
		[]pubsub.Publisher[progress.Event]{a.progress},
		[]pubsub.Subscriber[progress.Event]{pubsub.NewFuncSubscriber("cli-progress", milestoneRenderer())},
	)
	go func() {
		_ = bus.Listen(listenCtx)
	}()

	return fn(ctx)
}

// milestoneRenderer logs one line per crossed ten-percent mark rather than
// one per completed component.
func milestoneRenderer() func(progress.Event) error {
	last := -1
	return func(e progress.Event) error {
		decile := int(e.Percent) / 10
		if decile <= last && e.Done != e.Total {
			return nil
		}
		last = decile
		log.Info().Msgf("%3.0f%% (%d/%d) %s", e.Percent, e.Done, e.Total, e.Detail)
		return nil
	}
}

// targetInstallation picks the installation a command operates on: the
// --installation flag when given, otherwise the active one.
func (a *app) targetInstallation(cmd *cli.Command) (string, error) {
	if id := cmd.String(fInstallation); id != "" {
		return id, nil
	}
	id, err := a.engine.ActiveInstallation()
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("no active installation, create one or pick one with `packmule use`")
	}
	return id, nil
}

var fInstallation = "installation"

func installationFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    fInstallation,
		Aliases: []string{"i"},
		Usage:   "Installation id to operate on. Defaults to the active installation.",
	}
}
