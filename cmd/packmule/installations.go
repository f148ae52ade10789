package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/catalog"
	"github.com/packmule-mc/packmule/internal/installer"
)

func createCommand() *cli.Command {
	var spec installer.CreateSpec
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a new installation from a manifest URL or a catalog entry",
		ArgsUsage: "[manifest URL]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "name",
				Usage:       "Display name for the installation",
				Destination: &spec.Name,
			},
			&cli.StringFlag{
				Name:        "from",
				Usage:       "Catalog entry to create from (see `packmule catalog`)",
				Destination: &spec.From,
			},
			&cli.StringFlag{
				Name:        "root",
				Usage:       "Directory to install into. Defaults under the data dir.",
				Destination: &spec.RootPath,
			},
			&cli.StringFlag{
				Name:        "launcher",
				Usage:       "Launcher kind recorded for this installation",
				Destination: &spec.LauncherKind,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			spec.ManifestURL = cmd.Args().First()
			st, err := a.engine.CreateInstallation(ctx, spec)
			if err != nil {
				return err
			}

			fmt.Printf("created installation %s (%s)\n", st.Name, st.ID)
			fmt.Printf("root: %s\n", st.RootPath)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List installations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			infos, err := a.engine.ListInstallations(ctx)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Println("no installations, create one with `packmule create`")
				return nil
			}

			for _, info := range infos {
				marker := " "
				if info.Active {
					marker = "*"
				}
				status := "not installed"
				if info.State.Installed {
					status = "installed"
				}
				if info.State.UpdateAvailable {
					status += ", update available"
				}
				fmt.Printf("%s %-36s  %-24s  %s\n", marker, info.State.ID, info.State.Name, status)
			}
			return nil
		},
	}
}

func useCommand() *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Set the active installation",
		ArgsUsage: "<installation id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one installation id")
			}
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			id := cmd.Args().First()
			if err := a.engine.SetActive(ctx, id); err != nil {
				return err
			}
			fmt.Printf("active installation is now %s\n", id)
			return nil
		},
	}
}

func installCommand() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Download and set up the installation's pack contents",
		Flags: []cli.Flag{installationFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			id, err := a.targetInstallation(cmd)
			if err != nil {
				return err
			}

			var result *installer.SyncResult
			err = a.withProgress(ctx, func(ctx context.Context) error {
				var syncErr error
				result, syncErr = a.engine.Install(ctx, id)
				return syncErr
			})
			if err != nil {
				return err
			}

			printSyncResult(result)
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check whether a newer pack version is available",
		Flags: []cli.Flag{installationFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			id, err := a.targetInstallation(cmd)
			if err != nil {
				return err
			}

			check, err := a.engine.CheckUpdate(ctx, id)
			if err != nil {
				return err
			}

			if !check.UpdateAvailable {
				fmt.Printf("up to date (%s)\n", check.RemoteVersion)
				return nil
			}
			fmt.Printf("update available: %s -> %s\n", check.InstalledVersion, check.RemoteVersion)
			fmt.Println("run `packmule update` to apply it")
			return nil
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Update the installation to the latest pack version",
		Flags: []cli.Flag{installationFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			id, err := a.targetInstallation(cmd)
			if err != nil {
				return err
			}

			var result *installer.SyncResult
			err = a.withProgress(ctx, func(ctx context.Context) error {
				var syncErr error
				result, syncErr = a.engine.Update(ctx, id)
				return syncErr
			})
			if err != nil {
				return err
			}

			printSyncResult(result)
			if result.BackupID != "" {
				fmt.Printf("pre-update backup: %s\n", result.BackupID)
			}
			return nil
		},
	}
}

func launchCommand() *cli.Command {
	return &cli.Command{
		Name:  "launch",
		Usage: "Validate artifacts, acquire a session, and hand off to the launcher",
		Flags: []cli.Flag{installationFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			id, err := a.targetInstallation(cmd)
			if err != nil {
				return err
			}

			if err := a.engine.Launch(ctx, id); err != nil {
				return err
			}
			fmt.Println("launched")
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Migrate an installation's state record to a newer schema version",
		ArgsUsage: "[target version]",
		Flags:     []cli.Flag{installationFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			id, err := a.targetInstallation(cmd)
			if err != nil {
				return err
			}

			target := cmd.Args().First()
			if err := a.engine.MigrateInstallation(ctx, id, target); err != nil {
				return err
			}
			fmt.Println("state schema is up to date")
			return nil
		},
	}
}

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "List the known modpack sources installations can be created from",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			entries, err := catalog.Entries(a.cfg.RegistryBaseURL())
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Printf("%-28s  %-32s  %s\n", entry.Name, entry.Title, entry.Description)
			}
			return nil
		},
	}
}

func printSyncResult(result *installer.SyncResult) {
	fmt.Printf("synced to version %s, %d components downloaded\n", result.Version, result.Downloaded)
	for _, kind := range manifest.Kinds() {
		summary, ok := result.Summaries[kind]
		if !ok || summary.Kept+summary.Replaced+summary.Added+summary.Removed+summary.Pinned == 0 {
			continue
		}
		fmt.Printf("  %-14s kept %d, replaced %d, added %d, removed %d, pinned %d\n",
			kind, summary.Kept, summary.Replaced, summary.Added, summary.Removed, summary.Pinned)
	}
}
