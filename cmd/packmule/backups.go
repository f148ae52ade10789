package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/packmule-mc/packmule/internal/backup"
	"github.com/packmule-mc/packmule/internal/rollback"
)

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Manage installation backups",
		Commands: []*cli.Command{
			backupCreateCommand(),
			backupListCommand(),
			backupDeleteCommand(),
			backupPruneCommand(),
		},
	}
}

func backupCreateCommand() *cli.Command {
	var kind string
	var description string
	return &cli.Command{
		Name:  "create",
		Usage: "Take a backup of the installation's important files",
		Flags: []cli.Flag{
			installationFlag(),
			&cli.StringFlag{
				Name:        "kind",
				Usage:       "Backup kind (manual, pre_update, pre_install, scheduled)",
				Destination: &kind,
			},
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "Free-form note stored with the backup",
				Destination: &description,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			id, err := a.targetInstallation(cmd)
			if err != nil {
				return err
			}

			var parsedKind backup.Kind
			if kind != "" {
				parsedKind, err = backup.KindFromString(kind)
				if err != nil {
					return err
				}
			}

			record, err := a.engine.CreateBackup(ctx, id, parsedKind, description)
			if err != nil {
				return err
			}
			fmt.Printf("backup %s created (%d files, %s)\n", record.ID, record.FileCount, byteCount(record.SizeBytes))
			return nil
		},
	}
}

func backupListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the installation's backups, newest first",
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

			records, err := a.engine.ListBackups(ctx, id)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no backups")
				return nil
			}

			for _, record := range records {
				line := fmt.Sprintf("%-36s  %-11s  %s  %s",
					record.ID, record.Kind, record.CreatedAt.Local().Format(time.DateTime), byteCount(record.SizeBytes))
				if record.Description != "" {
					line += "  " + record.Description
				}
				fmt.Println(strings.TrimRight(line, " "))
			}
			return nil
		},
	}
}

func backupDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a backup and its archive",
		ArgsUsage: "<backup id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one backup id")
			}
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			id := cmd.Args().First()
			if err := a.engine.DeleteBackup(ctx, id); err != nil {
				return err
			}
			fmt.Printf("deleted backup %s\n", id)
			return nil
		},
	}
}

func backupPruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Apply the retention policy and drop backups beyond the cap",
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

			removed, err := a.engine.PruneBackups(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%d backups removed\n", removed)
			return nil
		},
	}
}

func rollbackCommand() *cli.Command {
	var backupID string
	var lastWorking bool
	return &cli.Command{
		Name:  "rollback",
		Usage: "Restore the installation from a backup",
		Flags: []cli.Flag{
			installationFlag(),
			&cli.StringFlag{
				Name:        "id",
				Usage:       "Backup id to restore",
				Destination: &backupID,
			},
			&cli.BoolFlag{
				Name:        "last-working",
				Usage:       "Restore the newest manual or pre-update backup",
				Destination: &lastWorking,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if backupID == "" && !lastWorking {
				return fmt.Errorf("pass --id or --last-working")
			}
			if backupID != "" && lastWorking {
				return fmt.Errorf("--id and --last-working are mutually exclusive")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			id, err := a.targetInstallation(cmd)
			if err != nil {
				return err
			}

			var result *rollback.Result
			if lastWorking {
				result, err = a.engine.RollbackToLastWorking(ctx, id)
			} else {
				result, err = a.engine.Rollback(ctx, id, backupID)
			}
			if err != nil {
				return err
			}

			fmt.Printf("restored %d files from backup %s\n", result.RestoredFiles, result.BackupID)
			fmt.Printf("pre-rollback state saved as backup %s\n", result.SafetyBackupID)
			return nil
		},
	}
}

// byteCount renders a size in a human unit, e.g. 2.4 MB.
func byteCount(b int64) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "kMGTPE"[exp])
}
