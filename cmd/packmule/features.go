package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/packmule-mc/packmule/internal/installer"
)

func featuresCommand() *cli.Command {
	return &cli.Command{
		Name:  "features",
		Usage: "Inspect and toggle optional pack features",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the enabled feature set",
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

					info, err := a.engine.GetInstallation(ctx, id)
					if err != nil {
						return err
					}
					for _, feature := range info.State.EnabledFeatures {
						fmt.Println(feature)
					}
					return nil
				},
			},
			toggleCommand("enable", true),
			toggleCommand("disable", false),
		},
	}
}

func toggleCommand(name string, enable bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     fmt.Sprintf("%s an optional feature and sync its files", name),
		ArgsUsage: "<feature id>",
		Flags:     []cli.Flag{installationFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one feature id")
			}
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			id, err := a.targetInstallation(cmd)
			if err != nil {
				return err
			}

			var change *installer.FeatureChange
			err = a.withProgress(ctx, func(ctx context.Context) error {
				var toggleErr error
				change, toggleErr = a.engine.SetFeature(ctx, id, cmd.Args().First(), enable)
				return toggleErr
			})
			if err != nil {
				return err
			}

			printFeatureChange(change)
			return nil
		},
	}
}

func presetCommand() *cli.Command {
	return &cli.Command{
		Name:  "preset",
		Usage: "Apply a pack-defined feature preset",
		Commands: []*cli.Command{
			{
				Name:      "apply",
				Usage:     "Replace the manual feature selection with a preset",
				ArgsUsage: "<preset id>",
				Flags:     []cli.Flag{installationFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one preset id")
					}
					a, err := setup(cmd)
					if err != nil {
						return err
					}
					id, err := a.targetInstallation(cmd)
					if err != nil {
						return err
					}

					var change *installer.FeatureChange
					err = a.withProgress(ctx, func(ctx context.Context) error {
						var applyErr error
						change, applyErr = a.engine.ApplyPreset(ctx, id, cmd.Args().First())
						return applyErr
					})
					if err != nil {
						return err
					}

					printFeatureChange(change)
					return nil
				},
			},
		},
	}
}

func pinCommand() *cli.Command {
	return setPinCommand("pin", true, "Pin a component so updates leave it alone")
}

func unpinCommand() *cli.Command {
	return setPinCommand("unpin", false, "Unpin a component so updates apply to it again")
}

func setPinCommand(name string, pinned bool, usage string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<component id>",
		Flags:     []cli.Flag{installationFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one component id")
			}
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			id, err := a.targetInstallation(cmd)
			if err != nil {
				return err
			}

			componentID := cmd.Args().First()
			if err := a.engine.PinComponent(ctx, id, componentID, pinned); err != nil {
				return err
			}
			verb := "pinned"
			if !pinned {
				verb = "unpinned"
			}
			fmt.Printf("%s %s\n", verb, componentID)
			return nil
		},
	}
}

func printFeatureChange(change *installer.FeatureChange) {
	for _, feature := range change.Enabled {
		fmt.Printf("enabled %s\n", feature)
	}
	for _, feature := range change.Disabled {
		fmt.Printf("disabled %s\n", feature)
	}
	fmt.Printf("%d components downloaded\n", change.Downloaded)
}
