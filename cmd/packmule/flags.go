package main

import (
	"fmt"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

var (
	fDataDir     = "data-dir"
	fLogLevel    = "log-level"
	fRegistryURL = "registry-url"
)
var profiles []string

func getGlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "profile",
			Usage:       "YAML profile files that specify flags. Can be stacked from highest precedence to lowest.",
			TakesFile:   true,
			Destination: &profiles,
		},
		&cli.StringFlag{
			Name:    fDataDir,
			Usage:   "Directory holding installation state, backups, and the index",
			Sources: getSources(fDataDir),
		},
		&cli.StringFlag{
			Name:    fLogLevel,
			Usage:   "Log level (trace, debug, info, warn, error)",
			Sources: getSources(fLogLevel),
		},
		&cli.StringFlag{
			Name:    fRegistryURL,
			Usage:   "Base URL of the modpack registry",
			Sources: getSources(fRegistryURL),
		},
	}
}

// configOverrides maps explicitly set global flags onto config keys, which
// take precedence over env and config-file values.
func configOverrides(cmd *cli.Command) map[string]string {
	overrides := map[string]string{}
	if cmd.String(fDataDir) != "" {
		overrides["data_dir"] = cmd.String(fDataDir)
	}
	if cmd.String(fLogLevel) != "" {
		overrides["log_level"] = cmd.String(fLogLevel)
	}
	if cmd.String(fRegistryURL) != "" {
		overrides["registry_url"] = cmd.String(fRegistryURL)
	}
	return overrides
}

func getSources(name string) cli.ValueSourceChain {
	envName := strings.ReplaceAll(strings.ToUpper(name), "-", "_")
	return cli.NewValueSourceChain(
		cli.EnvVar("PACKMULE_"+envName),
		&profilesSource{name: name},
	)
}

type profilesSource struct {
	name string
}

// GoString implements cli.ValueSource.
func (ps *profilesSource) GoString() string {
	return fmt.Sprintf("&profilesSource{name:%[1]q}", ps.name)
}

func (ps *profilesSource) String() string {
	return strings.Join(profiles, ",")
}

func (ps *profilesSource) Lookup() (string, bool) {
	sources := cli.ValueSourceChain{
		Chain: []cli.ValueSource{},
	}
	for i := range profiles {
		sources.Chain = append(
			sources.Chain,
			yaml.YAML(ps.name, altsrc.NewStringPtrSourcer(&profiles[i])),
		)
	}
	return sources.Lookup()
}
