package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/internal/faults"
)

// CommandLauncher hands a prepared session off to an external launcher
// executable. The spec travels in the child's environment; the process is
// started and left to run on its own.
type CommandLauncher struct {
	path string
	args []string
}

func NewCommandLauncher(path string, args ...string) *CommandLauncher {
	return &CommandLauncher{path: path, args: args}
}

// Launch starts the launcher without tying it to ctx; the game outlives
// whatever command or request triggered it.
func (c *CommandLauncher) Launch(_ context.Context, spec LaunchSpec) error {
	cmd := exec.Command(c.path, c.args...)
	cmd.Dir = spec.GameDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("PACKMULE_GAME_DIR=%s", spec.GameDir),
		fmt.Sprintf("PACKMULE_VERSION_ID=%s", spec.VersionID),
		fmt.Sprintf("PACKMULE_ACCOUNT_ID=%s", spec.AccountID),
		fmt.Sprintf("PACKMULE_SESSION_TOKEN=%s", spec.SessionToken),
	)

	if err := cmd.Start(); err != nil {
		return faults.New(faults.Config, fmt.Sprintf("starting launcher %s", c.path), err)
	}
	log.Info().Str("launcher", c.path).Int("pid", cmd.Process.Pid).Msg("handed off to launcher")

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Warn().Err(err).Str("launcher", c.path).Msg("launcher exited with error")
		}
	}()
	return nil
}
