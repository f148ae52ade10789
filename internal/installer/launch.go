package installer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/packmule-mc/packmule/core/state/instance"
	"github.com/packmule-mc/packmule/internal/faults"
	"github.com/packmule-mc/packmule/internal/launcher"
	"github.com/packmule-mc/packmule/internal/state"
)

// refreshMargin is how close to expiry a session token may be before a
// launch refreshes it.
const refreshMargin = 5 * time.Minute

// Launch validates the installation's artifacts, acquires a session, and
// hands the game off to the configured launcher. The session's account and
// the launch time are recorded on the installation state.
func (e *Engine) Launch(ctx context.Context, installationID string) error {
	unlock := e.locks.Acquire(installationID)
	defer unlock()

	db, st, err := e.openCurrent(installationID)
	if err != nil {
		return err
	}
	if !st.Installed {
		return faults.Newf(faults.Config, "launching installation", "installation %s has never been installed", installationID)
	}

	local, err := e.requireLocalManifest(installationID)
	if err != nil {
		return err
	}
	if err := launcher.ValidateArtifacts(st.RootPath, local); err != nil {
		return err
	}

	if e.auth == nil {
		return faults.Newf(faults.Config, "launching installation", "no account provider configured")
	}
	if e.game == nil {
		return faults.Newf(faults.Config, "launching installation", "no launcher configured")
	}

	session, err := e.auth.AcquireToken(ctx, installationID)
	if err != nil {
		return errors.Wrap(err, "acquiring session")
	}
	if launcher.NeedsRefresh(session.SessionToken, refreshMargin) {
		session, err = e.auth.Refresh(ctx, session.SessionToken)
		if err != nil {
			return errors.Wrap(err, "refreshing session")
		}
	}

	if err := e.game.Launch(ctx, launcher.LaunchSpec{
		GameDir:      st.RootPath,
		VersionID:    local.Loader.VersionID(),
		AccountID:    session.AccountID,
		SessionToken: session.SessionToken,
	}); err != nil {
		return errors.Wrap(err, "launching game")
	}

	if _, err := db.ProposeTransitions([]state.Transition{
		instance.CreateSetAccountTransition(session.AccountID),
		instance.CreateTouchTransition(time.Now().UTC().Format(time.RFC3339)),
	}); err != nil {
		return errors.Wrap(err, "recording launch")
	}

	log.Info().
		Str("installation", installationID).
		Str("account", session.AccountID).
		Str("version", local.Loader.VersionID()).
		Msg("launched installation")
	return nil
}
