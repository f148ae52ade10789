// Package launcher is the seam between the engine and the game launcher:
// profile records in launcher_profiles.json, session-token expiry
// introspection, pre-launch artifact validation, and the collaborator
// interfaces the engine calls at launch time.
package launcher

import (
	"context"
	"time"
)

// Session is what the auth provider hands back for a launch.
type Session struct {
	AccountID    string
	SessionToken string
	ExpiresAt    time.Time
}

// AuthProvider supplies accounts and session tokens. The engine consumes it
// only at game-launch time.
type AuthProvider interface {
	AcquireToken(ctx context.Context, installationID string) (*Session, error)
	Refresh(ctx context.Context, token string) (*Session, error)
}

// LaunchSpec is everything a launcher needs to spawn the game for a
// prepared installation.
type LaunchSpec struct {
	GameDir      string
	VersionID    string
	AccountID    string
	SessionToken string
}

// Launcher spawns the game process. Implementations own executable
// discovery and process supervision; the engine only guarantees the
// installation's artifacts are complete before handing over.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec) error
}
