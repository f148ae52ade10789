package launcher

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/packmule-mc/packmule/internal/faults"
)

// storedSession is the on-disk shape of a signed-in account session. The
// sign-in flow itself lives outside this tool; whatever performs it leaves
// the session file behind for us to read.
type storedSession struct {
	AccountID    string `json:"account_id"`
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
}

// FileAuth is an AuthProvider over a session file. Refresh re-reads the
// file, which picks up tokens renewed by the external sign-in flow.
type FileAuth struct {
	path string
}

func NewFileAuth(path string) *FileAuth {
	return &FileAuth{path: path}
}

func (f *FileAuth) AcquireToken(_ context.Context, _ string) (*Session, error) {
	return f.read()
}

func (f *FileAuth) Refresh(_ context.Context, stale string) (*Session, error) {
	session, err := f.read()
	if err != nil {
		return nil, err
	}
	if session.SessionToken == stale {
		return nil, faults.Newf(faults.Config, "refreshing session", "session at %s is expired, sign in again", f.path)
	}
	return session, nil
}

func (f *FileAuth) read() (*Session, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, faults.Newf(faults.Config, "reading session", "no session at %s, sign in first", f.path)
	}
	if err != nil {
		return nil, faults.New(faults.IO, "reading session", err)
	}

	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, faults.New(faults.Parse, "reading session", err)
	}
	if stored.AccountID == "" || stored.SessionToken == "" {
		return nil, faults.Newf(faults.Parse, "reading session", "session at %s is missing an account or token", f.path)
	}

	expiresAt, err := time.Parse(time.RFC3339, stored.ExpiresAt)
	if err != nil {
		return nil, faults.New(faults.Parse, "reading session", errors.Wrap(err, "bad expires_at"))
	}

	return &Session{
		AccountID:    stored.AccountID,
		SessionToken: stored.SessionToken,
		ExpiresAt:    expiresAt,
	}, nil
}
