package launcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packmule-mc/packmule/internal/faults"
)

func TestCommandLauncherHandsOffSpec(t *testing.T) {
	gameDir := t.TempDir()
	outPath := filepath.Join(gameDir, "seen.txt")

	launcher := NewCommandLauncher("sh", "-c", `echo "$PACKMULE_VERSION_ID $PACKMULE_ACCOUNT_ID" > seen.txt`)
	err := launcher.Launch(context.Background(), LaunchSpec{
		GameDir:      gameDir,
		VersionID:    "fabric-loader-0.16.9-1.21.4",
		AccountID:    "acct-1",
		SessionToken: "token-1",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := os.Stat(outPath)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "fabric-loader-0.16.9-1.21.4 acct-1\n", string(raw))
}

func TestCommandLauncherMissingBinary(t *testing.T) {
	launcher := NewCommandLauncher(filepath.Join(t.TempDir(), "no-such-launcher"))
	err := launcher.Launch(context.Background(), LaunchSpec{GameDir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Config))
}
