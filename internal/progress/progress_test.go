package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/pubsub"
)

func TestWeightTable(t *testing.T) {
	assert.Equal(t, 1, WeightFor(manifest.KindMod))
	assert.Equal(t, 1, WeightFor(manifest.KindShaderpack))
	assert.Equal(t, 1, WeightFor(manifest.KindResourcepack))
	assert.Equal(t, 5, WeightFor(manifest.KindInclude))
	assert.Equal(t, 15, WeightFor(manifest.KindRemoteInclude))
}

func TestBatchTotal(t *testing.T) {
	// 10 items + 2 includes + 1 archive + 4 bookkeeping steps.
	assert.Equal(t, 10+10+15+8, BatchTotal(10, 2, 1, 4))
}

func TestPercentReachesExactlyHundred(t *testing.T) {
	tr := NewTracker("inst", BatchTotal(3, 0, 0, 1), nil)

	for i := 0; i < 3; i++ {
		tr.Advance(WeightItem, "item")
		assert.False(t, tr.Complete())
	}
	tr.Advance(WeightBookkeeping, "manifest write")

	snap := tr.Snapshot()
	assert.Equal(t, snap.Total, snap.Done)
	assert.Equal(t, 100.0, snap.Percent)
	assert.True(t, tr.Complete())
}

func TestAdvanceClampsAtTotal(t *testing.T) {
	tr := NewTracker("inst", 2, nil)
	tr.Advance(5, "overshoot")
	snap := tr.Snapshot()
	assert.Equal(t, 2, snap.Done)
	assert.Equal(t, 100.0, snap.Percent)
}

func TestMonotonicUnderConcurrency(t *testing.T) {
	const workers = 14
	const perWorker = 20

	pub := pubsub.NewBufferedPublisher[Event](workers * perWorker)
	tr := NewTracker("inst", workers*perWorker, pub)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				tr.Advance(1, "item")
			}
		}()
	}
	wg.Wait()
	pub.Close()

	require.True(t, tr.Complete())

	prev := -1.0
	count := 0
	for event := range pub.Chan() {
		assert.GreaterOrEqual(t, event.Percent, prev)
		prev = event.Percent
		count++
	}
	assert.Equal(t, workers*perWorker, count)
	assert.Equal(t, 100.0, prev)
}

func TestZeroTotalReportsComplete(t *testing.T) {
	tr := NewTracker("inst", 0, nil)
	assert.Equal(t, 100.0, tr.Snapshot().Percent)
	assert.True(t, tr.Complete())
}

func TestEventCarriesInstallationAndDetail(t *testing.T) {
	pub := pubsub.NewBufferedPublisher[Event](1)
	tr := NewTracker("abc-123", 4, pub)
	tr.Advance(1, "mod sodium")

	event := <-pub.Chan()
	assert.Equal(t, "abc-123", event.InstallationID)
	assert.Equal(t, "mod sodium", event.Detail)
	assert.Equal(t, 1, event.Done)
	assert.Equal(t, 4, event.Total)
}
