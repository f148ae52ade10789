package progress

import (
	"sync"

	"github.com/packmule-mc/packmule/core/manifest"
	"github.com/packmule-mc/packmule/internal/pubsub"
)

// Point weights per operation class. Asset classes vary wildly in expected
// transfer time, so a flat per-item counter would misrepresent completion.
// This table is the single source for both planning and advancement.
const (
	WeightItem          = 1
	WeightInclude       = 5
	WeightRemoteInclude = 15
	WeightBookkeeping   = 2
)

// WeightFor maps a component kind to its point weight.
func WeightFor(kind manifest.Kind) int {
	switch kind {
	case manifest.KindInclude:
		return WeightInclude
	case manifest.KindRemoteInclude:
		return WeightRemoteInclude
	default:
		return WeightItem
	}
}

// BatchTotal precomputes the point total for a batch.
func BatchTotal(items, includes, remoteIncludes, bookkeepingSteps int) int {
	return items*WeightItem +
		includes*WeightInclude +
		remoteIncludes*WeightRemoteInclude +
		bookkeepingSteps*WeightBookkeeping
}

// Event is a progress snapshot published after every advancement.
type Event struct {
	InstallationID string  `json:"installation_id"`
	Detail         string  `json:"detail"`
	Done           int     `json:"done"`
	Total          int     `json:"total"`
	Percent        float64 `json:"percent"`
}

// Tracker accumulates weighted completion for one batch. It is safe for
// concurrent workers; the reported percentage never decreases and reaches
// 100 exactly when every planned point has been counted.
type Tracker struct {
	mu             sync.Mutex
	installationID string
	total          int
	done           int
	publisher      pubsub.Publisher[Event]
}

// NewTracker plans a batch of total points. The publisher may be nil when
// nothing listens.
func NewTracker(installationID string, total int, publisher pubsub.Publisher[Event]) *Tracker {
	return &Tracker{
		installationID: installationID,
		total:          total,
		publisher:      publisher,
	}
}

// Advance counts points points of completed work. Advancing past the planned
// total clamps rather than overflowing 100%.
func (t *Tracker) Advance(points int, detail string) {
	if points <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done += points
	if t.done > t.total {
		t.done = t.total
	}
	// Published under the lock so event order matches counter order; the
	// publisher never blocks.
	if t.publisher != nil {
		_ = t.publisher.Publish(t.snapshotLocked(detail))
	}
}

// Snapshot returns the current state without advancing.
func (t *Tracker) Snapshot() Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked("")
}

func (t *Tracker) snapshotLocked(detail string) Event {
	percent := 100.0
	if t.total > 0 {
		percent = float64(t.done) / float64(t.total) * 100
	}
	return Event{
		InstallationID: t.installationID,
		Detail:         detail,
		Done:           t.done,
		Total:          t.total,
		Percent:        percent,
	}
}

// Complete reports whether every planned point has been counted.
func (t *Tracker) Complete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done == t.total
}
