package installer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAcquireSerializesSameID(t *testing.T) {
	locks := newLockRegistry()

	release := locks.Acquire("inst-1")

	acquired := make(chan struct{})
	go func() {
		second := locks.Acquire("inst-1")
		close(acquired)
		second()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while the lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never succeeded after release")
	}
}

func TestAcquireIndependentIDs(t *testing.T) {
	locks := newLockRegistry()

	release := locks.Acquire("inst-1")
	defer release()

	done := make(chan struct{})
	go func() {
		other := locks.Acquire("inst-2")
		other()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unrelated installation blocked on a foreign lock")
	}
	assert.NotPanics(t, func() { locks.Acquire("inst-2")() })
}
