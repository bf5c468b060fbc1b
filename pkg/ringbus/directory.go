package ringbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/ringbus/ringbus/pkg/fs"
)

// participantRole distinguishes publisher entries from subscriber entries
// for lock-name generation.
type participantRole string

const (
	rolePublisher  participantRole = "publisher"
	roleSubscriber participantRole = "subscriber"
)

// participantDirectory assigns a joining endpoint a unique entry index by
// racing named advisory locks against every other process that might be
// joining the same topic concurrently.
type participantDirectory struct {
	locker  *fs.Locker
	lockDir string
	topic   string
	role    participantRole
}

func newParticipantDirectory(locker *fs.Locker, lockDir, topic string, role participantRole) *participantDirectory {
	return &participantDirectory{locker: locker, lockDir: lockDir, topic: topic, role: role}
}

// lockPath returns the deterministic path for entry idx's advisory lock.
// The naming function must be identical in every process.
func (d *participantDirectory) lockPath(idx uint32) string {
	return participantLockPath(d.lockDir, d.topic, d.role, idx)
}

// claim scans 0..maxEntries trying a non-blocking TryLock on each entry's
// lock file; the first one that succeeds is this endpoint's entry for the
// rest of its lifetime. If a full scan claims nothing, sleep briefly and
// retry until deadline.
func (d *participantDirectory) claim(maxEntries uint32, joinTimeout time.Duration) (uint32, *fs.Lock, error) {
	deadline := time.Now().Add(joinTimeout)
	backoff := time.Millisecond

	for {
		for idx := uint32(0); idx < maxEntries; idx++ {
			lk, err := d.locker.TryLock(d.lockPath(idx))
			if err == nil {
				return idx, lk, nil
			}

			if !errors.Is(err, fs.ErrWouldBlock) {
				return 0, nil, fmt.Errorf("claim entry %d: %w", idx, err)
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, nil, ErrParticipantLimitExceeded
		}

		sleep := backoff
		if sleep > remaining {
			sleep = remaining
		}

		time.Sleep(sleep)

		if backoff < 25*time.Millisecond {
			backoff *= 2
		}
	}
}
