// Package reaper implements a best-effort liveness sweep over a topic's
// participant directory: it reports publisher/subscriber entries whose
// owning process no longer exists and clears the orphaned advisory lock
// file for each one, so a future joiner can reclaim that entry index. It
// never touches active_references or slot state directly - a dead
// publisher's last published slot stays pinned forever, since touching that
// state from outside the owning process would violate the single-writer
// invariant the protocol relies on.
package reaper

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/ringbus/ringbus/pkg/fs"
	"github.com/ringbus/ringbus/pkg/ringbus"
)

// Report summarizes one sweep of a topic's participant directory.
type Report struct {
	Topic            string
	Inspected        int
	Dead             []ringbus.ParticipantSnapshot
	ClearedLockPaths []string
}

// Sweep inspects topic's participant directory once and clears the
// advisory lock file for every entry whose ProcessID is no longer live.
// Clearing a lock is itself gated on winning a TryLock against it - if
// another process has since claimed that entry (or the original owner is
// merely slow, not dead), the TryLock fails and Sweep leaves it alone,
// the same non-destructive discipline the participant directory itself
// uses to decide ownership.
func Sweep(dir, topic string) (Report, error) {
	snapshots, err := ringbus.Inspect(dir, topic)
	if err != nil {
		return Report{}, fmt.Errorf("reaper: inspect %q: %w", topic, err)
	}

	report := Report{Topic: topic, Inspected: len(snapshots)}
	locker := fs.NewLocker(fs.NewReal())

	for _, snap := range snapshots {
		alive, err := process.PidExists(int32(snap.ProcessID))
		if err != nil || alive {
			continue
		}

		report.Dead = append(report.Dead, snap)

		lk, err := locker.TryLock(snap.LockPath)
		if err != nil {
			continue
		}

		if err := os.Remove(snap.LockPath); err == nil {
			report.ClearedLockPaths = append(report.ClearedLockPaths, snap.LockPath)
		}

		_ = lk.Close()
	}

	return report, nil
}

// Run sweeps topic's participant directory on interval until ctx is
// canceled, for embedding in a long-running process. log may be nil, in
// which case sweep outcomes are simply not logged - every call site
// nil-checks before logging, the same discipline ringmetrics.Collector
// uses for its optional instrumentation.
func Run(ctx context.Context, dir, topic string, interval time.Duration, log *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			report, err := Sweep(dir, topic)
			if err != nil {
				if log != nil {
					log.Warn("reaper sweep failed", zap.String("topic", topic), zap.Error(err))
				}

				continue
			}

			if log != nil && len(report.Dead) > 0 {
				log.Info("reaper cleared orphaned participants",
					zap.String("topic", topic),
					zap.Int("dead", len(report.Dead)),
					zap.Int("cleared_locks", len(report.ClearedLockPaths)),
				)
			}
		}
	}
}
