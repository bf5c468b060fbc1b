package ringbus

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
)

// ParticipantSnapshot describes one claimed PublisherEntry or
// SubscriberEntry as observed by [Inspect]. It is a point-in-time read with
// no synchronization against concurrent claims - a entry reported here may
// already have been released or reclaimed by the time the caller acts on
// it, which is why [ParticipantSnapshot.LockPath] exists: callers that want
// to act safely go back through an [github.com/ringbus/ringbus/pkg/fs]
// advisory lock rather than trusting the snapshot directly.
type ParticipantSnapshot struct {
	Index     uint32
	Role      string
	ProcessID uint64
	LockPath  string
}

// Inspect opens topic's region read-only (it must already be initialized)
// and reports every claimed PublisherEntry/SubscriberEntry, without joining
// as a participant itself. It exists for operator tooling (cmd/ringctl's
// inspect/reap verbs) that needs to look at a topic's participants without
// knowing the topic's message type T at compile time - the region's own
// header is authoritative for MaxPublishers/MaxSubscribers/ValueSize, so
// Inspect recomputes the layout from the header instead of from an Options
// value the caller would otherwise have to fabricate.
func Inspect(dir, topic string) ([]ParticipantSnapshot, error) {
	header, err := openRegion(dir, topic, int64(headerSize))
	if err != nil {
		return nil, err
	}
	defer header.Close()

	if err := validateHeaderHealth(header.data); err != nil {
		return nil, err
	}

	cfg := decodeHeaderConfig(header.data)
	layout := layoutForConfig(cfg)

	region, err := openRegion(dir, topic, layout.totalSize)
	if err != nil {
		return nil, err
	}
	defer region.Close()

	var snapshots []ParticipantSnapshot

	for idx := uint32(0); idx < cfg.MaxPublishers; idx++ {
		entry := publisherEntryAt(layout, idx).bind(region.data)
		if pid := entry.processID(); pid != 0 {
			snapshots = append(snapshots, ParticipantSnapshot{
				Index:     idx,
				Role:      string(rolePublisher),
				ProcessID: pid,
				LockPath:  participantLockPath(dir, topic, rolePublisher, idx),
			})
		}
	}

	for idx := uint32(0); idx < cfg.MaxSubscribers; idx++ {
		entry := subscriberEntryAt(layout, idx).bind(region.data)
		if pid := entry.processID(); pid != 0 {
			snapshots = append(snapshots, ParticipantSnapshot{
				Index:     idx,
				Role:      string(roleSubscriber),
				ProcessID: pid,
				LockPath:  participantLockPath(dir, topic, roleSubscriber, idx),
			})
		}
	}

	return snapshots, nil
}

// validateHeaderHealth is [validateHeaderCompat] minus the config-equality
// check, since Inspect has no Options to compare against - it only wants to
// know the header is structurally sound before trusting its field values.
func validateHeaderHealth(buf []byte) error {
	if len(buf) < headerSize {
		return fmt.Errorf("%w: region shorter than header", ErrCorrupt)
	}

	if string(buf[offMagic:offMagic+4]) != headerMagicString {
		return fmt.Errorf("%w: bad magic", ErrCorrupt)
	}

	if binary.LittleEndian.Uint32(buf[offHeaderSize:]) != headerSize {
		return fmt.Errorf("%w: unexpected header size", ErrCorrupt)
	}

	if hasReservedBytesSet(buf) {
		return fmt.Errorf("%w: reserved bytes set", ErrCorrupt)
	}

	if !validateHeaderCRC(buf) {
		return fmt.Errorf("%w: header checksum mismatch", ErrCorrupt)
	}

	if loadInitState(buf) != stateInitialized {
		return fmt.Errorf("%w: region not yet initialized", ErrCorrupt)
	}

	return nil
}

// participantLockPath is [participantDirectory.lockPath] without needing a
// constructed directory - Inspect only reads, it never claims.
func participantLockPath(dir, topic string, role participantRole, idx uint32) string {
	name := fmt.Sprintf("%s_%s_entry_%d", topic, role, idx)
	return filepath.Join(dir, name)
}
