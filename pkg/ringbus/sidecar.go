package ringbus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// topicDescriptor is the human-readable sidecar written next to a topic's
// region file. It carries nothing Publisher/Subscriber need to operate -
// everything load-bearing lives in the region's own binary header - it
// exists so an operator can `cat` a directory and see what a `.ringbus`
// file is without attaching a participant to it.
type topicDescriptor struct {
	Topic                 string    `json:"topic"`
	MaxPublishers         uint32    `json:"max_publishers"`
	MaxSubscribers        uint32    `json:"max_subscribers"`
	MaxConcurrentAcquires uint32    `json:"max_concurrent_acquires"`
	ValueSizeBytes        uint32    `json:"value_size_bytes"`
	SlotsPerPublisher     uint32    `json:"slots_per_publisher"`
	UserVersion           uint64    `json:"user_version"`
	RegionSizeBytes       int64     `json:"region_size_bytes"`
	RegionFile            string    `json:"region_file"`
	CreatedAt             time.Time `json:"created_at"`
}

// sidecarPath returns the deterministic path for a topic's descriptor file.
func sidecarPath(dir, topic string) string {
	return filepath.Join(dir, topic+".topic.json")
}

// writeTopicSidecar (re)writes the descriptor file for topic in dir. It is
// called by every process that creates or grows the region, so the sidecar
// always reflects the layout currently in effect; the write is a
// temp-file-then-rename so a reader never observes a half-written file.
func writeTopicSidecar(dir, topic string, layout regionLayout) error {
	desc := topicDescriptor{
		Topic:                 topic,
		MaxPublishers:         layout.MaxPublishers,
		MaxSubscribers:        layout.MaxSubscribers,
		MaxConcurrentAcquires: layout.MaxConcurrentAcquires,
		ValueSizeBytes:        layout.ValueSize,
		SlotsPerPublisher:     layout.SlotsPerPublisher,
		UserVersion:           layout.UserVersion,
		RegionSizeBytes:       layout.totalSize,
		RegionFile:            filepath.Base(regionPath(dir, topic)),
		CreatedAt:             time.Now().UTC(),
	}

	content, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal topic descriptor: %w", err)
	}

	path := sidecarPath(dir, topic)

	if err := atomic.WriteFile(path, strings.NewReader(string(content)+"\n")); err != nil {
		return fmt.Errorf("write topic descriptor: %w", err)
	}

	// atomic.WriteFile doesn't set permissions on a newly-created file.
	if err := os.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("chmod topic descriptor: %w", err)
	}

	return nil
}
