package cli

import (
	"fmt"

	"github.com/ringbus/ringbus/internal/config"
	"github.com/ringbus/ringbus/pkg/ringbus"
)

// resolveOptions builds a ringbus.Options for topic from the loaded config
// file, falling back to the command-line flag values for anything the
// config file doesn't set. Every ringctl command that joins a topic goes
// through this so a single .ringbus.json stays the source of truth for
// MaxPublishers/MaxSubscribers across independently-invoked processes -
// getting those wrong between two invocations is an ErrIncompatible at
// join time, not a silent mismatch.
func resolveOptions(cfg config.Config, topic string, dirFlag string) (ringbus.Options, error) {
	tc, ok := cfg.Topic(topic)
	if !ok {
		return ringbus.Options{}, fmt.Errorf("unknown topic %q: add it to %s", topic, config.ConfigFileName)
	}

	dir := tc.Dir
	if dirFlag != "" {
		dir = dirFlag
	}

	joinTimeout, err := config.Duration(tc.JoinTimeout, 0)
	if err != nil {
		return ringbus.Options{}, err
	}

	initTimeout, err := config.Duration(tc.InitTimeout, 0)
	if err != nil {
		return ringbus.Options{}, err
	}

	return ringbus.Options{
		Topic:                 tc.Topic,
		MaxPublishers:         tc.MaxPublishers,
		MaxSubscribers:        tc.MaxSubscribers,
		MaxConcurrentAcquires: tc.MaxConcurrentAcquires,
		UserVersion:           tc.UserVersion,
		JoinTimeout:           joinTimeout,
		InitTimeout:           initTimeout,
		Dir:                   dir,
	}, nil
}
