package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ringbus/ringbus/internal/config"
	"github.com/ringbus/ringbus/internal/telemetry"
	"github.com/ringbus/ringbus/pkg/ringbus/reaper"

	flag "github.com/spf13/pflag"
)

// ReapCmd returns the reap command: run one liveness sweep over topic's
// participant directory, or with -watch, run sweeps on an interval until
// canceled.
func ReapCmd(cfg config.Config) *Command {
	flags := flag.NewFlagSet("reap", flag.ContinueOnError)
	dirFlag := flags.String("dir", "", "Override the topic's region directory")
	watchFlag := flags.Duration("watch", 0, "Repeat the sweep on this interval instead of running once")

	return &Command{
		Flags: flags,
		Usage: "reap <topic>",
		Short: "Clear orphaned participant locks",
		Long:  "Report and clear participant entries whose owning process no longer exists.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execReap(ctx, io, cfg, args, *dirFlag, *watchFlag)
		},
	}
}

func execReap(ctx context.Context, io *IO, cfg config.Config, args []string, dirFlag string, watch time.Duration) error {
	if len(args) == 0 {
		return errTopicRequired
	}

	topic := args[0]

	tc, ok := cfg.Topic(topic)
	if !ok {
		return fmt.Errorf("unknown topic %q: add it to %s", topic, config.ConfigFileName)
	}

	dir := tc.Dir
	if dirFlag != "" {
		dir = dirFlag
	}

	if watch > 0 {
		io.Println("watching", topic, "every", watch)
		return reaper.Run(ctx, dir, topic, watch, telemetry.NewLogger(false))
	}

	report, err := reaper.Sweep(dir, topic)
	if err != nil {
		return err
	}

	io.Printf("inspected=%d dead=%d cleared_locks=%d\n", report.Inspected, len(report.Dead), len(report.ClearedLockPaths))

	for _, d := range report.Dead {
		io.Printf("  dead: %-10s idx=%d pid=%d\n", d.Role, d.Index, d.ProcessID)
	}

	return nil
}
