package cli

import (
	"context"
	"fmt"

	"github.com/ringbus/ringbus/internal/config"
	"github.com/ringbus/ringbus/pkg/ringbus"

	flag "github.com/spf13/pflag"
)

// InspectCmd returns the inspect command: a read-only report of every
// claimed participant entry in a topic's region, without joining as a
// publisher or subscriber itself.
func InspectCmd(cfg config.Config) *Command {
	flags := flag.NewFlagSet("inspect", flag.ContinueOnError)
	dirFlag := flags.String("dir", "", "Override the topic's region directory")

	return &Command{
		Flags: flags,
		Usage: "inspect <topic>",
		Short: "List a topic's claimed participant entries",
		Long:  "Report every claimed publisher/subscriber entry and its process ID.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execInspect(io, cfg, args, *dirFlag)
		},
	}
}

func execInspect(io *IO, cfg config.Config, args []string, dirFlag string) error {
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

	snapshots, err := ringbus.Inspect(dir, topic)
	if err != nil {
		return err
	}

	if len(snapshots) == 0 {
		io.Println("(no claimed participants)")
		return nil
	}

	for _, s := range snapshots {
		io.Printf("%-5d %-10s pid=%d lock=%s\n", s.Index, s.Role, s.ProcessID, s.LockPath)
	}

	return nil
}
