package cli

import (
	"context"

	"github.com/ringbus/ringbus/internal/config"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show the resolved topic configuration",
		Long:  "Display every topic known to the loaded config file.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, cfg)
		},
	}
}

func execPrintConfig(io *IO, cfg config.Config) error {
	if cfg.Dir != "" {
		io.Println("dir=" + cfg.Dir)
	}

	if len(cfg.Topics) == 0 {
		io.Println("(no topics configured)")
		return nil
	}

	for _, t := range cfg.Topics {
		io.Printf("topic=%s max_publishers=%d max_subscribers=%d max_concurrent_acquires=%d dir=%s\n",
			t.Topic, t.MaxPublishers, t.MaxSubscribers, t.MaxConcurrentAcquires, t.Dir)
	}

	return nil
}
