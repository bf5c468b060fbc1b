package cli

import (
	"context"
	"errors"

	"github.com/ringbus/ringbus/internal/config"
	"github.com/ringbus/ringbus/pkg/ringbus"

	flag "github.com/spf13/pflag"
)

// TailCmd returns the tail command: join topic as a subscriber and print
// each message as it arrives until count messages have been printed or ctx
// is canceled (Ctrl-C via the signal handling in cmd/ringctl's main).
func TailCmd(cfg config.Config) *Command {
	flags := flag.NewFlagSet("tail", flag.ContinueOnError)
	dirFlag := flags.String("dir", "", "Override the topic's region directory")
	countFlag := flags.Int("count", 0, "Stop after printing this many messages (0 = unbounded)")

	return &Command{
		Flags: flags,
		Usage: "tail <topic>",
		Short: "Print messages published to a topic",
		Long:  "Join topic as a subscriber and print each message as it is observed.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execTail(ctx, io, cfg, args, *dirFlag, *countFlag)
		},
	}
}

func execTail(ctx context.Context, io *IO, cfg config.Config, args []string, dirFlag string, count int) error {
	if len(args) == 0 {
		return errTopicRequired
	}

	opts, err := resolveOptions(cfg, args[0], dirFlag)
	if err != nil {
		return err
	}

	sub, err := ringbus.NewSubscriber[ringbus.RawMessage](opts)
	if err != nil {
		return err
	}
	defer sub.Close()

	for printed := 0; count == 0 || printed < count; printed++ {
		wrapper, err := sub.AwaitMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}

			return err
		}

		payload := wrapper.Value().Payload()
		wrapper.Close()

		io.Printf("%s\n", string(payload))
	}

	return nil
}
