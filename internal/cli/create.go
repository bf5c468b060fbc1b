package cli

import (
	"context"

	"github.com/ringbus/ringbus/internal/config"
	"github.com/ringbus/ringbus/pkg/ringbus"

	flag "github.com/spf13/pflag"
)

// CreateCmd returns the create command, which joins topic as a throwaway
// publisher just long enough to run the region's one-time initialization
// handshake, then exits. This lets an operator provision a topic's region
// ahead of time instead of letting the first real publisher pay the
// CAS-init cost.
func CreateCmd(cfg config.Config) *Command {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	dirFlag := flags.String("dir", "", "Override the topic's region directory")

	return &Command{
		Flags: flags,
		Usage: "create <topic>",
		Short: "Initialize a topic's shared region",
		Long:  "Join the named topic as a publisher, forcing region initialization, then close.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execCreate(io, cfg, args, *dirFlag)
		},
	}
}

func execCreate(io *IO, cfg config.Config, args []string, dirFlag string) error {
	if len(args) == 0 {
		return errTopicRequired
	}

	opts, err := resolveOptions(cfg, args[0], dirFlag)
	if err != nil {
		return err
	}

	pub, err := ringbus.NewPublisher[ringbus.RawMessage](opts)
	if err != nil {
		return err
	}

	io.Println("topic initialized:", opts.Topic)

	return pub.Close()
}
