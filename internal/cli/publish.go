package cli

import (
	"context"

	"github.com/ringbus/ringbus/internal/config"
	"github.com/ringbus/ringbus/pkg/ringbus"

	flag "github.com/spf13/pflag"
)

// PublishCmd returns the publish command: join topic as a publisher, send
// one message built from the given payload text, then close. Intended for
// scripting and smoke-testing a topic from the shell rather than
// sustained-throughput publishing - a long-lived process should use
// Publisher[T] directly.
func PublishCmd(cfg config.Config) *Command {
	flags := flag.NewFlagSet("publish", flag.ContinueOnError)
	dirFlag := flags.String("dir", "", "Override the topic's region directory")

	return &Command{
		Flags: flags,
		Usage: "publish <topic> <payload>",
		Short: "Publish one message to a topic",
		Long:  "Join topic as a publisher, publish payload as a single message, then exit.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execPublish(io, cfg, args, *dirFlag)
		},
	}
}

func execPublish(io *IO, cfg config.Config, args []string, dirFlag string) error {
	if len(args) == 0 {
		return errTopicRequired
	}

	if len(args) < 2 {
		return errPayloadRequired
	}

	opts, err := resolveOptions(cfg, args[0], dirFlag)
	if err != nil {
		return err
	}

	pub, err := ringbus.NewPublisher[ringbus.RawMessage](opts)
	if err != nil {
		return err
	}
	defer pub.Close()

	if err := pub.Publish(ringbus.NewRawMessage([]byte(args[1]))); err != nil {
		return err
	}

	io.Println("published to", opts.Topic)

	return nil
}
