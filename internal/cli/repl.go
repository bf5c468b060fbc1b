package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ringbus/ringbus/internal/config"
	"github.com/ringbus/ringbus/pkg/ringbus"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// ReplCmd returns the repl command: an interactive readline-style session
// for exercising a single topic (publish, tail a bounded number of
// messages, inspect participants) without re-invoking ringctl per action.
func ReplCmd(cfg config.Config) *Command {
	flags := flag.NewFlagSet("repl", flag.ContinueOnError)
	dirFlag := flags.String("dir", "", "Override the topic's region directory")

	return &Command{
		Flags: flags,
		Usage: "repl <topic>",
		Short: "Interactively publish/tail/inspect a topic",
		Long:  "Open a readline session bound to one topic. Type 'help' for commands.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execRepl(ctx, o, cfg, args, *dirFlag)
		},
	}
}

func execRepl(ctx context.Context, o *IO, cfg config.Config, args []string, dirFlag string) error {
	if len(args) == 0 {
		return errTopicRequired
	}

	opts, err := resolveOptions(cfg, args[0], dirFlag)
	if err != nil {
		return err
	}

	r := &repl{opts: opts, out: o}

	return r.run(ctx)
}

type repl struct {
	opts ringbus.Options
	out  *IO

	pub *ringbus.Publisher[ringbus.RawMessage]
	sub *ringbus.Subscriber[ringbus.RawMessage]

	line *liner.State
}

func replHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".ringctl_history")
}

func (r *repl) run(ctx context.Context) error {
	r.line = liner.NewLiner()
	defer r.line.Close()

	r.line.SetCtrlCAborts(true)

	if f, err := os.Open(replHistoryFile()); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}

	defer r.closeParticipants()

	r.out.Printf("ringctl repl - topic %q (dir=%s)\n", r.opts.Topic, r.opts.Dir)
	r.out.Println("Type 'help' for available commands.")

	for {
		text, err := r.line.Prompt(r.opts.Topic + "> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				r.out.Println("bye")
				r.saveHistory()

				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		r.line.AppendHistory(text)

		fields := strings.Fields(text)
		cmd, rest := fields[0], fields[1:]

		switch strings.ToLower(cmd) {
		case "exit", "quit", "q":
			r.out.Println("bye")
			r.saveHistory()

			return nil
		case "help", "?":
			r.printHelp()
		case "pub", "publish":
			r.cmdPublish(rest)
		case "tail":
			r.cmdTail(ctx, rest)
		case "inspect":
			r.cmdInspect()
		default:
			r.out.Printf("unknown command %q (type 'help' for commands)\n", cmd)
		}
	}
}

func (r *repl) saveHistory() {
	path := replHistoryFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		r.line.WriteHistory(f)
		f.Close()
	}
}

func (r *repl) printHelp() {
	r.out.Println("commands:")
	r.out.Println("  pub <text>      publish one message")
	r.out.Println("  tail [count]    print up to count messages (default 1)")
	r.out.Println("  inspect         list live publishers/subscribers")
	r.out.Println("  exit            leave the repl")
}

func (r *repl) cmdPublish(args []string) {
	if len(args) == 0 {
		r.out.Println("usage: pub <text>")
		return
	}

	if r.pub == nil {
		pub, err := ringbus.NewPublisher[ringbus.RawMessage](r.opts)
		if err != nil {
			r.out.Printf("error: %v\n", err)
			return
		}

		r.pub = pub
	}

	payload := strings.Join(args, " ")
	if err := r.pub.Publish(ringbus.NewRawMessage([]byte(payload))); err != nil {
		r.out.Printf("error: %v\n", err)
		return
	}

	r.out.Println("published")
}

func (r *repl) cmdTail(ctx context.Context, args []string) {
	count := 1

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			r.out.Println("usage: tail [count]")
			return
		}

		count = n
	}

	if r.sub == nil {
		sub, err := ringbus.NewSubscriber[ringbus.RawMessage](r.opts)
		if err != nil {
			r.out.Printf("error: %v\n", err)
			return
		}

		r.sub = sub
	}

	for i := 0; i < count; i++ {
		wrapper, err := r.sub.AwaitMessage(ctx)
		if err != nil {
			r.out.Printf("error: %v\n", err)
			return
		}

		payload := wrapper.Value().Payload()
		wrapper.Close()

		r.out.Printf("%s\n", string(payload))
	}
}

func (r *repl) cmdInspect() {
	snapshots, err := ringbus.Inspect(r.opts.Dir, r.opts.Topic)
	if err != nil {
		r.out.Printf("error: %v\n", err)
		return
	}

	for _, s := range snapshots {
		r.out.Printf("%-11s idx=%-3d pid=%-8d %s\n", s.Role, s.Index, s.ProcessID, s.LockPath)
	}
}

func (r *repl) closeParticipants() {
	if r.pub != nil {
		r.pub.Close()
	}

	if r.sub != nil {
		r.sub.Close()
	}
}
