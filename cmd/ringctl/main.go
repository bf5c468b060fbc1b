// Command ringctl is an operator CLI for creating, publishing to,
// inspecting, and reaping ringbus topics.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ringbus/ringbus/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, sigCh)

	os.Exit(exitCode)
}
