// Command emit-notices drains the queued notification batches.
//
// Without flags it runs a single pass and exits. With -daemon it keeps
// running and drains on the -schedule cron spec until interrupted.
//
//	emit-notices -workers 4 -processes
//	emit-notices -daemon -schedule "@every 30s"
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "emit-notices:", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "emit-notices:", err)
		os.Exit(1)
	}
}
