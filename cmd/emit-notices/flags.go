package main

import (
	"errors"
	"flag"
	"io"

	"github.com/robfig/cron/v3"
)

const (
	defaultSchedule = "@every 1m"
	chunkFlag       = "-chunk"
)

var errInvalidWorkers = errors.New("-workers must be at least 1")

type options struct {
	workers   int
	processes bool
	daemon    bool
	schedule  string
	chunk     bool
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("emit-notices", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&opts.workers, "workers", 1, "number of parallel workers")
	fs.BoolVar(&opts.processes, "processes", false, "run workers as child processes instead of goroutines")
	fs.BoolVar(&opts.daemon, "daemon", false, "keep running and drain on -schedule")
	fs.StringVar(&opts.schedule, "schedule", defaultSchedule, "cron spec used with -daemon")
	// Child mode of the process pool; not meant to be run by hand.
	fs.BoolVar(&opts.chunk, chunkFlag[1:], false, "")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.workers < 1 {
		return opts, errInvalidWorkers
	}
	if opts.daemon {
		if _, err := scheduleParser.Parse(opts.schedule); err != nil {
			return opts, err
		}
	}
	return opts, nil
}
