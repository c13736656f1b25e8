// nearmiss is the operator CLI for the near-miss batch. It shares the
// server's configuration and backends.
//
//	nearmiss run [--date YYYY-MM-DD] [--force]
//	nearmiss sweep
//	nearmiss deliver
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"bubble/internal/app"
	"bubble/internal/platform/config"
	"bubble/internal/platform/logger"
	"bubble/pkg/platform/sentinel"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("a command is required")
	}
	command, rest := args[0], args[1:]

	var date string
	var force bool
	flagSet := pflag.NewFlagSet("nearmiss "+command, pflag.ContinueOnError)
	flagSet.StringVar(&date, "date", "", "run date YYYY-MM-DD in the batch time zone (default: yesterday)")
	flagSet.BoolVar(&force, "force", false, "rerun a date that already has a committed run")
	if err := flagSet.Parse(rest); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	switch command {
	case "run":
		return runBatch(ctx, a, cfg, date, force)
	case "sweep":
		purged, err := a.History.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("purged %d expired records\n", purged)
		return nil
	case "deliver":
		delivered, err := a.Dispatcher.DispatchDue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("delivered %d events\n", delivered)
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runBatch(ctx context.Context, a *app.App, cfg config.Config, date string, force bool) error {
	loc := cfg.NearMiss.Location()
	day := time.Now().In(loc).AddDate(0, 0, -1)
	if date != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, date, loc)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
		day = parsed
	}

	runDate, _, _ := a.NearMiss.Window(day)
	if !force {
		existing, err := a.RunFinder.FindRun(ctx, runDate)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		if err == nil {
			fmt.Printf("run %s already committed at %s with %d events; use --force to rerun\n",
				runDate, existing.CommittedAt.Format(time.RFC3339), existing.Events)
			return nil
		}
	}

	events, err := a.NearMiss.Run(ctx, day)
	if err != nil {
		return err
	}
	fmt.Printf("run %s committed with %d events\n", runDate, len(events))
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: nearmiss <command> [flags]

commands:
  run      compare eligible pairs for one day and commit the events
  sweep    purge expired location records
  deliver  hand due events to the notification sink`)
}
