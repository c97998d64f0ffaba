package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"reviewhound/internal/app"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	var all, noAlerts bool

	cmd := &cobra.Command{
		Use:   "scrape [business]",
		Short: "Fetch new reviews for one business or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errors.New("provide a business id or name, or use --all")
			}
			if len(args) == 1 && all {
				return errors.New("--all cannot be combined with a business")
			}
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			opts := app.SweepOptions{DisableAlerts: noAlerts}
			if !all {
				b, err := resolveBusiness(cmd, svc, args[0])
				if err != nil {
					return err
				}
				opts.BusinessIDs = []int64{b.ID}
			}
			sum, err := svc.sweeper.RunSweep(cmd.Context(), opts)
			printSummary(cmd.OutOrStdout(), sum)
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Scrape every tracked business")
	cmd.Flags().BoolVar(&noAlerts, "no-alerts", false, "Do not send alert notifications")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var hours float64

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scrape every business now and then on a fixed interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval := ctx.cfg.SweepInterval
			if cmd.Flags().Changed("interval") {
				interval = time.Duration(hours * float64(time.Hour))
			}
			if interval <= 0 {
				return errors.New("interval must be positive")
			}
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Starting watch mode (every %s)\n", interval)

			// a failed sweep is reported and retried on the next tick
			run := func() {
				sum, err := svc.sweeper.RunSweep(cmd.Context(), app.SweepOptions{})
				printSummary(out, sum)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("sweep aborted")
				}
			}
			run()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
					run()
				}
			}
		},
	}

	cmd.Flags().Float64Var(&hours, "interval", 0, "Override the sweep interval (hours)")
	return cmd
}

func printSummary(out io.Writer, sum app.Summary) {
	fmt.Fprintf(out, "%d new reviews from %d sources across %d businesses\n", sum.NewReviews, sum.Units, sum.Businesses)
	for _, f := range sum.Failed {
		fmt.Fprintf(out, "  failed  %s: %s\n", f.Name(), f.Error)
	}
	for _, f := range sum.Skipped {
		fmt.Fprintf(out, "  skipped %s: %s\n", f.Name(), f.Error)
	}
	if sum.NotificationsSent+sum.NotificationsFailed > 0 {
		fmt.Fprintf(out, "%d alerts sent, %d failed\n", sum.NotificationsSent, sum.NotificationsFailed)
	}
}
