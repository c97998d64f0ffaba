package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newAlertCommand(ctx *commandContext) *cobra.Command {
	var threshold float64
	var disable bool

	cmd := &cobra.Command{
		Use:   "alert <business> <email>",
		Short: "Email an address when a review is rated at or below a threshold",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			b, err := resolveBusiness(cmd, svc, args[0])
			if err != nil {
				return err
			}
			rule, action, err := svc.manage.ConfigureAlert(cmd.Context(), b.ID, args[1], threshold, disable)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s alert config: %s -> %s (threshold: %g)\n", action, b.Name, rule.Email, rule.Threshold)
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 3.0, "Alert on ratings at or below this")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable the alert instead of enabling it")
	return cmd
}

func newAlertsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts [business]",
		Short: "List alert configurations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			var filter *int64
			if len(args) == 1 {
				b, err := resolveBusiness(cmd, svc, args[0])
				if err != nil {
					return err
				}
				filter = &b.ID
			}
			rules, err := svc.manage.ListAlerts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rules) == 0 {
				fmt.Fprintln(out, "No alert configurations found.")
				return nil
			}
			names, err := businessNames(cmd, svc)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(rules))
			for _, r := range rules {
				rows = append(rows, []string{
					strconv.FormatInt(r.ID, 10),
					names[r.BusinessID],
					r.Email,
					strconv.FormatFloat(r.Threshold, 'f', -1, 64),
					yesNo(r.Enabled),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Business", "Email", "Threshold", "Enabled"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func businessNames(cmd *cobra.Command, svc *services) (map[int64]string, error) {
	bs, err := svc.manage.ListBusinesses(cmd.Context())
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(bs))
	for _, b := range bs {
		out[b.ID] = b.Name
	}
	return out, nil
}

