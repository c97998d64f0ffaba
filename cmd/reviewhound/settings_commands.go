package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reviewhound/internal/domain"
	"reviewhound/internal/sentiment"
)

func newPolicyCommand(ctx *commandContext) *cobra.Command {
	var p domain.SentimentPolicy
	def := sentiment.DefaultPolicy()

	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Set how ratings and text combine into a sentiment score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.manage.SetSentimentPolicy(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sentiment policy saved: rating weight %g, text weight %g, threshold %g\n",
				p.RatingWeight, p.TextWeight, p.Threshold)
			return nil
		},
	}

	cmd.Flags().Float64Var(&p.RatingWeight, "rating-weight", def.RatingWeight, "Weight of the star rating")
	cmd.Flags().Float64Var(&p.TextWeight, "text-weight", def.TextWeight, "Weight of the text polarity")
	cmd.Flags().Float64Var(&p.Threshold, "threshold", def.Threshold, "Scores beyond +/- this are positive or negative")
	return cmd
}

func newAPIKeyCommand(ctx *commandContext) *cobra.Command {
	var disable bool

	cmd := &cobra.Command{
		Use:       "apikey <google_places|yelp_fusion> [key]",
		Short:     "Store or disable a provider API key",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{domain.ProviderGooglePlaces, domain.ProviderYelpFusion},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := domain.APIConfig{Provider: args[0], Enabled: !disable}
			if len(args) == 2 {
				c.APIKey = args[1]
			}
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.manage.SetAPIConfig(cmd.Context(), c); err != nil {
				return err
			}
			state := "enabled"
			if disable {
				state = "disabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Provider, state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&disable, "disable", false, "Disable the provider")
	return cmd
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date")
			return nil
		},
	}
}
