package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reviewhound/internal/domain"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var address, trustpilot, bbb, yelp, yelpID, placeID string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Track a new business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			b, err := svc.manage.AddBusiness(cmd.Context(), domain.Business{
				Name:           args[0],
				Address:        optional(address),
				TrustpilotURL:  optional(trustpilot),
				BBBURL:         optional(bbb),
				YelpURL:        optional(yelp),
				YelpBusinessID: optional(yelpID),
				GooglePlaceID:  optional(placeID),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added business: %s (ID: %d)\n", b.Name, b.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Business address")
	cmd.Flags().StringVar(&trustpilot, "trustpilot", "", "Trustpilot review page URL")
	cmd.Flags().StringVar(&bbb, "bbb", "", "BBB review page URL")
	cmd.Flags().StringVar(&yelp, "yelp", "", "Yelp business page URL")
	cmd.Flags().StringVar(&yelpID, "yelp-id", "", "Yelp Fusion business id")
	cmd.Flags().StringVar(&placeID, "google-place-id", "", "Google Places place id")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked businesses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			bs, err := svc.manage.ListBusinesses(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(bs) == 0 {
				fmt.Fprintln(out, "No businesses tracked yet.")
				return nil
			}
			rows := make([][]string, 0, len(bs))
			for _, b := range bs {
				rows = append(rows, []string{
					strconv.FormatInt(b.ID, 10),
					b.Name,
					yesNo(domain.Configured(b.TrustpilotURL)),
					yesNo(domain.Configured(b.BBBURL)),
					yesNo(domain.Configured(b.YelpURL) || domain.Configured(b.YelpBusinessID)),
					yesNo(domain.Configured(b.GooglePlaceID)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Trustpilot", "BBB", "Yelp", "Google"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}
}

// resolveBusiness accepts an id or a name fragment.
func resolveBusiness(cmd *cobra.Command, svc *services, ident string) (domain.Business, error) {
	b, err := svc.manage.ResolveBusiness(cmd.Context(), ident)
	if errors.Is(err, domain.ErrNotFound) {
		return b, fmt.Errorf("business not found: %s", ident)
	}
	return b, err
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
