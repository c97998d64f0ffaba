package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reviewhound/internal/app"
	"reviewhound/internal/domain"
)

func newReviewsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var source, sentiment string

	cmd := &cobra.Command{
		Use:   "reviews <business>",
		Short: "Show stored reviews, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := domain.ReviewQuery{Limit: limit}
			if source != "" {
				s, ok := domain.ParseSource(source)
				if !ok {
					return fmt.Errorf("unknown source %q", source)
				}
				q.Source = &s
			}
			if sentiment != "" {
				l, ok := domain.ParseLabel(sentiment)
				if !ok {
					return fmt.Errorf("unknown sentiment %q", sentiment)
				}
				q.Label = &l
			}
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			b, err := resolveBusiness(cmd, svc, args[0])
			if err != nil {
				return err
			}
			q.BusinessID = b.ID
			rs, err := svc.queries.ListReviews(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rs) == 0 {
				fmt.Fprintln(out, "No reviews found.")
				return nil
			}
			rows := make([][]string, 0, len(rs))
			for _, r := range rs {
				rows = append(rows, []string{
					r.Source.String(),
					author(r.Author),
					rating(r.Rating),
					fmt.Sprintf("%s (%.2f)", r.SentimentLabel, r.SentimentScore),
					reviewDate(r),
					excerpt(r.Text, 80),
				})
			}
			fmt.Fprintf(out, "%s - Reviews\n", b.Name)
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "Author", "Rating", "Sentiment", "Date", "Text"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max reviews to show")
	cmd.Flags().StringVar(&source, "source", "", "Filter by source (trustpilot, bbb, yelp, google)")
	cmd.Flags().StringVar(&sentiment, "sentiment", "", "Filter by sentiment (positive, negative, neutral)")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <business>",
		Short: "Summarize ratings and sentiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			b, err := resolveBusiness(cmd, svc, args[0])
			if err != nil {
				return err
			}
			st, err := svc.queries.Stats(cmd.Context(), b.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if st.Total == 0 {
				fmt.Fprintf(out, "No reviews for %s\n", b.Name)
				return nil
			}
			rows := [][]string{
				{"Total reviews", strconv.Itoa(st.Total)},
				{"Average rating", fmt.Sprintf("%.2f", st.AvgRating)},
				{"Positive", fmt.Sprintf("%d (%.1f%%)", st.Positive, st.PositivePct)},
				{"Neutral", fmt.Sprintf("%d (%.1f%%)", st.Neutral, st.NeutralPct)},
				{"Negative", fmt.Sprintf("%d (%.1f%%)", st.Negative, st.NegativePct)},
			}
			for _, src := range []domain.Source{domain.SourceTrustpilot, domain.SourceBBB, domain.SourceYelp, domain.SourceGoogle} {
				if n := st.BySource[src.String()]; n > 0 {
					rows = append(rows, []string{"From " + src.String(), strconv.Itoa(n)})
				}
			}
			fmt.Fprintf(out, "%s - Statistics\n", b.Name)
			fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <business>",
		Short: "Write every review of a business as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			b, err := resolveBusiness(cmd, svc, args[0])
			if err != nil {
				return err
			}
			rs, err := svc.queries.ListReviews(cmd.Context(), domain.ReviewQuery{BusinessID: b.ID})
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return app.WriteCSV(cmd.OutOrStdout(), rs)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			w := bufio.NewWriter(f)
			if err := app.WriteCSV(w, rs); err != nil {
				_ = f.Close()
				return err
			}
			if err := w.Flush(); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d reviews to %s\n", len(rs), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default stdout)")
	return cmd
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs <business>",
		Short: "Show recent scrape runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			b, err := resolveBusiness(cmd, svc, args[0])
			if err != nil {
				return err
			}
			runs, err := svc.queries.ScrapeRuns(cmd.Context(), b.ID, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No scrape runs yet.")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				errText := ""
				if r.Error != nil {
					errText = excerpt(r.Error, 60)
				}
				rows = append(rows, []string{
					strconv.FormatInt(r.ID, 10),
					r.Source.String(),
					string(r.Status),
					r.StartedAt.Format("2006-01-02 15:04"),
					strconv.Itoa(r.ReviewsFound),
					errText,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Source", "Status", "Started", "New", "Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Max runs to show")
	return cmd
}

func author(p *string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return "Anonymous"
	}
	return *p
}

func rating(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func reviewDate(r domain.Review) string {
	if r.ReviewDate != nil {
		return r.ReviewDate.Format("2006-01-02")
	}
	return r.IngestedAt.Format("2006-01-02")
}

func excerpt(p *string, n int) string {
	if p == nil {
		return ""
	}
	s := strings.Join(strings.Fields(*p), " ")
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}
