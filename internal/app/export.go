package app

import (
	"encoding/csv"
	"io"
	"strconv"

	"reviewhound/internal/domain"
)

var csvHeader = []string{"source", "author", "rating", "text", "date", "sentiment_score", "sentiment_label"}

// WriteCSV writes reviews in export order with a header row. Absent values
// are empty cells.
func WriteCSV(w io.Writer, rs []domain.Review) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rs {
		rec := []string{
			r.Source.String(),
			strOrEmpty(r.Author),
			"",
			strOrEmpty(r.Text),
			"",
			strconv.FormatFloat(r.SentimentScore, 'f', 4, 64),
			string(r.SentimentLabel),
		}
		if r.Rating != nil {
			rec[2] = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
		}
		if r.ReviewDate != nil {
			rec[4] = r.ReviewDate.Format("2006-01-02")
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
