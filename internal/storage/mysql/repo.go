package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"reviewhound/internal/domain"
)

const errDupEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

func strOrNil(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timeOrNil(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func isDuplicate(err error) bool {
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

// Repo implements domain.Store on MySQL.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type scanner interface{ Scan(dest ...any) error }

/********** businesses **********/

func scanBusiness(s scanner) (domain.Business, error) {
	var b domain.Business
	var addr, tp, bbb, yelp, yelpID, placeID sql.NullString
	if err := s.Scan(&b.ID, &b.Name, &addr, &tp, &bbb, &yelp, &yelpID, &placeID, &b.CreatedAt); err != nil {
		return domain.Business{}, err
	}
	b.Address, b.TrustpilotURL, b.BBBURL = strOrNil(addr), strOrNil(tp), strOrNil(bbb)
	b.YelpURL, b.YelpBusinessID, b.GooglePlaceID = strOrNil(yelp), strOrNil(yelpID), strOrNil(placeID)
	return b, nil
}

func (r *Repo) CreateBusiness(ctx context.Context, b domain.Business) (int64, error) {
	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, insertBusinessSQL,
		b.Name, valStr(b.Address),
		valStr(b.TrustpilotURL), valStr(b.BBBURL), valStr(b.YelpURL),
		valStr(b.YelpBusinessID), valStr(b.GooglePlaceID),
		created,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateBusiness(ctx context.Context, b domain.Business) error {
	res, err := r.db.ExecContext(ctx, updateBusinessSQL,
		b.Name, valStr(b.Address),
		valStr(b.TrustpilotURL), valStr(b.BBBURL), valStr(b.YelpURL),
		valStr(b.YelpBusinessID), valStr(b.GooglePlaceID),
		b.ID,
	)
	if err != nil {
		return err
	}
	// MySQL reports 0 affected rows for an unchanged row, so confirm it exists.
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetBusiness(ctx, b.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) GetBusiness(ctx context.Context, id int64) (domain.Business, error) {
	b, err := scanBusiness(r.db.QueryRowContext(ctx, getBusinessSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Business{}, domain.ErrNotFound
	}
	return b, err
}

func (r *Repo) FindBusiness(ctx context.Context, frag string) (domain.Business, error) {
	b, err := scanBusiness(r.db.QueryRowContext(ctx, findBusinessSQL, frag))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Business{}, domain.ErrNotFound
	}
	return b, err
}

func (r *Repo) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	rows, err := r.db.QueryContext(ctx, listBusinessesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

/********** reviews **********/

func (r *Repo) ReviewExists(ctx context.Context, src domain.Source, externalID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, reviewExistsSQL, string(src), externalID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *Repo) InsertReview(ctx context.Context, rv domain.Review) (int64, error) {
	var reviewDate any
	if rv.ReviewDate != nil {
		reviewDate = rv.ReviewDate.UTC().Format("2006-01-02")
	}
	res, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.BusinessID,
		string(rv.Source),
		rv.ExternalID,
		valStr(rv.Author),
		valF64(rv.Rating),
		valStr(rv.Text),
		reviewDate,
		rv.IngestedAt.UTC(),
		rv.SentimentScore,
		string(rv.SentimentLabel),
	)
	if isDuplicate(err) {
		return 0, domain.ErrDuplicateReview
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListReviews applies the optional filters; a zero Limit returns every row.
func (r *Repo) ListReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, error) {
	var sb strings.Builder
	sb.WriteString(listReviewsPrefix)
	args := []any{q.BusinessID}
	if q.Source != nil {
		sb.WriteString(" AND source = ?")
		args = append(args, string(*q.Source))
	}
	if q.Label != nil {
		sb.WriteString(" AND sentiment_label = ?")
		args = append(args, string(*q.Label))
	}
	sb.WriteString(listReviewsOrder)
	if q.Limit > 0 {
		sb.WriteString("\nLIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var (
			rv         domain.Review
			src, label string
			author     sql.NullString
			rating     sql.NullFloat64
			text       sql.NullString
			reviewDate sql.NullTime
		)
		if err := rows.Scan(
			&rv.ID,
			&rv.BusinessID,
			&src,
			&rv.ExternalID,
			&author,
			&rating,
			&text,
			&reviewDate,
			&rv.IngestedAt,
			&rv.SentimentScore,
			&label,
		); err != nil {
			return nil, err
		}
		rv.Source = domain.Source(src)
		rv.SentimentLabel = domain.Label(label)
		rv.Author = strOrNil(author)
		rv.Text = strOrNil(text)
		rv.ReviewDate = timeOrNil(reviewDate)
		if rating.Valid {
			f := rating.Float64
			rv.Rating = &f
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

/********** scrape runs **********/

func (r *Repo) StartScrapeRun(ctx context.Context, run domain.ScrapeRun) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertScrapeRunSQL, run.BusinessID, string(run.Source), string(domain.RunRunning), run.StartedAt.UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) FinishScrapeRun(ctx context.Context, run domain.ScrapeRun) error {
	res, err := r.db.ExecContext(ctx, finishScrapeRunSQL,
		string(run.Status), valTime(run.CompletedAt), run.ReviewsFound, valStr(run.Error), run.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	if err := r.db.QueryRowContext(ctx, scrapeRunExistsSQL, run.ID).Scan(&one); errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	} else if err != nil {
		return err
	}
	return domain.ErrRunFinalized
}

func (r *Repo) ListScrapeRuns(ctx context.Context, businessID int64, limit int) ([]domain.ScrapeRun, error) {
	q, args := listScrapeRunsSQL, []any{businessID}
	if limit > 0 {
		q += "\nLIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ScrapeRun
	for rows.Next() {
		var (
			run          domain.ScrapeRun
			src, status  string
			completed    sql.NullTime
			errorMessage sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.BusinessID, &src, &status, &run.StartedAt, &completed, &run.ReviewsFound, &errorMessage); err != nil {
			return nil, err
		}
		run.Source = domain.Source(src)
		run.Status = domain.RunStatus(status)
		run.CompletedAt = timeOrNil(completed)
		run.Error = strOrNil(errorMessage)
		out = append(out, run)
	}
	return out, rows.Err()
}

/********** alert rules **********/

func (r *Repo) queryRules(ctx context.Context, q string, args ...any) ([]domain.NotificationRule, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NotificationRule
	for rows.Next() {
		var nr domain.NotificationRule
		if err := rows.Scan(&nr.ID, &nr.BusinessID, &nr.Email, &nr.Threshold, &nr.Enabled); err != nil {
			return nil, err
		}
		out = append(out, nr)
	}
	return out, rows.Err()
}

func (r *Repo) ListEnabledRules(ctx context.Context, businessID int64) ([]domain.NotificationRule, error) {
	return r.queryRules(ctx, listEnabledRulesSQL, businessID)
}

func (r *Repo) ListRules(ctx context.Context, businessID *int64) ([]domain.NotificationRule, error) {
	if businessID == nil {
		return r.queryRules(ctx, listRulesSQL)
	}
	return r.queryRules(ctx, listRulesForBusinessSQL, *businessID)
}

func (r *Repo) GetRuleByEmail(ctx context.Context, businessID int64, email string) (domain.NotificationRule, error) {
	var nr domain.NotificationRule
	err := r.db.QueryRowContext(ctx, getRuleByEmailSQL, businessID, email).
		Scan(&nr.ID, &nr.BusinessID, &nr.Email, &nr.Threshold, &nr.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotificationRule{}, domain.ErrNotFound
	}
	return nr, err
}

func (r *Repo) SaveRule(ctx context.Context, nr domain.NotificationRule) (int64, error) {
	res, err := r.db.ExecContext(ctx, upsertRuleSQL, nr.BusinessID, nr.Email, nr.Threshold, nr.Enabled)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

/********** settings **********/

func (r *Repo) GetSentimentPolicy(ctx context.Context) (domain.SentimentPolicy, bool, error) {
	var p domain.SentimentPolicy
	err := r.db.QueryRowContext(ctx, getSentimentPolicySQL).Scan(&p.RatingWeight, &p.TextWeight, &p.Threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SentimentPolicy{}, false, nil
	}
	if err != nil {
		return domain.SentimentPolicy{}, false, err
	}
	return p, true, nil
}

func (r *Repo) SaveSentimentPolicy(ctx context.Context, p domain.SentimentPolicy) error {
	_, err := r.db.ExecContext(ctx, upsertSentimentPolicySQL, p.RatingWeight, p.TextWeight, p.Threshold)
	return err
}

func (r *Repo) ListAPIConfigs(ctx context.Context) ([]domain.APIConfig, error) {
	rows, err := r.db.QueryContext(ctx, listAPIConfigsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.APIConfig
	for rows.Next() {
		var c domain.APIConfig
		if err := rows.Scan(&c.Provider, &c.APIKey, &c.Enabled); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) SaveAPIConfig(ctx context.Context, c domain.APIConfig) error {
	_, err := r.db.ExecContext(ctx, upsertAPIConfigSQL, c.Provider, c.APIKey, c.Enabled)
	return err
}
