package mysql

// -----------------------------------------------------------------------------
// BUSINESSES
// -----------------------------------------------------------------------------

const businessColumns = `id, name, address, trustpilot_url, bbb_url, yelp_url, yelp_business_id, google_place_id, created_at`

const insertBusinessSQL = `
INSERT INTO businesses
  (name, address, trustpilot_url, bbb_url, yelp_url, yelp_business_id, google_place_id, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

const updateBusinessSQL = `
UPDATE businesses SET
  name             = ?,
  address          = ?,
  trustpilot_url   = ?,
  bbb_url          = ?,
  yelp_url         = ?,
  yelp_business_id = ?,
  google_place_id  = ?
WHERE id = ?
`

const getBusinessSQL = `SELECT ` + businessColumns + ` FROM businesses WHERE id = ?`

// First match by id keeps lookups by name fragment deterministic.
const findBusinessSQL = `SELECT ` + businessColumns + `
FROM businesses
WHERE name LIKE CONCAT('%', ?, '%')
ORDER BY id
LIMIT 1`

const listBusinessesSQL = `SELECT ` + businessColumns + ` FROM businesses ORDER BY id`

// -----------------------------------------------------------------------------
// REVIEWS
// -----------------------------------------------------------------------------

const reviewExistsSQL = `SELECT 1 FROM reviews WHERE source = ? AND external_id = ? LIMIT 1`

// Note: `text` is reserved; keep it quoted everywhere.
// The unique key on (source, external_id) rejects a second copy with error 1062.
const insertReviewSQL = "INSERT INTO reviews\n" +
	"  (business_id, source, external_id, author, rating, `text`, review_date, ingested_at, sentiment_score, sentiment_label)\n" +
	"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

const listReviewsPrefix = "SELECT id, business_id, source, external_id, author, rating, `text`, review_date, ingested_at, sentiment_score, sentiment_label\n" +
	"FROM reviews\nWHERE business_id = ?"

// Newest first; aligns with idx_reviews_business_ingested.
const listReviewsOrder = "\nORDER BY ingested_at DESC, id DESC"

// -----------------------------------------------------------------------------
// SCRAPE RUNS
// -----------------------------------------------------------------------------

const insertScrapeRunSQL = `
INSERT INTO scrape_runs (business_id, source, status, started_at, reviews_found)
VALUES (?, ?, ?, ?, 0)
`

// Only a running row may be finalized; zero affected rows means it already was.
const finishScrapeRunSQL = `
UPDATE scrape_runs SET
  status        = ?,
  completed_at  = ?,
  reviews_found = ?,
  error         = ?
WHERE id = ? AND status = 'running'
`

const scrapeRunExistsSQL = `SELECT 1 FROM scrape_runs WHERE id = ?`

const listScrapeRunsSQL = `
SELECT id, business_id, source, status, started_at, completed_at, reviews_found, error
FROM scrape_runs
WHERE business_id = ?
ORDER BY id DESC`

// -----------------------------------------------------------------------------
// ALERT RULES
// -----------------------------------------------------------------------------

const ruleColumns = `id, business_id, email, threshold, enabled`

const listEnabledRulesSQL = `SELECT ` + ruleColumns + ` FROM alert_configs WHERE business_id = ? AND enabled = TRUE ORDER BY id`

const listRulesSQL = `SELECT ` + ruleColumns + ` FROM alert_configs ORDER BY business_id, id`

const listRulesForBusinessSQL = `SELECT ` + ruleColumns + ` FROM alert_configs WHERE business_id = ? ORDER BY id`

const getRuleByEmailSQL = `SELECT ` + ruleColumns + ` FROM alert_configs WHERE business_id = ? AND email = ?`

// LAST_INSERT_ID(id) makes the update branch report the existing row id.
const upsertRuleSQL = `
INSERT INTO alert_configs (business_id, email, threshold, enabled)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  id        = LAST_INSERT_ID(id),
  threshold = VALUES(threshold),
  enabled   = VALUES(enabled)
`

// -----------------------------------------------------------------------------
// SETTINGS
// -----------------------------------------------------------------------------

const getSentimentPolicySQL = `SELECT rating_weight, text_weight, threshold FROM sentiment_config WHERE id = 1`

const upsertSentimentPolicySQL = `
INSERT INTO sentiment_config (id, rating_weight, text_weight, threshold)
VALUES (1, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  rating_weight = VALUES(rating_weight),
  text_weight   = VALUES(text_weight),
  threshold     = VALUES(threshold)
`

const listAPIConfigsSQL = `SELECT provider, api_key, enabled FROM api_configs ORDER BY provider`

const upsertAPIConfigSQL = `
INSERT INTO api_configs (provider, api_key, enabled)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  api_key = VALUES(api_key),
  enabled = VALUES(enabled)
`
