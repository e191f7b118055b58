package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"urlfinder-engine/internal/domain"
)

// PageFilter narrows which companies a crawl pass sees. Rows with the
// skip flag set are always excluded.
type PageFilter struct {
	Region string
	// MissingHomepageOnly restricts the page to rows without a
	// homepage URL (the skip-existing job option).
	MissingHomepageOnly bool
	// RecheckNotFoundDays, when positive, hides no_match/no_candidates
	// rows that were checked within the window so failed lookups are
	// not retried on every run.
	RecheckNotFoundDays int
}

// FetchPage returns one page of companies ordered missing-homepage
// first, then by id.
func (s *Store) FetchPage(ctx context.Context, f PageFilter, limit, offset int) ([]domain.Company, error) {
	var (
		conds = []string{"skip = 0"}
		args  []any
	)

	if f.Region != "" {
		conds = append(conds, "prefecture = ?")
		args = append(args, f.Region)
	}
	if f.MissingHomepageOnly {
		conds = append(conds, "(homepage_url IS NULL OR homepage_url = '')")
		if f.RecheckNotFoundDays > 0 {
			conds = append(conds, `NOT (
  last_status IN ('no_match', 'no_candidates')
  AND last_checked_at >= datetime('now', ?)
)`)
			args = append(args, fmt.Sprintf("-%d days", f.RecheckNotFoundDays))
		}
	}

	query := fmt.Sprintf(`
SELECT id, corporate_number, name, prefecture, city, street,
       homepage_url, capital, industry, last_checked_at, last_status, skip
FROM companies
WHERE %s
ORDER BY (homepage_url IS NOT NULL AND homepage_url != ''), id
LIMIT ? OFFSET ?;
`, strings.Join(conds, "\n  AND "))
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch companies page: %w", err)
	}
	defer rows.Close()

	var out []domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCompany(rows *sql.Rows) (domain.Company, error) {
	var (
		c         domain.Company
		homepage  sql.NullString
		capital   sql.NullString
		industry  sql.NullString
		checkedAt sql.NullString
		status    sql.NullString
		skip      int
	)
	if err := rows.Scan(
		&c.ID, &c.CorporateNumber, &c.Name, &c.Prefecture, &c.City, &c.Street,
		&homepage, &capital, &industry, &checkedAt, &status, &skip,
	); err != nil {
		return domain.Company{}, err
	}
	c.HomepageURL = homepage.String
	c.Capital = capital.String
	c.Industry = industry.String
	c.LastStatus = status.String
	c.Skip = skip != 0
	if checkedAt.Valid {
		if t, err := time.Parse(time.RFC3339, checkedAt.String); err == nil {
			c.LastCheckedAt = &t
		}
	}
	return c, nil
}

// Outcome is the terminal result persisted for one company per pass.
// Empty strings are stored as NULL.
type Outcome struct {
	HomepageURL string
	Capital     string
	Industry    string
	Status      domain.Status
}

func (s *Store) UpdateOutcome(ctx context.Context, id int64, o Outcome) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE companies
SET homepage_url = ?,
    capital = ?,
    industry = ?,
    last_status = ?,
    last_checked_at = ?
WHERE id = ?;
`, nullable(o.HomepageURL), nullable(o.Capital), nullable(o.Industry),
		string(o.Status), now(), id)
	if err != nil {
		return fmt.Errorf("update company outcome: %w", err)
	}
	return nil
}

// MarkChecked records a status and timestamp without touching the
// homepage or extracted fields (used for skipped companies).
func (s *Store) MarkChecked(ctx context.Context, id int64, status domain.Status) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE companies
SET last_status = ?, last_checked_at = ?
WHERE id = ?;
`, string(status), now(), id)
	if err != nil {
		return fmt.Errorf("mark company checked: %w", err)
	}
	return nil
}

// UpsertCompanies inserts registry rows, updating on a duplicate
// corporate number instead of failing.
func (s *Store) UpsertCompanies(ctx context.Context, companies []domain.Company) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range companies {
		if strings.TrimSpace(c.CorporateNumber) == "" || strings.TrimSpace(c.Name) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO companies(corporate_number, name, prefecture, city, street, homepage_url)
VALUES(?,?,?,?,?,?)
ON CONFLICT(corporate_number) DO UPDATE SET
  name = excluded.name,
  prefecture = excluded.prefecture,
  city = excluded.city,
  street = excluded.street;
`, c.CorporateNumber, c.Name, c.Prefecture, c.City, c.Street, nullable(c.HomepageURL)); err != nil {
			return fmt.Errorf("upsert company %s: %w", c.CorporateNumber, err)
		}
	}
	return tx.Commit()
}

// ListRegions returns the distinct non-empty prefectures present.
func (s *Store) ListRegions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT prefecture
FROM companies
WHERE prefecture != ''
ORDER BY prefecture;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountMissing reports how many companies still lack a homepage URL,
// and the total, optionally restricted to one region.
func (s *Store) CountMissing(ctx context.Context, region string) (missing, total int, err error) {
	query := `
SELECT
  SUM(CASE WHEN homepage_url IS NULL OR homepage_url = '' THEN 1 ELSE 0 END),
  COUNT(*)
FROM companies
WHERE skip = 0`
	var args []any
	if region != "" {
		query += " AND prefecture = ?"
		args = append(args, region)
	}

	var missingN sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query+";", args...).Scan(&missingN, &total); err != nil {
		return 0, 0, fmt.Errorf("count missing: %w", err)
	}
	return int(missingN.Int64), total, nil
}

func nullable(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
