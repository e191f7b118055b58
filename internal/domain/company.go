package domain

import (
	"strings"
	"time"
)

// Status is the terminal outcome recorded for one company per crawl pass.
type Status string

const (
	StatusMatched      Status = "matched"
	StatusNoMatch      Status = "no_match"
	StatusNoCandidates Status = "no_candidates"
	StatusSkipped      Status = "skipped"
)

// Company is one row of the company store. Address parts are kept
// structured in the store; the crawl pipeline only ever sees the flat
// string from Address().
type Company struct {
	ID              int64      `json:"id"`
	CorporateNumber string     `json:"corporateNumber"`
	Name            string     `json:"name"`
	Prefecture      string     `json:"prefecture"`
	City            string     `json:"city"`
	Street          string     `json:"street"`
	HomepageURL     string     `json:"homepageUrl"`
	Capital         string     `json:"capital"`
	Industry        string     `json:"industry"`
	LastCheckedAt   *time.Time `json:"lastCheckedAt,omitempty"`
	LastStatus      string     `json:"lastStatus"`
	Skip            bool       `json:"skip"`
}

// Address joins the structured parts into the flat string used for
// search queries and fuzzy matching. Empty parts are dropped.
func (c Company) Address() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Prefecture, c.City, c.Street} {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "")
}
