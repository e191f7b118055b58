package crawl

import (
	"context"
	"log"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"urlfinder-engine/internal/domain"
	"urlfinder-engine/internal/events"
	"urlfinder-engine/internal/jobs"
	"urlfinder-engine/internal/llm"
	"urlfinder-engine/internal/store"
)

// Pipeline drives one crawl job: page companies out of the store, fan
// out bounded per-company tasks, persist each terminal outcome.
type Pipeline struct {
	store    *store.Store
	searcher Searcher
	fetcher  *Fetcher
	verifier llm.Verifier
	hub      *events.Hub

	recheckNotFoundDays int
}

func NewPipeline(st *store.Store, searcher Searcher, fetcher *Fetcher, verifier llm.Verifier, hub *events.Hub, recheckNotFoundDays int) *Pipeline {
	return &Pipeline{
		store:               st,
		searcher:            searcher,
		fetcher:             fetcher,
		verifier:            verifier,
		hub:                 hub,
		recheckNotFoundDays: recheckNotFoundDays,
	}
}

// Run processes the whole job and returns when every scheduled company
// has reached a terminal state. A single company's failure is counted,
// never fatal; the job always runs to completion.
func (p *Pipeline) Run(ctx context.Context, state *jobs.State) {
	cfg := state.Config()
	filter := store.PageFilter{
		Region:              cfg.Region,
		MissingHomepageOnly: cfg.SkipExisting,
		RecheckNotFoundDays: p.recheckNotFoundDays,
	}

	offset := 0
	fetched := 0
	scheduled := 0

	for {
		batch, err := p.store.FetchPage(ctx, filter, cfg.ChunkSize, offset)
		if err != nil {
			log.Printf("[pipeline] store page failed job=%s offset=%d err=%v", state.ID(), offset, err)
			state.Update(func(pr *jobs.Progress) {
				pr.Logf("store error, aborting batch loop: %v", err)
			})
			break
		}
		offset += cfg.ChunkSize
		if len(batch) == 0 {
			break
		}

		fetched += len(batch)
		total := fetched
		if cfg.Limit > 0 && total > cfg.Limit {
			total = cfg.Limit
		}
		state.Update(func(pr *jobs.Progress) { pr.Total = total })

		var g errgroup.Group
		g.SetLimit(cfg.Concurrency)
		for _, company := range batch {
			if cfg.Limit > 0 && scheduled >= cfg.Limit {
				break
			}
			scheduled++
			c := company
			g.Go(func() error {
				p.processCompany(ctx, state, c)
				p.publishProgress(state)
				return nil
			})
		}
		_ = g.Wait()

		if cfg.Limit > 0 && scheduled >= cfg.Limit {
			break
		}
	}

	state.Update(func(pr *jobs.Progress) { pr.Logf("job complete") })
	state.MarkDone()
	if p.hub != nil {
		p.hub.Publish(events.MakeEvent("job_done", state.Snapshot()))
	}
}

// processCompany walks one company through
// PENDING -> SEARCHING -> (NO_CANDIDATES | FETCHING) -> (MATCHED | NO_MATCH),
// or straight to SKIPPED. Exactly one terminal transition increments
// processed and appends one log line.
func (p *Pipeline) processCompany(ctx context.Context, state *jobs.State, c domain.Company) {
	if state.Config().SkipExisting && c.HomepageURL != "" {
		if err := p.store.MarkChecked(ctx, c.ID, domain.StatusSkipped); err != nil {
			log.Printf("[pipeline] mark skipped failed id=%d err=%v", c.ID, err)
		}
		state.Update(func(pr *jobs.Progress) {
			pr.Skipped++
			pr.Processed++
			pr.Logf("skipped, homepage already set: %s (%s)", c.Name, c.CorporateNumber)
		})
		return
	}

	state.Update(func(pr *jobs.Progress) {
		pr.Logf("searching: %s (%s)", c.Name, c.CorporateNumber)
	})

	address := c.Address()
	candidates := p.searcher.Search(ctx, c.Name, address)

	if len(candidates) == 0 {
		p.persist(ctx, c.ID, store.Outcome{Status: domain.StatusNoCandidates})
		state.Update(func(pr *jobs.Progress) {
			pr.Failures++
			pr.Processed++
			pr.Logf("no candidate URLs found: %s", c.Name)
		})
		return
	}

	// strict ranked order, first match wins
	for _, candidate := range candidates {
		doc := p.fetcher.Fetch(ctx, candidate)
		if doc == nil {
			continue
		}
		res, ok := p.verifyCandidate(ctx, doc, c, address, candidate)
		if !ok {
			continue
		}

		p.persist(ctx, c.ID, store.Outcome{
			HomepageURL: res.HomepageURL,
			Capital:     res.Capital,
			Industry:    res.Industry,
			Status:      domain.StatusMatched,
		})
		state.Update(func(pr *jobs.Progress) {
			pr.Successes++
			pr.Processed++
			pr.Logf("matched: %s -> %s", c.Name, res.HomepageURL)
		})
		return
	}

	p.persist(ctx, c.ID, store.Outcome{Status: domain.StatusNoMatch})
	state.Update(func(pr *jobs.Progress) {
		pr.Failures++
		pr.Processed++
		pr.Logf("no matching page: %s", c.Name)
	})
}

// verifyCandidate runs the deterministic extractor and, only when it
// declines, the optional secondary verifier.
func (p *Pipeline) verifyCandidate(ctx context.Context, doc *goquery.Document, c domain.Company, address, candidateURL string) (Result, bool) {
	res := AnalyzePage(doc, candidateURL, c.Name, address)
	if res.Matched {
		return res, true
	}
	if !p.verifier.Enabled() {
		return Result{}, false
	}

	verdict := p.verifier.Validate(ctx, llm.Request{
		CompanyName: c.Name,
		Address:     address,
		PageText:    VisibleText(doc),
	})
	if verdict == llm.Match {
		res.Matched = true
		res.HomepageURL = candidateURL
		return res, true
	}
	return Result{}, false
}

func (p *Pipeline) persist(ctx context.Context, id int64, o store.Outcome) {
	if err := p.store.UpdateOutcome(ctx, id, o); err != nil {
		log.Printf("[pipeline] persist outcome failed id=%d status=%s err=%v", id, o.Status, err)
	}
}

func (p *Pipeline) publishProgress(state *jobs.State) {
	if p.hub == nil {
		return
	}
	p.hub.Publish(events.MakeEvent("job_progress", state.Snapshot()))
}
