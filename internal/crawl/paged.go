package crawl

import (
	"context"
	"errors"
	"time"

	"github.com/munthasirdevs/lead-scraping-automation/internal/config"
	"github.com/munthasirdevs/lead-scraping-automation/internal/extract"
	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
	"github.com/munthasirdevs/lead-scraping-automation/internal/session"
	"github.com/munthasirdevs/lead-scraping-automation/internal/throttle"
	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
)

// ErrNoMorePages reports that neither a next control nor a URL rewrite could
// advance the surface.
var ErrNoMorePages = errors.New("no more result pages")

// PagedController drives the paged-results surfaces. All three engines share
// this control flow; the differences live in the PagedSurface data.
type PagedController struct {
	cfg     config.CrawlConfig
	surface PagedSurface
	limiter *throttle.Limiter
	retry   *throttle.Retry
	gate    *BlockGate
	log     *logger.Logger
	onLead  func(leads.Lead)

	settle time.Duration
	pause  func(ctx context.Context, d time.Duration) error
}

// NewPagedController creates a controller for one paged surface.
func NewPagedController(cfg config.CrawlConfig, surface PagedSurface, limiter *throttle.Limiter, retry *throttle.Retry, gate *BlockGate, log *logger.Logger, onLead func(leads.Lead)) *PagedController {
	if log == nil {
		log = logger.Discard()
	}
	return &PagedController{
		cfg:     cfg,
		surface: surface,
		limiter: limiter,
		retry:   retry,
		gate:    gate,
		log:     log.WithComponent("paged").WithFields(map[string]any{"surface": surface.Name}),
		onLead:  onLead,
		settle:  2 * time.Second,
		pause:   pauseCtx,
	}
}

// Run walks result pages for the query until the page ceiling, the results
// limit, or the surface runs out. A page that cannot advance or disappears
// is a soft stop: partial results with a nil error. Block-gate expiry and
// cancellation return the partial batch alongside the error.
func (c *PagedController) Run(ctx context.Context, sess session.Session, state *State, query string) ([]leads.Lead, error) {
	var collected []leads.Lead

	searchURL := c.surface.SearchURL(query)
	c.log.Info("starting paged crawl", "query", query, "url", searchURL)

	err := c.retry.Do(ctx, "open search page", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return sess.Navigate(ctx, searchURL, c.cfg.NavTimeout)
	})
	if err != nil {
		return collected, err
	}
	if err := c.pause(ctx, c.settle); err != nil {
		return collected, err
	}

	for page := 1; page <= c.cfg.MaxPages; page++ {
		select {
		case <-ctx.Done():
			return collected, ctx.Err()
		default:
		}

		if c.gate.Detect(ctx, sess) {
			if err := c.gate.Wait(ctx, sess); err != nil {
				return collected, err
			}
		}

		blocks, err := sess.QueryAll(ctx, c.surface.ResultSelector)
		if err != nil {
			c.log.WithError(err).Warn("result query failed, stopping with partial results")
			return collected, nil
		}
		c.log.Info("scanning result page", "page", page, "blocks", len(blocks))

		for _, block := range blocks {
			for _, lead := range c.harvest(ctx, state, block) {
				collected = append(collected, lead)
				state.EmittedCount++
				if c.onLead != nil {
					c.onLead(lead)
				}
				c.log.Info("lead collected",
					"business", lead.BusinessName, "email", lead.Email, "total", state.EmittedCount)
				if state.EmittedCount >= c.cfg.ResultsLimit {
					c.log.Info("results limit reached", "limit", c.cfg.ResultsLimit)
					return collected, nil
				}
			}
		}

		state.AttemptedPages++
		state.Cursor = page
		if page == c.cfg.MaxPages {
			break
		}

		if err := c.advance(ctx, sess, page); err != nil {
			if errors.Is(err, ErrNoMorePages) {
				c.log.Info("surface exhausted", "pages", page)
				return collected, nil
			}
			if ctx.Err() != nil {
				return collected, ctx.Err()
			}
			c.log.WithError(err).Warn("page advance failed, stopping with partial results")
			return collected, nil
		}
		if err := c.pause(ctx, c.settle); err != nil {
			return collected, err
		}
	}

	c.log.Info("page ceiling reached", "pages", state.AttemptedPages, "leads", len(collected))
	return collected, nil
}

// harvest extracts zero or more leads from one result block, applying the
// surface target's acceptance rule and the run-scoped dedup keys. Broken
// blocks are skipped, never fatal.
func (c *PagedController) harvest(ctx context.Context, state *State, block session.Element) []leads.Lead {
	text, err := block.Text(ctx)
	if err != nil {
		c.log.Debug("block text unreadable")
		return nil
	}
	html, err := block.OuterHTML(ctx)
	if err != nil {
		c.log.Debug("block html unreadable")
		return nil
	}

	switch c.cfg.Target {
	case config.TargetProfile:
		return c.harvestProfile(state, text, html)
	default:
		return c.harvestEmails(state, text, html)
	}
}

// harvestEmails accepts a block only when it contains an unseen,
// non-placeholder email address.
func (c *PagedController) harvestEmails(state *State, text, html string) []leads.Lead {
	var out []leads.Lead
	for _, email := range extract.Emails(text) {
		if state.Seen(email) {
			continue
		}
		state.MarkSeen(email)

		lead := leads.Lead{Email: email, Source: c.surface.Name}
		if title := extract.Title(html, c.surface.TitleSelectors...); title.Found {
			lead.BusinessName = leads.TruncateName(title.Value)
		}
		if site := extract.FirstExternalLink(html); site.Found {
			lead.Website = site.Value
		}
		if lead.BusinessName == "" && lead.Website != "" {
			lead.BusinessName = extract.NameFromURL(lead.Website)
		}
		if phone := extract.Phone(text); phone.Found {
			lead.PhoneNumber = phone.Value
		}
		out = append(out, lead)
	}
	return out
}

// harvestProfile accepts a block only when its first link is an unseen,
// well-formed social profile URL.
func (c *PagedController) harvestProfile(state *State, text, html string) []leads.Lead {
	link := extract.FirstLink(html)
	if !link.Found || !extract.IsValidProfileURL(link.Value) {
		return nil
	}
	if state.Seen(link.Value) {
		return nil
	}
	state.MarkSeen(link.Value)

	lead := leads.Lead{Website: link.Value, Source: c.surface.Name}
	if title := extract.Title(html, c.surface.TitleSelectors...); title.Found {
		lead.BusinessName = leads.TruncateName(title.Value)
	}
	if lead.BusinessName == "" {
		lead.BusinessName = extract.NameFromURL(link.Value)
	}
	if email := extract.Email(text); email.Found {
		lead.Email = email.Value
	}
	if phone := extract.Phone(text); phone.Found {
		lead.PhoneNumber = phone.Value
	}
	return []leads.Lead{lead}
}

// advance moves to the next result page: first by clicking one of the
// surface's next controls, then by rewriting the pagination parameter in the
// current URL. pageNum is the 1-based page being left.
func (c *PagedController) advance(ctx context.Context, sess session.Session, pageNum int) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	for _, sel := range c.surface.NextSelectors {
		el, err := sess.QueryOne(ctx, sel)
		if err != nil || el == nil {
			continue
		}
		if err := el.Click(ctx); err != nil {
			c.log.Debug("next control click failed", "selector", sel)
			continue
		}
		return nil
	}

	var current string
	if err := sess.Evaluate(ctx, "window.location.href", &current); err != nil || current == "" {
		return ErrNoMorePages
	}
	next := c.surface.RewriteURL(current, pageNum)
	if next == current {
		return ErrNoMorePages
	}
	c.log.Debug("advancing via url rewrite", "url", next)
	if err := sess.Navigate(ctx, next, c.cfg.NavTimeout); err != nil {
		return ErrNoMorePages
	}
	return nil
}
