package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/munthasirdevs/lead-scraping-automation/internal/config"
	"github.com/munthasirdevs/lead-scraping-automation/internal/extract"
	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
	"github.com/munthasirdevs/lead-scraping-automation/internal/session"
	"github.com/munthasirdevs/lead-scraping-automation/internal/throttle"
	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
)

const (
	listingSelector    = `a[href*="/maps/place"]`
	moreButtonSelector = `button[aria-label="More"]`
	endOfListMarker    = "you've reached the end of the list"
)

// humanScrollPauses and the increment formula mimic a person skimming a
// feed: uneven steps with an occasional upward correction.
var humanScrollPauses = []time.Duration{
	300 * time.Millisecond, 500 * time.Millisecond, 800 * time.Millisecond,
	400 * time.Millisecond, 600 * time.Millisecond, 700 * time.Millisecond,
	300 * time.Millisecond, 500 * time.Millisecond, 900 * time.Millisecond,
}

// scrollScript scrolls the feed sub-container when one exists, the window
// otherwise. Whole-window scrolling on a feed page moves nothing.
func scrollScript(amount int) string {
	return fmt.Sprintf(`(() => {
	const feed = document.querySelector('div[role="feed"]');
	if (feed) { feed.scrollBy(0, %d); return true; }
	window.scrollBy(0, %d);
	return false;
})()`, amount, amount)
}

// ScrollController drives the scroll-feed surface: scroll, re-query the
// listing collection, extract new items, repeat until a termination
// condition.
type ScrollController struct {
	cfg     config.CrawlConfig
	limiter *throttle.Limiter
	retry   *throttle.Retry
	gate    *BlockGate
	detail  *extract.DetailScraper
	log     *logger.Logger
	onLead  func(leads.Lead)

	settle time.Duration
	scroll func(ctx context.Context, sess session.Session, i int) error
	pause  func(ctx context.Context, d time.Duration) error
}

// NewScrollController creates the map-feed controller.
func NewScrollController(cfg config.CrawlConfig, limiter *throttle.Limiter, retry *throttle.Retry, gate *BlockGate, detail *extract.DetailScraper, log *logger.Logger, onLead func(leads.Lead)) *ScrollController {
	if log == nil {
		log = logger.Discard()
	}
	c := &ScrollController{
		cfg:     cfg,
		limiter: limiter,
		retry:   retry,
		gate:    gate,
		detail:  detail,
		log:     log.WithComponent("scroll-feed"),
		onLead:  onLead,
		settle:  2 * time.Second,
		pause:   pauseCtx,
	}
	c.scroll = c.humanScroll
	return c
}

// Run executes the scroll loop and returns accumulated raw leads. A page
// that disappears mid-run is a soft termination: partial results come back
// with a nil error. Only a block-gate expiry or cancellation returns an
// error, and even then alongside the partial batch.
func (c *ScrollController) Run(ctx context.Context, sess session.Session, state *State) ([]leads.Lead, error) {
	var collected []leads.Lead

	searchURL := MapsSearchURL(c.cfg.Keywords, c.cfg.Location)
	c.log.Info("navigating to map search", "url", searchURL)

	err := c.retry.Do(ctx, "open map search", func(ctx context.Context) error {
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
	if err := c.gate.Wait(ctx, sess); err != nil {
		return collected, err
	}

	seenHrefs := make(map[string]struct{})

	for state.Cursor < c.cfg.MaxScrolls {
		select {
		case <-ctx.Done():
			return collected, ctx.Err()
		default:
		}

		c.log.Info("scrolling feed", "scroll", state.Cursor+1, "max", c.cfg.MaxScrolls)

		if err := c.limiter.Wait(ctx); err != nil {
			return collected, err
		}
		if err := c.scroll(ctx, sess, state.Cursor); err != nil {
			c.log.WithError(err).Warn("feed scroll failed, stopping with partial results")
			return collected, nil
		}
		if err := c.pause(ctx, c.settle); err != nil {
			return collected, err
		}

		els, err := sess.QueryAll(ctx, listingSelector)
		if err != nil {
			c.log.WithError(err).Warn("listing query failed, stopping with partial results")
			return collected, nil
		}
		c.log.Debug("listings visible", "count", len(els))

		for _, el := range els {
			href, _ := el.Attribute("href")
			if href != "" {
				if _, dup := seenHrefs[href]; dup {
					continue
				}
				seenHrefs[href] = struct{}{}
			}

			lead, ok := c.detail.ListingDetails(ctx, sess, el)
			if !ok {
				continue
			}
			nameKey := strings.ToLower(lead.BusinessName)
			if state.Seen(nameKey) {
				continue
			}
			state.MarkSeen(nameKey)

			collected = append(collected, lead)
			state.EmittedCount++
			if c.onLead != nil {
				c.onLead(lead)
			}
			c.log.Info("lead collected",
				"business", lead.BusinessName, "phone", lead.PhoneNumber, "total", state.EmittedCount)

			if state.EmittedCount >= c.cfg.ResultsLimit {
				c.log.Info("results limit reached", "limit", c.cfg.ResultsLimit)
				return collected, nil
			}
		}

		state.Cursor++

		if c.atEndOfList(ctx, sess) {
			c.log.Info("end of list reached")
			return collected, nil
		}
		if c.gate.Detect(ctx, sess) {
			if err := c.gate.Wait(ctx, sess); err != nil {
				return collected, err
			}
		}
		c.clickMore(ctx, sess)
	}

	c.log.Info("scroll ceiling reached", "scrolls", state.Cursor, "leads", len(collected))
	return collected, nil
}

// humanScroll performs one human-like scroll pass over the feed container.
func (c *ScrollController) humanScroll(ctx context.Context, sess session.Session, _ int) error {
	for i, pauseFor := range humanScrollPauses {
		amount := 300 + (i*73)%500
		if err := sess.Evaluate(ctx, scrollScript(amount), nil); err != nil {
			return err
		}
		if err := c.pause(ctx, pauseFor); err != nil {
			return err
		}
		if i%3 == 0 {
			if err := sess.Evaluate(ctx, scrollScript(-100), nil); err != nil {
				return err
			}
			if err := c.pause(ctx, 200*time.Millisecond); err != nil {
				return err
			}
		}
	}
	return nil
}

// atEndOfList checks the explicit end-of-feed marker.
func (c *ScrollController) atEndOfList(ctx context.Context, sess session.Session) bool {
	var feedText string
	err := sess.Evaluate(ctx,
		`(() => { const f = document.querySelector('div[role="feed"]'); return f ? f.innerText.slice(-300) : ''; })()`,
		&feedText)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(feedText), endOfListMarker)
}

// clickMore tries the "More" control that loads further results. Absence is
// normal and not an error.
func (c *ScrollController) clickMore(ctx context.Context, sess session.Session) {
	el, err := sess.QueryOne(ctx, moreButtonSelector)
	if err != nil || el == nil {
		return
	}
	if err := el.Click(ctx); err != nil {
		c.log.Debug("more button click failed")
		return
	}
	_ = c.pause(ctx, c.settle)
	c.log.Debug("loaded more results")
}

func pauseCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
