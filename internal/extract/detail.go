package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
	"github.com/munthasirdevs/lead-scraping-automation/internal/session"
	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
)

// Structured attribute selectors on a map listing detail page.
const (
	phoneAttrSelector   = `button[data-item-id^="phone:tel:"]`
	websiteAttrSelector = `a[data-item-id="authority"]`
	addressAttrSelector = `button[data-item-id="address"]`
)

// DetailScraper extracts a lead from one map listing, opening the listing's
// detail page in a fresh tab. It is the only component that opens auxiliary
// pages, and never keeps two open at once.
type DetailScraper struct {
	navTimeout time.Duration
	settle     time.Duration
	log        *logger.Logger
}

// NewDetailScraper creates a detail scraper with the given navigation bound.
func NewDetailScraper(navTimeout time.Duration, log *logger.Logger) *DetailScraper {
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	return &DetailScraper{
		navTimeout: navTimeout,
		settle:     2500 * time.Millisecond,
		log:        log.WithComponent("extractor"),
	}
}

// SetSettle overrides the post-navigation settle pause (tests use zero).
func (d *DetailScraper) SetSettle(settle time.Duration) {
	d.settle = settle
}

// ListingDetails builds a partial lead from a map listing element. The name
// comes from the listing's accessible label; contact fields come from the
// detail page. A detail-page load failure still yields a name-only lead,
// because the name came from the listing itself. A missing or empty label
// yields ok=false and the listing is skipped.
func (d *DetailScraper) ListingDetails(ctx context.Context, sess session.Session, el session.Element) (leads.Lead, bool) {
	var lead leads.Lead

	if label, present := el.Attribute("aria-label"); present {
		name, _, _ := strings.Cut(label, " - ")
		lead.BusinessName = leads.TruncateName(name)
	}
	if lead.BusinessName == "" {
		return lead, false
	}

	href, present := el.Attribute("href")
	if !present || href == "" {
		return lead, false
	}

	if err := d.scrapeDetailPage(ctx, sess, href, &lead); err != nil {
		d.log.WithError(err).Debug("detail page failed, keeping name-only lead",
			"business", lead.BusinessName)
	}
	return lead, true
}

func (d *DetailScraper) scrapeDetailPage(ctx context.Context, sess session.Session, href string, lead *leads.Lead) error {
	tab, err := sess.NewTab(ctx)
	if err != nil {
		return fmt.Errorf("open detail tab: %w", err)
	}
	defer tab.Close()

	if err := tab.Navigate(ctx, href, d.navTimeout); err != nil {
		return err
	}
	if d.settle > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.settle):
		}
	}

	// Structured attributes first; each lookup failure is swallowed and the
	// field falls through to the regex pass.
	d.structuredFields(ctx, tab, lead)

	var bodyText string
	if err := tab.Evaluate(ctx, "document.body.innerText", &bodyText); err != nil {
		return err
	}
	d.regexFields(bodyText, lead)
	return nil
}

// structuredFields reads the known semantic attributes on a place page.
func (d *DetailScraper) structuredFields(ctx context.Context, tab session.Session, lead *leads.Lead) {
	if el, err := tab.QueryOne(ctx, phoneAttrSelector); err == nil && el != nil {
		if id, present := el.Attribute("data-item-id"); present {
			if phone := strings.TrimPrefix(id, "phone:tel:"); phone != id {
				lead.PhoneNumber = strings.TrimSpace(phone)
			}
		}
	}
	if el, err := tab.QueryOne(ctx, websiteAttrSelector); err == nil && el != nil {
		if href, present := el.Attribute("href"); present && href != "" {
			lead.Website = href
		}
	}
	if el, err := tab.QueryOne(ctx, addressAttrSelector); err == nil && el != nil {
		if label, present := el.Attribute("aria-label"); present {
			lead.Address = leads.TruncateAddress(strings.TrimPrefix(label, "Address: "))
		}
	}
}

// regexFields fills remaining fields from visible text, never overwriting a
// structured hit.
func (d *DetailScraper) regexFields(bodyText string, lead *leads.Lead) {
	if lead.PhoneNumber == "" {
		if o := Phone(bodyText); o.Found {
			lead.PhoneNumber = o.Value
		}
	}
	if lead.Website == "" {
		if o := Website(bodyText); o.Found {
			lead.Website = o.Value
		}
	}
	if lead.Address == "" {
		if o := Address(bodyText); o.Found {
			lead.Address = o.Value
		}
	}
	if lead.Email == "" {
		if o := Email(bodyText); o.Found {
			lead.Email = o.Value
		}
	}
}
