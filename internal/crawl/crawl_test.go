package crawl

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/munthasirdevs/lead-scraping-automation/internal/config"
	"github.com/munthasirdevs/lead-scraping-automation/internal/extract"
	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
	"github.com/munthasirdevs/lead-scraping-automation/internal/session"
	"github.com/munthasirdevs/lead-scraping-automation/internal/throttle"
)

type fakeElement struct {
	attrs   map[string]string
	text    string
	html    string
	onClick func()
}

func (e *fakeElement) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}
func (e *fakeElement) Text(ctx context.Context) (string, error)      { return e.text, nil }
func (e *fakeElement) OuterHTML(ctx context.Context) (string, error) { return e.html, nil }
func (e *fakeElement) Click(ctx context.Context) error {
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

// fakePage scripts what one result page shows the session.
type fakePage struct {
	url      string
	blocks   []*fakeElement
	next     *fakeElement
	more     *fakeElement
	bodyText string
	feedText string
	blocked  bool
}

// fakeSession replays scripted pages. Navigation beyond the first call and
// next-control clicks move to the following page.
type fakeSession struct {
	pages      []*fakePage
	idx        int
	navigated  []string
	navCount   int
	queryErr   error
	detailBody string
	closed     bool
}

func (s *fakeSession) cur() *fakePage { return s.pages[s.idx] }

func (s *fakeSession) advance() {
	if s.idx+1 < len(s.pages) {
		s.idx++
	}
}

func (s *fakeSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	s.navigated = append(s.navigated, url)
	s.navCount++
	if s.navCount > 1 {
		s.advance()
	}
	return nil
}

func (s *fakeSession) QueryAll(ctx context.Context, selector string) ([]session.Element, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	out := make([]session.Element, 0, len(s.cur().blocks))
	for _, b := range s.cur().blocks {
		out = append(out, b)
	}
	return out, nil
}

func (s *fakeSession) QueryOne(ctx context.Context, selector string) (session.Element, error) {
	switch {
	case strings.Contains(selector, "captcha"):
		if s.cur().blocked {
			return &fakeElement{}, nil
		}
		return nil, nil
	case strings.Contains(selector, `aria-label="More"`):
		if s.cur().more == nil {
			return nil, nil
		}
		return s.cur().more, nil
	default:
		if s.cur().next == nil {
			return nil, nil
		}
		return s.cur().next, nil
	}
}

func (s *fakeSession) Evaluate(ctx context.Context, script string, out any) error {
	sp, _ := out.(*string)
	switch {
	case strings.Contains(script, "window.location.href"):
		if sp != nil {
			*sp = s.cur().url
		}
	case strings.Contains(script, "scrollBy"):
	case strings.Contains(script, "innerText.slice(-300)"):
		if sp != nil {
			*sp = s.cur().feedText
		}
	case strings.Contains(script, "document.body.innerText"):
		if sp != nil {
			*sp = s.cur().bodyText
		}
	}
	return nil
}

func (s *fakeSession) NewTab(ctx context.Context) (session.Session, error) {
	return &fakeTab{bodyText: s.detailBody}, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// fakeTab stands in for a detail-page tab: no structured attributes, just
// visible text for the regex pass.
type fakeTab struct {
	bodyText string
}

func (t *fakeTab) Navigate(ctx context.Context, url string, timeout time.Duration) error { return nil }
func (t *fakeTab) QueryAll(ctx context.Context, selector string) ([]session.Element, error) {
	return nil, nil
}
func (t *fakeTab) QueryOne(ctx context.Context, selector string) (session.Element, error) {
	return nil, nil
}
func (t *fakeTab) Evaluate(ctx context.Context, script string, out any) error {
	if sp, ok := out.(*string); ok {
		*sp = t.bodyText
	}
	return nil
}
func (t *fakeTab) NewTab(ctx context.Context) (session.Session, error) {
	return nil, errors.New("no nested tabs")
}
func (t *fakeTab) Close() error { return nil }

func testCrawlConfig(engine, target string) config.CrawlConfig {
	return config.CrawlConfig{
		Keywords:          "plumbers @gmail.com",
		Location:          "Chicago",
		Engine:            engine,
		Target:            target,
		MaxScrolls:        2,
		MaxPages:          3,
		ResultsLimit:      10,
		Headless:          true,
		NavTimeout:        time.Second,
		MinDelay:          time.Millisecond,
		MaxDelay:          time.Millisecond,
		MaxRetries:        1,
		RetryDelay:        time.Millisecond,
		BlockPollInterval: time.Millisecond,
		MaxBlockWait:      5 * time.Millisecond,
	}
}

func newPagedForTest(cfg config.CrawlConfig, surface PagedSurface, onLead func(leads.Lead)) *PagedController {
	limiter := throttle.NewLimiter(cfg.MinDelay, cfg.MaxDelay)
	retry := throttle.NewRetry(cfg.MaxRetries, cfg.RetryDelay, nil)
	gate := NewBlockGate(cfg.BlockPollInterval, cfg.MaxBlockWait, cfg.Headless, nil)
	c := NewPagedController(cfg, surface, limiter, retry, gate, nil, onLead)
	c.settle = 0
	return c
}

func emailBlock(name, email, site string) *fakeElement {
	return &fakeElement{
		text: name + " Contact us at " + email + " or (555) 123-4567",
		html: `<div class="g"><h3>` + name + `</h3><a href="` + site + `">` + site + `</a></div>`,
	}
}

func TestPagedEmailHarvestAcrossPages(t *testing.T) {
	sess := &fakeSession{}
	page1 := &fakePage{
		url: "https://www.google.com/search?q=plumbers",
		blocks: []*fakeElement{
			emailBlock("Acme Plumbing", "info@acmeplumbing.com", "https://acmeplumbing.com"),
			emailBlock("Drain Pros", "help@drainpros.net", "https://drainpros.net"),
		},
		next: &fakeElement{onClick: sess.advance},
	}
	page2 := &fakePage{
		url: "https://www.google.com/search?q=plumbers&start=10",
		blocks: []*fakeElement{
			emailBlock("Acme Plumbing", "info@acmeplumbing.com", "https://acmeplumbing.com"),
			emailBlock("Pipe Masters", "sales@pipemasters.org", "https://pipemasters.org"),
		},
	}
	sess.pages = []*fakePage{page1, page2}

	cfg := testCrawlConfig(config.EngineGoogle, config.TargetEmail)
	cfg.MaxPages = 2
	c := newPagedForTest(cfg, GoogleSurface, nil)

	state := NewState(cfg.Engine)
	got, err := c.Run(context.Background(), sess, state, "plumbers @gmail.com")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d leads, want 3: %+v", len(got), got)
	}
	first := got[0]
	if first.Email != "info@acmeplumbing.com" {
		t.Errorf("email = %q", first.Email)
	}
	if first.BusinessName != "Acme Plumbing" {
		t.Errorf("name = %q", first.BusinessName)
	}
	if first.Website != "https://acmeplumbing.com" {
		t.Errorf("website = %q", first.Website)
	}
	if first.PhoneNumber == "" {
		t.Error("phone not extracted")
	}
	if first.Source != leads.SourceGoogle {
		t.Errorf("source = %q", first.Source)
	}
	if got[2].Email != "sales@pipemasters.org" {
		t.Errorf("page 2 lead email = %q", got[2].Email)
	}
}

func TestPagedNeverExceedsResultsLimit(t *testing.T) {
	blocks := []*fakeElement{
		emailBlock("A", "a@one.com", "https://one.com"),
		emailBlock("B", "b@two.com", "https://two.com"),
		emailBlock("C", "c@three.com", "https://three.com"),
		emailBlock("D", "d@four.com", "https://four.com"),
	}
	sess := &fakeSession{pages: []*fakePage{{blocks: blocks}}}

	cfg := testCrawlConfig(config.EngineGoogle, config.TargetEmail)
	cfg.ResultsLimit = 2

	var seen int
	c := newPagedForTest(cfg, GoogleSurface, func(leads.Lead) { seen++ })
	state := NewState(cfg.Engine)
	got, err := c.Run(context.Background(), sess, state, "q")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 || state.EmittedCount != 2 || seen != 2 {
		t.Fatalf("got %d leads, emitted %d, callbacks %d; want 2 each", len(got), state.EmittedCount, seen)
	}
}

func TestPagedAdvanceFallsBackToURLRewrite(t *testing.T) {
	sess := &fakeSession{pages: []*fakePage{
		{
			url:    "https://www.google.com/search?q=q",
			blocks: []*fakeElement{emailBlock("A", "a@one.com", "https://one.com")},
		},
		{
			url:    "https://www.google.com/search?q=q&start=10",
			blocks: []*fakeElement{emailBlock("B", "b@two.com", "https://two.com")},
		},
	}}

	cfg := testCrawlConfig(config.EngineGoogle, config.TargetEmail)
	cfg.MaxPages = 2
	c := newPagedForTest(cfg, GoogleSurface, nil)

	got, err := c.Run(context.Background(), sess, NewState(cfg.Engine), "q")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d leads, want 2", len(got))
	}
	want := "https://www.google.com/search?q=q&start=10"
	if len(sess.navigated) != 2 || sess.navigated[1] != want {
		t.Fatalf("navigated = %v, want second entry %q", sess.navigated, want)
	}
}

func TestPagedProfileTarget(t *testing.T) {
	valid := &fakeElement{
		text: "Joe's Pizza on Instagram",
		html: `<li class="b_algo"><h2>Joe's Pizza (@joespizza)</h2><a href="https://www.instagram.com/joespizza/">profile</a></li>`,
	}
	loginPage := &fakeElement{
		text: "Log in",
		html: `<li class="b_algo"><a href="https://www.instagram.com/accounts/login/">login</a></li>`,
	}
	duplicate := &fakeElement{
		text: "Joe's Pizza again",
		html: `<li class="b_algo"><a href="https://www.instagram.com/joespizza/">profile</a></li>`,
	}
	sess := &fakeSession{pages: []*fakePage{{blocks: []*fakeElement{valid, loginPage, duplicate}}}}

	cfg := testCrawlConfig(config.EngineBing, config.TargetProfile)
	cfg.MaxPages = 1
	c := newPagedForTest(cfg, BingSurface, nil)

	got, err := c.Run(context.Background(), sess, NewState(cfg.Engine), "joes pizza instagram")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d leads, want 1: %+v", len(got), got)
	}
	if got[0].Website != "https://www.instagram.com/joespizza/" {
		t.Errorf("website = %q", got[0].Website)
	}
	if got[0].BusinessName == "" {
		t.Error("business name empty, want title or URL-derived name")
	}
	if got[0].Source != leads.SourceBing {
		t.Errorf("source = %q", got[0].Source)
	}
}

func TestPagedBlockedHeadlessReturnsErrBlocked(t *testing.T) {
	sess := &fakeSession{pages: []*fakePage{{
		bodyText: "Our systems have detected unusual traffic from your computer network.",
		blocked:  false,
	}}}

	cfg := testCrawlConfig(config.EngineGoogle, config.TargetEmail)
	c := newPagedForTest(cfg, GoogleSurface, nil)

	got, err := c.Run(context.Background(), sess, NewState(cfg.Engine), "q")
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("err = %v, want ErrBlocked", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d leads before block, want 0", len(got))
	}
}

func TestPagedSoftStopOnLostPage(t *testing.T) {
	sess := &fakeSession{
		pages:    []*fakePage{{}},
		queryErr: errors.New("target closed"),
	}
	cfg := testCrawlConfig(config.EngineGoogle, config.TargetEmail)
	c := newPagedForTest(cfg, GoogleSurface, nil)

	got, err := c.Run(context.Background(), sess, NewState(cfg.Engine), "q")
	if err != nil {
		t.Fatalf("lost page should be a soft stop, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d leads, want 0", len(got))
	}
}

func newScrollForTest(cfg config.CrawlConfig, onLead func(leads.Lead)) *ScrollController {
	limiter := throttle.NewLimiter(cfg.MinDelay, cfg.MaxDelay)
	retry := throttle.NewRetry(cfg.MaxRetries, cfg.RetryDelay, nil)
	gate := NewBlockGate(cfg.BlockPollInterval, cfg.MaxBlockWait, cfg.Headless, nil)
	detail := extract.NewDetailScraper(cfg.NavTimeout, nil)
	detail.SetSettle(0)
	c := NewScrollController(cfg, limiter, retry, gate, detail, nil, onLead)
	c.settle = 0
	c.pause = func(context.Context, time.Duration) error { return nil }
	return c
}

func listing(name, href string) *fakeElement {
	return &fakeElement{attrs: map[string]string{
		"aria-label": name + " - 4.5 stars - Restaurant",
		"href":       href,
	}}
}

func TestScrollCollectsAndDedupsByName(t *testing.T) {
	sess := &fakeSession{
		pages: []*fakePage{{blocks: []*fakeElement{
			listing("Joe's Pizza", "https://maps.example.com/place/1"),
			listing("Joe's Pizza", "https://maps.example.com/place/2"),
			listing("Sushi Bar", "https://maps.example.com/place/3"),
		}}},
		detailBody: "Call us at (312) 555-0142. Visit https://joespizza.com today.",
	}

	cfg := testCrawlConfig(config.EngineMaps, config.TargetEmail)
	c := newScrollForTest(cfg, nil)

	state := NewState(cfg.Engine)
	got, err := c.Run(context.Background(), sess, state)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d leads, want 2 (name dedup): %+v", len(got), got)
	}
	if got[0].BusinessName != "Joe's Pizza" || got[1].BusinessName != "Sushi Bar" {
		t.Errorf("names = %q, %q", got[0].BusinessName, got[1].BusinessName)
	}
	if got[0].PhoneNumber == "" {
		t.Error("detail phone not extracted")
	}
	if got[0].Website != "https://joespizza.com" {
		t.Errorf("website = %q", got[0].Website)
	}
}

func TestScrollStopsAtEndOfListMarker(t *testing.T) {
	sess := &fakeSession{
		pages: []*fakePage{{
			blocks:   []*fakeElement{listing("Solo Cafe", "https://maps.example.com/place/9")},
			feedText: "Solo Cafe ... You've reached the end of the list.",
		}},
	}
	cfg := testCrawlConfig(config.EngineMaps, config.TargetEmail)
	cfg.MaxScrolls = 10
	c := newScrollForTest(cfg, nil)

	state := NewState(cfg.Engine)
	got, err := c.Run(context.Background(), sess, state)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d leads, want 1", len(got))
	}
	if state.Cursor != 1 {
		t.Errorf("cursor = %d, want 1 (stopped at marker)", state.Cursor)
	}
}

func TestScrollNeverExceedsResultsLimit(t *testing.T) {
	sess := &fakeSession{
		pages: []*fakePage{{blocks: []*fakeElement{
			listing("One", "https://maps.example.com/place/1"),
			listing("Two", "https://maps.example.com/place/2"),
			listing("Three", "https://maps.example.com/place/3"),
		}}},
	}
	cfg := testCrawlConfig(config.EngineMaps, config.TargetEmail)
	cfg.ResultsLimit = 1
	c := newScrollForTest(cfg, nil)

	state := NewState(cfg.Engine)
	got, err := c.Run(context.Background(), sess, state)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || state.EmittedCount != 1 {
		t.Fatalf("got %d leads, emitted %d; want 1 each", len(got), state.EmittedCount)
	}
}

func TestScrollSoftStopOnLostPage(t *testing.T) {
	sess := &fakeSession{
		pages:    []*fakePage{{}},
		queryErr: errors.New("target closed"),
	}
	cfg := testCrawlConfig(config.EngineMaps, config.TargetEmail)
	c := newScrollForTest(cfg, nil)

	got, err := c.Run(context.Background(), sess, NewState(cfg.Engine))
	if err != nil {
		t.Fatalf("lost page should be a soft stop, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d leads, want 0", len(got))
	}
}

type fakeAcquirer struct {
	sess     *fakeSession
	err      error
	released bool
}

func (a *fakeAcquirer) Acquire(ctx context.Context) (session.Session, func(), error) {
	if a.err != nil {
		return nil, nil, a.err
	}
	return a.sess, func() { a.released = true }, nil
}

func TestOrchestratorRunsPipelineAndReleasesSession(t *testing.T) {
	sess := &fakeSession{pages: []*fakePage{{blocks: []*fakeElement{
		emailBlock("Acme Plumbing", "info@acmeplumbing.com", "https://acmeplumbing.com"),
		emailBlock("Acme Plumbing LLC", "boss@acmeplumbing.com", "https://acmeplumbing.com"),
	}}}}
	acq := &fakeAcquirer{sess: sess}

	cfg := testCrawlConfig(config.EngineGoogle, config.TargetEmail)
	cfg.MaxPages = 1
	o := NewOrchestrator(cfg, acq, nil)

	res, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !acq.released {
		t.Error("session was not released")
	}
	if res.RunID == "" {
		t.Error("run id missing")
	}
	if res.RawCount != 2 {
		t.Errorf("raw count = %d, want 2", res.RawCount)
	}
	// Website dedup collapses the two raw leads into one clean lead.
	if len(res.Leads) != 1 {
		t.Fatalf("clean leads = %d, want 1: %+v", len(res.Leads), res.Leads)
	}
}

func TestOrchestratorSessionLaunchFailureIsFatal(t *testing.T) {
	acq := &fakeAcquirer{err: errors.New("chrome not found")}
	cfg := testCrawlConfig(config.EngineGoogle, config.TargetEmail)
	o := NewOrchestrator(cfg, acq, nil)

	_, err := o.Run(context.Background())
	if !errors.Is(err, ErrSessionLost) {
		t.Fatalf("err = %v, want ErrSessionLost", err)
	}
}
