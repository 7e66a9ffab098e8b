package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
)

// Manager launches browser sessions with a randomized fingerprint per
// acquisition. Release is returned alongside the session and must run on all
// exit paths; a launch failure is fatal to the run.
type Manager struct {
	headless      bool
	antiDetection bool
	log           *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewManager creates a session manager.
func NewManager(headless, antiDetection bool, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		headless:      headless,
		antiDetection: antiDetection,
		log:           log.WithComponent("session"),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Acquire launches a browser and returns the root page session along with a
// release function that closes all pages and the browser process.
func (m *Manager) Acquire(ctx context.Context) (Session, func(), error) {
	m.mu.Lock()
	fp := RandomFingerprint(m.rng)
	m.mu.Unlock()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("lang", fp.Locale),
		chromedp.UserAgent(fp.UserAgent),
		chromedp.WindowSize(fp.Width, fp.Height),
	)
	if m.antiDetection {
		opts = append(opts,
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.Flag("disable-infobars", true),
			chromedp.Flag("enable-automation", false),
		)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	release := func() {
		browserCancel()
		allocCancel()
	}

	// Start the browser process and apply per-session overrides.
	actions := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(int64(fp.Width), int64(fp.Height), 1, false),
		emulation.SetGeolocationOverride().
			WithLatitude(fp.Latitude).
			WithLongitude(fp.Longitude).
			WithAccuracy(100),
	}
	if m.antiDetection {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}))
	}
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		release()
		return nil, func() {}, fmt.Errorf("failed to launch browser: %w", err)
	}

	m.log.Info("browser session acquired",
		"headless", m.headless,
		"viewport", fmt.Sprintf("%dx%d", fp.Width, fp.Height),
		"locale", fp.Locale,
	)

	tab := &chromeTab{ctx: browserCtx, cancel: browserCancel}
	return tab, release, nil
}

// chromeTab implements Session over one chromedp tab context.
type chromeTab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (t *chromeTab) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	runCtx, cancel := t.bound(ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (t *chromeTab) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	runCtx, cancel := t.bound(ctx, 10*time.Second)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(runCtx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	els := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &chromeElement{node: n, tab: t})
	}
	return els, nil
}

func (t *chromeTab) QueryOne(ctx context.Context, selector string) (Element, error) {
	runCtx, cancel := t.bound(ctx, 10*time.Second)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(runCtx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return &chromeElement{node: nodes[0], tab: t}, nil
}

func (t *chromeTab) Evaluate(ctx context.Context, script string, out any) error {
	runCtx, cancel := t.bound(ctx, 10*time.Second)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

func (t *chromeTab) NewTab(ctx context.Context) (Session, error) {
	select {
	case <-t.ctx.Done():
		return nil, fmt.Errorf("new tab: %w", t.ctx.Err())
	default:
	}
	tabCtx, tabCancel := chromedp.NewContext(t.ctx)
	return &chromeTab{ctx: tabCtx, cancel: tabCancel}, nil
}

func (t *chromeTab) Close() error {
	t.cancel()
	return nil
}

// bound derives a chromedp-compatible context honoring both the caller's
// deadline and the tab lifetime.
func (t *chromeTab) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(t.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() { stop(); cancel() }
}

// chromeElement implements Element over a populated cdp.Node.
type chromeElement struct {
	node *cdp.Node
	tab  *chromeTab
}

func (e *chromeElement) Attribute(name string) (string, bool) {
	attrs := e.node.Attributes
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == name {
			return attrs[i+1], true
		}
	}
	return "", false
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	runCtx, cancel := e.tab.bound(ctx, 10*time.Second)
	defer cancel()

	var out string
	err := chromedp.Run(runCtx,
		chromedp.TextContent(e.node.FullXPath(), &out, chromedp.BySearch),
	)
	if err != nil {
		return "", fmt.Errorf("element text: %w", err)
	}
	return out, nil
}

func (e *chromeElement) OuterHTML(ctx context.Context) (string, error) {
	runCtx, cancel := e.tab.bound(ctx, 10*time.Second)
	defer cancel()

	var out string
	err := chromedp.Run(runCtx,
		chromedp.OuterHTML(e.node.FullXPath(), &out, chromedp.BySearch),
	)
	if err != nil {
		return "", fmt.Errorf("element html: %w", err)
	}
	return out, nil
}

func (e *chromeElement) Click(ctx context.Context) error {
	runCtx, cancel := e.tab.bound(ctx, 10*time.Second)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.MouseClickNode(e.node)); err != nil {
		return fmt.Errorf("element click: %w", err)
	}
	return nil
}
