package crawl

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/munthasirdevs/lead-scraping-automation/internal/session"
	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
)

// ErrBlocked means the target demanded human verification and the wait
// ceiling expired before it cleared. The run stops with partial results.
var ErrBlocked = errors.New("blocked by target, verification not resolved")

// blockSelectors are DOM markers of a CAPTCHA or verification wall.
var blockSelectors = []string{
	"form#captcha-form",
	`iframe[src*="recaptcha"]`,
	`iframe[src*="hcaptcha"]`,
}

// blockPhrases are page-text signatures of soft blocking.
var blockPhrases = []string{
	"unusual traffic",
	"verify you are human",
	"are you a robot",
	"confirm you're not a robot",
	"detected unusual activity",
}

// BlockGate detects CAPTCHA/rate-limit walls and suspends the run while one
// is present. Blocking is a first-class state, not an error: with a visible
// browser a human operator resolves it out-of-band while the gate polls.
// Headless runs cannot self-resolve, so the wait is bounded and expiry
// surfaces ErrBlocked.
type BlockGate struct {
	pollInterval time.Duration
	maxWait      time.Duration
	headless     bool
	log          *logger.Logger
}

// NewBlockGate creates a block gate. maxWait bounds the total suspension;
// zero or negative means no ceiling (poll until clear or ctx done).
func NewBlockGate(pollInterval, maxWait time.Duration, headless bool, log *logger.Logger) *BlockGate {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	return &BlockGate{
		pollInterval: pollInterval,
		maxWait:      maxWait,
		headless:     headless,
		log:          log.WithComponent("blockgate"),
	}
}

// Detect reports whether the current page shows a block signature. Lookup
// errors count as "not blocked": a broken page is handled elsewhere.
func (g *BlockGate) Detect(ctx context.Context, sess session.Session) bool {
	for _, sel := range blockSelectors {
		if el, err := sess.QueryOne(ctx, sel); err == nil && el != nil {
			return true
		}
	}
	var bodyText string
	if err := sess.Evaluate(ctx, "document.body.innerText.slice(0, 4000)", &bodyText); err != nil {
		return false
	}
	lower := strings.ToLower(bodyText)
	for _, phrase := range blockPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Wait suspends while a block signature is present, polling until it clears,
// the ceiling expires, or ctx is done. Returns nil when the page is clear.
func (g *BlockGate) Wait(ctx context.Context, sess session.Session) error {
	if !g.Detect(ctx, sess) {
		return nil
	}

	if g.headless {
		g.log.Warn("verification wall detected in headless mode; cannot be resolved interactively",
			"max_wait", g.maxWait)
	} else {
		g.log.Warn("verification wall detected; solve it in the browser window to continue",
			"max_wait", g.maxWait)
	}

	deadline := time.Now().Add(g.maxWait)
	for {
		if g.maxWait > 0 && time.Now().After(deadline) {
			return ErrBlocked
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.pollInterval):
		}
		if !g.Detect(ctx, sess) {
			g.log.Info("verification cleared, resuming")
			return nil
		}
		g.log.Info("still blocked, waiting", "poll_interval", g.pollInterval)
	}
}
