package crawl

import (
	"context"
	"errors"
	"strings"

	"github.com/munthasirdevs/lead-scraping-automation/internal/config"
	"github.com/munthasirdevs/lead-scraping-automation/internal/extract"
	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
	"github.com/munthasirdevs/lead-scraping-automation/internal/session"
	"github.com/munthasirdevs/lead-scraping-automation/internal/throttle"
	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
)

// ErrSessionLost reports that the browser session went away before the run
// could start.
var ErrSessionLost = errors.New("browser session lost")

// Acquirer hands out browser sessions. Satisfied by session.Manager.
type Acquirer interface {
	Acquire(ctx context.Context) (session.Session, func(), error)
}

// Result is the outcome of one crawl run.
type Result struct {
	RunID    string
	RawCount int
	Leads    []leads.Lead
}

// Orchestrator owns one crawl run end to end: session acquisition, surface
// selection, the crawl loop, and the cleanup pipeline over whatever was
// collected.
type Orchestrator struct {
	cfg      config.CrawlConfig
	sessions Acquirer
	pipeline *leads.Pipeline
	log      *logger.Logger

	// OnLead fires for every accepted raw lead, before cleanup.
	OnLead func(leads.Lead)
}

// NewOrchestrator wires an orchestrator for the given crawl configuration.
func NewOrchestrator(cfg config.CrawlConfig, sessions Acquirer, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Discard()
	}
	return &Orchestrator{
		cfg:      cfg,
		sessions: sessions,
		pipeline: leads.NewPipeline(log),
		log:      log.WithComponent("orchestrator"),
	}
}

// Run executes the crawl and returns cleaned leads. Partial results always
// pass through the pipeline, including on block expiry or interruption, so
// the returned Result is usable even when err is non-nil. Only a failed
// session launch returns an empty result.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	state := NewState(o.cfg.Engine)
	log := o.log.WithFields(map[string]any{"run_id": state.RunID, "engine": o.cfg.Engine})
	ctx = context.WithValue(ctx, logger.RunIDKey, state.RunID)

	sess, release, err := o.sessions.Acquire(ctx)
	if err != nil {
		return Result{RunID: state.RunID}, errors.Join(ErrSessionLost, err)
	}
	defer release()

	limiter := throttle.NewLimiter(o.cfg.MinDelay, o.cfg.MaxDelay)
	retry := throttle.NewRetry(o.cfg.MaxRetries, o.cfg.RetryDelay, log)
	gate := NewBlockGate(o.cfg.BlockPollInterval, o.cfg.MaxBlockWait, o.cfg.Headless, log)

	var raw []leads.Lead
	var runErr error

	if o.cfg.Engine == config.EngineMaps {
		detail := extract.NewDetailScraper(o.cfg.NavTimeout, log)
		ctrl := NewScrollController(o.cfg, limiter, retry, gate, detail, log, o.OnLead)
		raw, runErr = ctrl.Run(ctx, sess, state)
	} else {
		surface, err := SurfaceFor(o.cfg.Engine)
		if err != nil {
			return Result{RunID: state.RunID}, err
		}
		ctrl := NewPagedController(o.cfg, surface, limiter, retry, gate, log, o.OnLead)
		raw, runErr = ctrl.Run(ctx, sess, state, o.query())
	}

	log.Info("crawl finished", "raw", len(raw), "pages", state.AttemptedPages)

	clean := o.pipeline.Clean(raw)
	log.Info("pipeline complete", "raw", len(raw), "clean", len(clean))

	return Result{RunID: state.RunID, RawCount: len(raw), Leads: clean}, runErr
}

// query builds the search string for paged surfaces. The keywords carry any
// dork terms the caller embedded; the map surface builds its own URL from
// keywords and location instead.
func (o *Orchestrator) query() string {
	return strings.TrimSpace(o.cfg.Keywords)
}
