// Package main is the entry point for the lead scraping CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/munthasirdevs/lead-scraping-automation/internal/config"
	"github.com/munthasirdevs/lead-scraping-automation/internal/crawl"
	"github.com/munthasirdevs/lead-scraping-automation/internal/export"
	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
	"github.com/munthasirdevs/lead-scraping-automation/internal/session"
	"github.com/munthasirdevs/lead-scraping-automation/internal/storage"
	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
	"github.com/munthasirdevs/lead-scraping-automation/pkg/shutdown"
)

// Version information (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// CrawlOptions holds the crawl command flags. Unset flags fall back to the
// environment configuration.
type CrawlOptions struct {
	Prompt   string
	Keywords string
	Location string
	Engine   string
	Target   string

	MaxScrolls   int
	MaxPages     int
	ResultsLimit int

	Headless bool
	Visible  bool
	Output   string
	SaveDB   bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:     "leadscraper",
		Short:   "Business lead scraping CLI",
		Long:    "CLI tool for collecting business contact leads from map listings and search engines.",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
	}

	rootCmd.AddCommand(newCrawlCmd())

	return rootCmd.Execute()
}

// newCrawlCmd creates the crawl subcommand.
func newCrawlCmd() *cobra.Command {
	opts := &CrawlOptions{}

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a lead crawl",
		Long:  "Crawl a map or search-engine surface, extract contacts, clean them, and export a spreadsheet.",
		Example: `  # Map listings by keywords and location
  leadscraper crawl --engine=maps --keywords="coffee shops" --location="Chicago"

  # Free-text prompt, classified automatically
  leadscraper crawl --prompt="restaurants in Austin"
  leadscraper crawl --prompt="dentists contact @gmail.com" --engine=bing

  # Social profile discovery
  leadscraper crawl --engine=google --target=profile --keywords="site:instagram.com yoga studio"

  # Store results in Postgres as well
  leadscraper crawl --prompt="plumbers in Denver" --save-db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Prompt, "prompt", "p", "", "Free-text search prompt (classified into map or dork search)")
	cmd.Flags().StringVarP(&opts.Keywords, "keywords", "k", "", "Search keywords (may embed dork terms)")
	cmd.Flags().StringVarP(&opts.Location, "location", "l", "", "Location for map searches")
	cmd.Flags().StringVarP(&opts.Engine, "engine", "e", "", "Surface: maps, google, yahoo, bing")
	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "Dork target: email or profile")
	cmd.Flags().IntVar(&opts.MaxScrolls, "max-scrolls", 0, "Scroll ceiling for the map feed")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 0, "Page ceiling for search engines")
	cmd.Flags().IntVar(&opts.ResultsLimit, "limit", 0, "Hard cap on accepted leads")
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "Run the browser headless")
	cmd.Flags().BoolVar(&opts.Visible, "visible", false, "Force a visible browser window")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output spreadsheet path")
	cmd.Flags().BoolVar(&opts.SaveDB, "save-db", false, "Also store clean leads in Postgres")

	return cmd
}

// runCrawl executes the crawl command end to end.
func runCrawl(ctx context.Context, opts *CrawlOptions, cmd *cobra.Command) error {
	// Optional .env next to the binary; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOptions(cfg, opts, cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})
	log.SetDefault()

	handler := shutdown.New(log.Logger, 10*time.Second)
	ctx, cancel := handler.NotifyContext(ctx)
	defer cancel()
	defer handler.Shutdown()

	log.Info("starting crawl",
		"engine", cfg.Crawl.Engine,
		"keywords", cfg.Crawl.Keywords,
		"location", cfg.Crawl.Location,
		"target", cfg.Crawl.Target,
		"headless", cfg.Crawl.Headless,
		"limit", cfg.Crawl.ResultsLimit,
	)

	var store *storage.PostgresDB
	if cfg.Database.Enabled {
		store, err = storage.NewPostgres(cfg.Database, log)
		if err != nil {
			return fmt.Errorf("failed to connect lead store: %w", err)
		}
		handler.RegisterNamed("postgres", func(context.Context) error {
			return store.Close()
		})
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	bar := progressbar.NewOptions(cfg.Crawl.ResultsLimit,
		progressbar.OptionSetDescription("Collecting leads"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	sessions := session.NewManager(cfg.Crawl.Headless, cfg.Crawl.AntiDetection, log)
	orch := crawl.NewOrchestrator(cfg.Crawl, sessions, log)
	orch.OnLead = func(leads.Lead) {
		_ = bar.Add(1)
	}

	res, runErr := orch.Run(ctx)
	fmt.Println()

	if runErr != nil {
		switch {
		case errors.Is(runErr, crawl.ErrSessionLost):
			return runErr
		case errors.Is(runErr, crawl.ErrBlocked):
			log.Warn("run stopped by a verification wall, keeping partial results")
		case errors.Is(runErr, context.Canceled):
			log.Warn("run interrupted, keeping partial results")
		default:
			log.WithError(runErr).Warn("run ended early, keeping partial results")
		}
	}

	log.Info("crawl complete", "run_id", res.RunID, "raw", res.RawCount, "clean", len(res.Leads))

	if len(res.Leads) == 0 {
		log.Warn("no leads found, check your search parameters")
		return nil
	}

	writer := export.NewExcelWriter(cfg.Export, log)
	if err := writer.Write(res.Leads); err != nil {
		return err
	}

	if store != nil {
		if err := store.SaveLeads(ctx, res.RunID, res.Leads); err != nil {
			log.WithError(err).Warn("lead store write failed, spreadsheet is unaffected")
		}
	}

	printSample(res.Leads)
	return nil
}

// applyOptions overlays explicitly set flags onto the environment config,
// resolving a free-text prompt first so direct flags still win.
func applyOptions(cfg *config.Config, opts *CrawlOptions, cmd *cobra.Command) {
	if opts.Prompt != "" {
		parsed := config.ParseSearchPrompt(opts.Prompt, cfg.Crawl.Location)
		cfg.Crawl.Keywords = parsed.Keywords
		cfg.Crawl.Location = parsed.Location
		cfg.Crawl.Target = parsed.Target
		if parsed.SearchType == "maps" {
			cfg.Crawl.Engine = config.EngineMaps
		} else if cfg.Crawl.Engine == config.EngineMaps {
			// Dork prompts need a paged engine; google is the default.
			cfg.Crawl.Engine = config.EngineGoogle
		}
	}

	if opts.Keywords != "" {
		cfg.Crawl.Keywords = opts.Keywords
	}
	if opts.Location != "" {
		cfg.Crawl.Location = opts.Location
	}
	if opts.Engine != "" {
		cfg.Crawl.Engine = opts.Engine
	}
	if opts.Target != "" {
		cfg.Crawl.Target = opts.Target
	}
	if opts.MaxScrolls > 0 {
		cfg.Crawl.MaxScrolls = opts.MaxScrolls
	}
	if opts.MaxPages > 0 {
		cfg.Crawl.MaxPages = opts.MaxPages
	}
	if opts.ResultsLimit > 0 {
		cfg.Crawl.ResultsLimit = opts.ResultsLimit
	}
	if cmd.Flags().Changed("headless") {
		cfg.Crawl.Headless = opts.Headless
	}
	if opts.Visible {
		cfg.Crawl.Headless = false
	}
	if opts.Output != "" {
		cfg.Export.OutputFile = opts.Output
	}
	if opts.SaveDB {
		cfg.Database.Enabled = true
	}
}

// printSample shows up to ten leads on stdout, mirroring the spreadsheet.
func printSample(list []leads.Lead) {
	n := len(list)
	if n > 10 {
		n = 10
	}
	fmt.Println("\nSample results:")
	for _, l := range list[:n] {
		fmt.Printf("  %-40s %-16s %-30s %s\n", l.BusinessName, l.PhoneNumber, l.Website, l.Email)
	}
}
