package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/rl-brackets/internal/bracket"
	"github.com/pfrederiksen/rl-brackets/internal/config"
	"github.com/pfrederiksen/rl-brackets/internal/database"
	"github.com/pfrederiksen/rl-brackets/internal/dom"
	"github.com/pfrederiksen/rl-brackets/internal/extract"
	"github.com/pfrederiksen/rl-brackets/internal/logger"
	"github.com/pfrederiksen/rl-brackets/internal/metrics"
	"github.com/pfrederiksen/rl-brackets/internal/repository"
	"github.com/pfrederiksen/rl-brackets/internal/scraper"
	"github.com/pfrederiksen/rl-brackets/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitNewMatches = 2
)

// options holds flag values shared by all commands
type options struct {
	configPath  string
	dataDir     string
	dbPath      string
	format      string
	sort        string
	logLevel    string
	metricsFile string
	cutoff      string
	concurrency int
	newOnly     bool
	noSave      bool
	verbose     bool

	premier bool
	name    string
	url     string
}

// app is the state of one CLI invocation
type app struct {
	opts     *options
	cfg      *config.Config
	metrics  *metrics.Manager
	out      io.Writer
	exitCode int
}

// rootCmd creates the root command and its subcommands
func (a *app) rootCmd() *cobra.Command {
	opts := a.opts
	cmd := &cobra.Command{
		Use:   "rl-brackets",
		Short: "Extract Rocket League tournament brackets from Liquipedia",
		Long: `A CLI tool to extract teams, rosters and match results from Liquipedia
Rocket League tournament pages. Tournaments are stored across runs so that
only matches played since the last check can be reported.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file (default $RLB_CONFIG)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Data directory for snapshots")
	flags.StringVar(&opts.dbPath, "db", "", "Also store results in this SQLite database")
	flags.StringVar(&opts.format, "format", "text", "Output format: text or json")
	flags.StringVar(&opts.sort, "sort", "page", "Match order: page, date or team")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	flags.StringVar(&opts.cutoff, "cutoff", "", "Cutoff date (YYYY-MM-DD) separating unplayed from malformed matches")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Tournament pages processed in parallel")
	flags.BoolVar(&opts.newOnly, "new-only", false, "Only report matches not seen on the previous run")
	flags.BoolVar(&opts.noSave, "no-save", false, "Do not update stored snapshots")
	flags.BoolVar(&opts.verbose, "verbose", false, "Show rosters and extraction details")

	cmd.AddCommand(a.tournamentCmd(), a.eventCmd(), a.listCmd(), a.parseCmd())
	return cmd
}

func (a *app) tournamentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tournament <url>",
		Short: "Extract a single tournament page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crawler, err := a.crawler()
			if err != nil {
				return err
			}
			t, report, err := crawler.Tournament(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("extracting tournament: %w", err)
			}
			return a.finish(cmd.Context(), nil, []scraper.TournamentResult{{Tournament: t, Report: report}})
		},
	}
}

func (a *app) eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event <url>",
		Short: "Extract an event page and every tournament in its tabs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crawler, err := a.crawler()
			if err != nil {
				return err
			}
			event, results, err := crawler.Event(cmd.Context(), args[0], a.opts.premier)
			if err != nil {
				return fmt.Errorf("extracting event: %w", err)
			}
			return a.finish(cmd.Context(), []bracket.Event{event}, results)
		},
	}
	cmd.Flags().BoolVar(&a.opts.premier, "premier", false, "Mark the event as premier")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <listing-url>",
		Short: "Extract every event linked from a tournament listing page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crawler, err := a.crawler()
			if err != nil {
				return err
			}
			found, err := crawler.Listing(cmd.Context(), args[0], a.opts.premier)
			if err != nil {
				return fmt.Errorf("extracting listing: %w", err)
			}

			events := make([]bracket.Event, 0, len(found))
			results := make([]scraper.TournamentResult, 0)
			for _, e := range found {
				events = append(events, e.Event)
				results = append(results, e.Results...)
			}
			return a.finish(cmd.Context(), events, results)
		},
	}
	cmd.Flags().BoolVar(&a.opts.premier, "premier", false, "Mark the listed events as premier")
	return cmd
}

func (a *app) parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file.html>",
		Short: "Extract a saved tournament page without network access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening page: %w", err)
			}
			defer f.Close()

			doc, err := dom.Parse(f)
			if err != nil {
				return fmt.Errorf("parsing page: %w", err)
			}

			// links are joined to the base URL but never requested
			extractor := a.extractor(extract.BaseURLResolver{Base: a.cfg.BaseURL})

			name := a.opts.name
			if name == "" {
				name = scraper.PageName(doc)
			}
			t, report := extractor.Assemble(cmd.Context(), doc, name, "")
			t.URL = a.opts.url

			return a.finish(cmd.Context(), nil, []scraper.TournamentResult{{Tournament: t, Report: report}})
		},
	}
	cmd.Flags().StringVar(&a.opts.name, "name", "", "Tournament name (default: page heading)")
	cmd.Flags().StringVar(&a.opts.url, "url", "", "Tournament URL used as storage key")
	return cmd
}

// setup loads configuration, applies flag overrides and configures logging
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	opts := a.opts
	a.out = cmd.OutOrStdout()

	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}
	if _, err := ParseSortOrder(opts.sort); err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if flags.Changed("db") {
		cfg.DBPath = opts.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = opts.metricsFile
	}
	if flags.Changed("cutoff") {
		cfg.CutoffDate = opts.cutoff
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	a.cfg = cfg
	a.metrics = metrics.NewManager()
	return nil
}

func (a *app) client() (*scraper.Client, error) {
	return scraper.New(a.cfg.BaseURL,
		scraper.WithUserAgent(a.cfg.UserAgent),
		scraper.WithTimeout(a.cfg.Timeout),
		scraper.WithMaxRetries(a.cfg.MaxRetries),
		scraper.WithRequestInterval(a.cfg.RequestInterval),
		scraper.WithRedirectCache(scraper.NewRedirectCache(a.cfg.RedirectCacheTTL)),
		scraper.WithMetrics(a.metrics),
	)
}

func (a *app) extractor(links extract.LinkResolver) *extract.Extractor {
	return extract.New(
		extract.WithCutoff(a.cfg.Cutoff()),
		extract.WithLANLabel(a.cfg.LANLabel),
		extract.WithLinkResolver(links),
		extract.WithMetrics(a.metrics),
	)
}

func (a *app) crawler() (*scraper.Crawler, error) {
	client, err := a.client()
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return scraper.NewCrawler(client, a.extractor(client), a.cfg.Concurrency), nil
}

// finish diffs against stored snapshots, persists the results, writes output
// and sets the exit code
func (a *app) finish(ctx context.Context, events []bracket.Event, results []scraper.TournamentResult) error {
	store, err := storage.New(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	var repo *repository.TournamentRepository
	if a.cfg.DBPath != "" {
		db, err := database.Open(ctx, a.cfg.DBPath)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer db.Close()
		repo = repository.NewTournamentRepository(db)
	}

	order, _ := ParseSortOrder(a.opts.sort)
	output := &OutputResult{
		CheckedAt:   time.Now().UTC(),
		NewOnly:     a.opts.newOnly,
		Events:      summarizeEvents(events),
		Tournaments: make([]TournamentOutput, 0, len(results)),
	}

	for _, r := range results {
		t := r.Tournament
		key := storage.Key(t)

		previous, err := store.LoadSnapshot(key)
		if err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}
		diff := bracket.Diff(previous, t)

		shown := t.Matches
		if a.opts.newOnly {
			shown = diff.NewMatches
		}
		shown = append([]bracket.Match(nil), shown...)
		sortMatches(shown, order)

		output.Tournaments = append(output.Tournaments, TournamentOutput{
			Name:           t.Name,
			URL:            t.URL,
			LAN:            t.LAN,
			Teams:          t.Teams,
			Matches:        shown,
			NewMatches:     len(diff.NewMatches),
			UpdatedMatches: len(diff.Changed),
			Report:         r.Report,
			Diagnostics:    summarizeDiagnostics(r.Report),
		})
		output.MatchCount += len(shown)
		output.NewMatchCount += len(diff.NewMatches)

		if a.opts.noSave {
			continue
		}
		if err := store.CreateSnapshotFromTournament(t); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		if err := store.SaveTournament(t); err != nil {
			return fmt.Errorf("saving tournament: %w", err)
		}
		if repo != nil {
			runID, err := repo.Save(ctx, t, r.Report)
			if err != nil {
				return fmt.Errorf("saving tournament to database: %w", err)
			}
			logger.Debug("Stored tournament", logger.Fields{"tournament": t.Name, "run_id": runID})
		}
	}

	if err := WriteOutput(a.out, output, OutputFormat(strings.ToLower(a.opts.format)), a.opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return err
		}
	}

	if a.opts.newOnly && output.NewMatchCount > 0 {
		a.exitCode = ExitNewMatches
	}
	return nil
}

// Run executes the CLI with args and returns the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{opts: &options{}}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return ExitError
	}
	return a.exitCode
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
