package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"shiftsync/internal/app"
	"shiftsync/internal/config"
	"shiftsync/internal/feed"
	"shiftsync/internal/gcal"
	"shiftsync/internal/grid"
	appLog "shiftsync/internal/log"
	"shiftsync/internal/model"
	"shiftsync/internal/notify"
	"shiftsync/internal/scrape"
	"shiftsync/internal/web"
)

type flagConfig struct {
	configPath  string
	listen      string
	once        bool
	recon       bool
	listManaged bool
	debug       bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("shiftsync starting", "version", "0.3.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		appLog.Error("failed to load secrets", err)
		os.Exit(1)
	}
	if secrets.FeedURL != "" {
		conf.FeedURL = secrets.FeedURL
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	namePattern, err := grid.CompileNamePattern(conf.NamePattern)
	if err != nil {
		appLog.Error("invalid name pattern", err)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"lookahead_days", conf.LookaheadDays,
		"min_rest_hours", conf.MinRestHours,
		"calendar_id", conf.CalendarID,
		"listen", conf.Listen,
		"once", flags.once,
		"recon", flags.recon,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.recon {
		if err := runRecon(ctx, conf, secrets, namePattern, loc); err != nil {
			appLog.Error("recon failed", err)
			os.Exit(1)
		}
		return
	}

	cal, err := gcal.NewClient(ctx, []byte(secrets.ServiceAccountJSON),
		conf.CalendarID, conf.Timezone, categoryColors(conf))
	if err != nil {
		appLog.Error("failed to create calendar client", err)
		os.Exit(1)
	}

	if flags.listManaged {
		if err := listManaged(ctx, cal); err != nil {
			appLog.Error("list managed events failed", err)
			os.Exit(1)
		}
		return
	}

	mailer := notify.NewMailer(conf.Notify, secrets.SMTPPassword)

	runOnce := func() error {
		return runPipeline(ctx, conf, secrets, namePattern, loc, cal, mailer)
	}

	if flags.once {
		if err := runOnce(); err != nil {
			appLog.Error("sync run failed", err)
			os.Exit(1)
		}
		return
	}

	// Scheduled mode: cron runner, skipping a tick while a run is in
	// flight, plus the optional status server.
	if conf.Listen != "" {
		go func() {
			if err := web.Start(conf); err != nil {
				appLog.Error("status server stopped", err)
			}
		}()
	}

	var inFlight atomic.Bool
	c := cron.New()
	_, err = c.AddFunc(conf.RefreshCron, func() {
		if !inFlight.CompareAndSwap(false, true) {
			appLog.Warn("skipping scheduled run, previous run still in flight")
			return
		}
		defer inFlight.Store(false)
		if err := runOnce(); err != nil {
			appLog.Error("scheduled sync run failed", err)
		}
	})
	if err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	appLog.Info("scheduler started", "refresh", conf.RefreshCron)

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("shiftsync exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "Status server listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one sync pass and exit")
	flag.BoolVar(&cfg.recon, "recon", false, "Run the browser headed, extract shifts and print them; no calendar writes")
	flag.BoolVar(&cfg.listManaged, "list-managed", false, "List managed calendar events and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

// runPipeline wires the real collaborators into one app.Run pass and turns
// the outcome into notifications.
func runPipeline(ctx context.Context, conf *config.Config, secrets config.Secrets,
	namePattern *regexp.Regexp, loc *time.Location, cal *gcal.Client, mailer *notify.Mailer) error {

	collector := &notify.Collector{}
	removeSink := appLog.AddSink(collector)
	defer removeSink()

	deps := app.Deps{
		Feed: &feedSource{
			fetcher:   feed.NewFetcher(conf.CacheDir),
			url:       conf.FeedURL,
			loc:       loc,
			lookahead: conf.LookaheadDays,
		},
		Grid: &gridSource{driver: scrape.NewDriver(scrape.Options{
			LoginURL:    conf.GridURL,
			Username:    secrets.GridUsername,
			Password:    secrets.GridPassword,
			ViewName:    conf.ViewName,
			Headless:    conf.Headless,
			ArtifactDir: conf.ArtifactDir,
		})},
		Calendar: cal,
	}

	opts := app.Options{
		StatePath:   conf.StatePath,
		MinRest:     time.Duration(conf.MinRestHours) * time.Hour,
		NamePattern: namePattern,
		Enabled:     categoryEnabled(conf),
		Now:         func() time.Time { return time.Now().In(loc) },
	}

	_, err := app.Run(ctx, deps, opts)
	if err != nil {
		mailer.Send("shiftsync: sync run failed",
			fmt.Sprintf("The sync run failed:\n\n%v\n\nWarnings:\n%s",
				err, strings.Join(collector.Lines(), "\n")))
		return err
	}

	if lines := collector.Lines(); len(lines) > 0 {
		mailer.Send("shiftsync: sync completed with warnings",
			fmt.Sprintf("The sync run completed, but with %d warning(s):\n\n%s",
				len(lines), strings.Join(lines, "\n")))
	}
	return nil
}

// runRecon drives a headed browser through the full navigation and
// extraction flow and prints what it finds. Nothing is filtered, diffed or
// written anywhere; this exists to verify selectors and parsing against the
// live viewer.
func runRecon(ctx context.Context, conf *config.Config, secrets config.Secrets,
	namePattern *regexp.Regexp, loc *time.Location) error {

	artifactDir := conf.ArtifactDir
	if artifactDir == "" {
		artifactDir = "./screenshots"
	}

	driver := scrape.NewDriver(scrape.Options{
		LoginURL:    conf.GridURL,
		Username:    secrets.GridUsername,
		Password:    secrets.GridPassword,
		ViewName:    conf.ViewName,
		Headless:    false,
		ArtifactDir: artifactDir,
	})

	acc := grid.NewAccumulator()
	now := time.Now().In(loc)

	err := driver.Run(ctx, func(page int, snap grid.Snapshot) (bool, error) {
		res := grid.BuildPage(snap, namePattern, now, acc)
		for _, s := range res.Open {
			fmt.Printf("OPEN   %-10s %s  %s - %s  %s\n",
				s.Label, s.Date, s.Start.Format("15:04"), s.End.Format("15:04"), s.Assignment)
		}
		for _, s := range res.Picked {
			fmt.Printf("PICKED %-10s %s  %s - %s  %s\n",
				s.Label, s.Date, s.Start.Format("15:04"), s.End.Format("15:04"), s.Assignment)
		}
		return !res.Empty(), nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("total distinct shifts: %d (artifacts in %s)\n", acc.Len(), artifactDir)
	return nil
}

func listManaged(ctx context.Context, cal *gcal.Client) error {
	events, err := cal.ListManaged(ctx)
	if err != nil {
		return err
	}
	for _, ev := range events {
		start := ""
		if ev.Start != nil {
			start = ev.Start.DateTime
		}
		fmt.Printf("%s  %s  %s\n", ev.Id, start, ev.Summary)
	}
	fmt.Printf("%d managed event(s)\n", len(events))
	return nil
}

func categoryColors(conf *config.Config) map[model.Category]string {
	out := make(map[model.Category]string, len(model.Categories))
	for _, cat := range model.Categories {
		out[cat] = conf.Category(cat).ColorID
	}
	return out
}

func categoryEnabled(conf *config.Config) map[model.Category]bool {
	out := make(map[model.Category]bool, len(model.Categories))
	for _, cat := range model.Categories {
		out[cat] = conf.Category(cat).Enabled
	}
	return out
}

// feedSource adapts the feed fetcher/parser pair to app.FeedSource.
type feedSource struct {
	fetcher   *feed.Fetcher
	url       string
	loc       *time.Location
	lookahead int
}

func (s *feedSource) CommittedShifts(ctx context.Context) ([]model.ScheduledShift, error) {
	body, _, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return feed.CommittedShifts(body, s.loc, time.Now().In(s.loc), s.lookahead)
}

// gridSource adapts the browser driver to app.GridSource.
type gridSource struct {
	driver *scrape.Driver
}

func (g *gridSource) Visit(ctx context.Context, visit func(page int, snap grid.Snapshot) (bool, error)) error {
	return g.driver.Run(ctx, visit)
}
