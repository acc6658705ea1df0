// Package scrape drives a headless Chromium session against the scheduling
// viewer and hands back one positioned grid snapshot per visible month. It
// only navigates and extracts; all interpretation of the snapshots happens
// in internal/grid.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"shiftsync/internal/grid"
	appLog "shiftsync/internal/log"
)

const (
	// DefaultStepTimeout bounds each navigation step. A step that exceeds
	// it is a fatal collaborator failure for the run.
	DefaultStepTimeout = 45 * time.Second

	// DefaultMaxMonths caps pagination as a safety net; normal runs stop
	// earlier, on the first month that yields nothing new.
	DefaultMaxMonths = 24

	// fallbackScrollStep is used when the scroll container reports a zero
	// viewport height, which this DOM is known to do.
	fallbackScrollStep = 400
)

// Options configures a scraping session.
type Options struct {
	// LoginURL is the viewer's login page.
	LoginURL string

	Username string
	Password string

	// ViewName is matched (case-insensitive substring) against the sidebar
	// view links to pick the schedule view. Empty falls back to the first
	// link.
	ViewName string

	// Headless controls the browser mode. Recon runs set it false.
	Headless bool

	// ArtifactDir, when non-empty, enables debug screenshots and HTML
	// dumps, including on failure.
	ArtifactDir string

	// StepTimeout bounds each individual navigation step.
	StepTimeout time.Duration

	// MaxMonths caps how many month views are visited.
	MaxMonths int
}

// Visit is called once per rendered month view with its extracted snapshot.
// Returning more=false stops pagination; returning an error aborts the
// session.
type Visit func(page int, snap grid.Snapshot) (more bool, err error)

// Driver owns one browser session against the viewer.
type Driver struct {
	opts Options
}

// NewDriver returns a Driver for the given options.
func NewDriver(opts Options) *Driver {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}
	if opts.MaxMonths <= 0 {
		opts.MaxMonths = DefaultMaxMonths
	}
	return &Driver{opts: opts}
}

// Run executes the full session: login, navigation to the filtered
// open-shift view, enabling inline times, then a month-by-month
// extract/visit loop. Any step error is fatal and returned as-is after
// dumping debug artifacts.
func (d *Driver) Run(parentCtx context.Context, visit Visit) error {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.opts.Headless),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, allocOpts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if err := d.session(ctx, visit); err != nil {
		d.dumpArtifacts(ctx, "error")
		return err
	}
	return nil
}

func (d *Driver) session(ctx context.Context, visit Visit) error {
	if err := d.login(ctx); err != nil {
		return fmt.Errorf("scrape: login: %w", err)
	}
	d.dumpArtifacts(ctx, "after_login")

	if err := d.navigateToView(ctx); err != nil {
		return fmt.Errorf("scrape: navigate to schedule view: %w", err)
	}
	if err := d.filterOpenPersonnel(ctx); err != nil {
		return fmt.Errorf("scrape: personnel filter: %w", err)
	}
	if err := d.enableShowTimes(ctx); err != nil {
		return fmt.Errorf("scrape: enable show times: %w", err)
	}
	d.dumpArtifacts(ctx, "grid_ready")

	for page := 0; ; page++ {
		if err := d.scrollGrid(ctx); err != nil {
			return fmt.Errorf("scrape: scroll grid (month %d): %w", page, err)
		}

		snap, err := d.extractSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("scrape: extract month %d: %w", page, err)
		}
		appLog.Debug("scrape: extracted month view",
			"page", page, "headers", len(snap.Headers), "rows", len(snap.Rows))

		more, err := visit(page, snap)
		if err != nil {
			return err
		}
		if !more {
			appLog.Info("scrape: pagination stopped", "months_visited", page+1)
			return nil
		}
		if page+1 >= d.opts.MaxMonths {
			appLog.Warn("scrape: month cap reached, stopping pagination", "cap", d.opts.MaxMonths)
			return nil
		}

		if err := d.nextMonth(ctx); err != nil {
			return fmt.Errorf("scrape: advance to month %d: %w", page+1, err)
		}
	}
}

// run executes chromedp actions under the per-step timeout.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(ctx, d.opts.StepTimeout)
	defer cancel()
	return chromedp.Run(stepCtx, actions...)
}

func (d *Driver) login(ctx context.Context) error {
	appLog.Info("scrape: logging in", "url", d.opts.LoginURL)
	return d.run(ctx,
		chromedp.Navigate(d.opts.LoginURL),
		chromedp.WaitVisible(selUsernameInput, chromedp.ByQuery),
		chromedp.SendKeys(selUsernameInput, d.opts.Username, chromedp.ByQuery),
		chromedp.SendKeys(selPasswordInput, d.opts.Password, chromedp.ByQuery),
		chromedp.Click(selLoginButton, chromedp.ByQuery),
		// The selection screen appearing proves the login succeeded.
		chromedp.WaitVisible(selViewerTile, chromedp.ByQuery),
	)
}

func (d *Driver) navigateToView(ctx context.Context) error {
	appLog.Info("scrape: opening schedule view", "view", d.opts.ViewName)

	if err := d.run(ctx,
		chromedp.Click(selViewerTile, chromedp.ByQuery),
		chromedp.WaitVisible(selMeButton, chromedp.ByQuery),
		chromedp.Click(selMeButton, chromedp.ByQuery),
		// Sidebar slide-in animation.
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.WaitVisible(selViewLink, chromedp.ByQuery),
	); err != nil {
		return err
	}

	var outcome string
	if err := d.run(ctx,
		chromedp.Evaluate(clickViewLinkJS(d.opts.ViewName), &outcome),
	); err != nil {
		return err
	}
	switch outcome {
	case "none":
		return errors.New("no view links found in sidebar")
	case "fallback":
		appLog.Warn("scrape: configured view not found, using first view link", "view", d.opts.ViewName)
	}

	// The filter button appearing proves the schedule page loaded; give the
	// grid a moment to finish its first render.
	return d.run(ctx,
		chromedp.WaitVisible(selFilterPersonnelBtn, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
}

// filterOpenPersonnel narrows the personnel filter to the "Open" rows so the
// grid only renders open slots and pending claims.
func (d *Driver) filterOpenPersonnel(ctx context.Context) error {
	appLog.Info("scrape: filtering personnel to open slots")

	if err := d.run(ctx,
		chromedp.Click(selFilterPersonnelBtn, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.WaitVisible(selFilterSearchInput, chromedp.ByQuery),
		chromedp.SendKeys(selFilterSearchInput, "Open", chromedp.ByQuery),
		chromedp.Sleep(time.Second),
	); err != nil {
		return err
	}

	var checked int
	if err := d.run(ctx,
		chromedp.Evaluate(checkAllFilterBoxesJS, &checked),
	); err != nil {
		return err
	}
	if checked == 0 {
		return errors.New("no matching personnel filter entries")
	}
	appLog.Info("scrape: personnel filter applied", "entries", checked)

	return d.run(ctx,
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Click(selCloseDropdown, chromedp.ByQuery),
		// Grid re-render after the filter change.
		chromedp.Sleep(1500*time.Millisecond),
	)
}

// enableShowTimes turns on the inline time display so shift times can be
// read straight out of the grid cells. The checkbox input is CSS-hidden
// (the visual control is a label pseudo-element), so it is toggled through
// JS rather than a synthesized click.
func (d *Driver) enableShowTimes(ctx context.Context) error {
	if err := d.run(ctx,
		chromedp.Click(selSettingsBtn, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
	); err != nil {
		return err
	}

	var outcome string
	if err := d.run(ctx,
		chromedp.Evaluate(toggleShowTimesJS, &outcome),
	); err != nil {
		return err
	}
	switch outcome {
	case "not_found":
		appLog.Warn("scrape: show-times checkbox not found; falling back to full-day shifts")
	case "already_checked":
		appLog.Info("scrape: show times already enabled")
	default:
		appLog.Info("scrape: show times enabled")
	}

	// Escape closes the settings dropdown; it overlays the grid spacer, so
	// a whitespace click would land on the dropdown itself.
	return d.run(ctx,
		chromedp.KeyEvent(kb.Escape),
		chromedp.Sleep(1500*time.Millisecond),
	)
}

// scrollGrid walks the virtualized grid top to bottom so every row block is
// actually rendered, then returns to the top.
func (d *Driver) scrollGrid(ctx context.Context) error {
	var dims struct {
		Found        bool `json:"found"`
		ScrollHeight int  `json:"scrollHeight"`
		ClientHeight int  `json:"clientHeight"`
	}
	if err := d.run(ctx, chromedp.Evaluate(gridScrollDimsJS, &dims)); err != nil {
		return err
	}
	if !dims.Found {
		appLog.Warn("scrape: grid scroll container not found")
		return nil
	}
	if dims.ScrollHeight <= dims.ClientHeight {
		return nil
	}

	for pos := 0; pos < dims.ScrollHeight; pos += scrollStep(dims.ClientHeight) {
		if err := d.run(ctx,
			chromedp.Evaluate(setGridScrollJS(pos), nil),
			chromedp.Sleep(300*time.Millisecond),
		); err != nil {
			return err
		}
	}

	return d.run(ctx,
		chromedp.Evaluate(setGridScrollJS(0), nil),
		chromedp.Sleep(500*time.Millisecond),
	)
}

// scrollStep returns the increment for walking the grid. The container's
// parent reports zero size, and if the scroll element itself ever does the
// same a half-viewport step would be zero and the walk would never
// terminate, so the step is always forced positive.
func scrollStep(clientHeight int) int {
	step := clientHeight / 2
	if step <= 0 {
		step = fallbackScrollStep
	}
	return step
}

func (d *Driver) extractSnapshot(ctx context.Context) (grid.Snapshot, error) {
	var snap grid.Snapshot
	// The grid container reports zero size, so wait for DOM attachment
	// rather than visibility.
	if err := d.run(ctx,
		chromedp.WaitReady(selGridContainer, chromedp.ByQuery),
		chromedp.Evaluate(extractSnapshotJS, &snap),
	); err != nil {
		return grid.Snapshot{}, err
	}
	return snap, nil
}

func (d *Driver) nextMonth(ctx context.Context) error {
	return d.run(ctx,
		chromedp.Click(selNextMonthArrow, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
}
