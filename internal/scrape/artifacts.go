package scrape

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	appLog "shiftsync/internal/log"
)

// dumpArtifacts writes a full-page screenshot and an HTML dump of the
// current page into the artifact directory. No-op unless ArtifactDir is
// set; failures are logged and swallowed since artifacts are diagnostics,
// never part of the run's outcome.
func (d *Driver) dumpArtifacts(ctx context.Context, name string) {
	if d.opts.ArtifactDir == "" {
		return
	}
	if err := os.MkdirAll(d.opts.ArtifactDir, 0o755); err != nil {
		appLog.Warn("scrape: cannot create artifact dir", "dir", d.opts.ArtifactDir, "err", err)
		return
	}

	stamp := time.Now().Format("20060102_150405")
	base := filepath.Join(d.opts.ArtifactDir, stamp+"_"+name)

	var png []byte
	var html string
	if err := d.run(ctx,
		chromedp.FullScreenshot(&png, 90),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		appLog.Warn("scrape: artifact capture failed", "name", name, "err", err)
		return
	}

	if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		appLog.Warn("scrape: artifact write failed", "path", base+".png", "err", err)
		return
	}
	if err := os.WriteFile(base+".html", []byte(html), 0o644); err != nil {
		appLog.Warn("scrape: artifact write failed", "path", base+".html", "err", err)
		return
	}

	appLog.Info("scrape: artifacts saved", "base", base)
}
