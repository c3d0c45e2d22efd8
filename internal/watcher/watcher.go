package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/slateflow/slateflow-agent/internal/catalog"
	"github.com/slateflow/slateflow-agent/internal/logging"
)

// Catalog is the slice of the catalog service the watcher drives.
type Catalog interface {
	GetSources(ctx context.Context) ([]*catalog.Source, error)
	ScanSource(ctx context.Context, sourceID string) (*catalog.Job, error)
}

// Presence records drive connect and disconnect transitions.
type Presence interface {
	UpdateSourcePresent(ctx context.Context, id string, present bool) error
}

// signature summarizes a source folder cheaply enough to take every
// poll: take file count plus the newest mtime.
type signature struct {
	count  int
	latest time.Time
}

func (s signature) equal(o signature) bool {
	return s.count == o.count && s.latest.Equal(o.latest)
}

// Watcher polls source folders and enqueues a scan when their contents
// change. It also flips the Present flag when an offload drive is
// unplugged or comes back.
type Watcher struct {
	catalog  Catalog
	presence Presence
	logger   *slog.Logger
	interval time.Duration

	seen map[string]signature
}

func New(cat Catalog, presence Presence, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		catalog:  cat,
		presence: presence,
		logger:   logger,
		interval: interval,
		seen:     make(map[string]signature),
	}
}

// Start polls until ctx is canceled. The first observation of a source
// only records a baseline; scans are enqueued on later changes.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.Info("source watcher started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("source watcher stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Watcher) sweep(ctx context.Context) {
	sources, err := w.catalog.GetSources(ctx)
	if err != nil {
		w.logger.Error("watcher failed to list sources", "error", err)
		return
	}

	for _, source := range sources {
		w.checkSource(ctx, source)
	}
}

func (w *Watcher) checkSource(ctx context.Context, source *catalog.Source) {
	logger := logging.WithSourceID(w.logger, source.ID)

	info, err := os.Stat(source.Path)
	if err != nil || !info.IsDir() {
		if source.Present {
			logger.Warn("source went offline", "path", source.Path)
			if err := w.presence.UpdateSourcePresent(ctx, source.ID, false); err != nil {
				logger.Error("failed to mark source offline", "error", err)
			}
		}
		// Keep the baseline: if the drive comes back with new takes the
		// next sweep picks up the difference.
		return
	}

	if !source.Present {
		logger.Info("source back online", "path", source.Path)
		if err := w.presence.UpdateSourcePresent(ctx, source.ID, true); err != nil {
			logger.Error("failed to mark source online", "error", err)
		}
	}

	sig, err := computeSignature(source.Path)
	if err != nil {
		logger.Error("watcher failed to read source", "error", err)
		return
	}

	prev, ok := w.seen[source.ID]
	w.seen[source.ID] = sig
	if !ok || sig.equal(prev) {
		return
	}

	logger.Info("source changed, enqueuing scan", "takes", sig.count)
	if _, err := w.catalog.ScanSource(ctx, source.ID); err != nil {
		logger.Error("watcher failed to enqueue scan", "error", err)
	}
}

// computeSignature walks the folder the same way the scanner does, so
// the watcher reacts to exactly the files a scan would ingest.
func computeSignature(root string) (signature, error) {
	var sig signature

	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if d.IsDir() || !catalog.IsTakeFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		sig.count++
		if info.ModTime().After(sig.latest) {
			sig.latest = info.ModTime()
		}
		return nil
	})

	return sig, err
}
