package ui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"
	"github.com/slateflow/slateflow-agent/internal/catalog"
)

const refreshInterval = 10 * time.Second

type Tray struct {
	ctx        context.Context
	catalogSvc catalog.CatalogService
	runner     *catalog.Runner
	logger     *slog.Logger

	statusItem  *systray.MenuItem
	sourcesItem *systray.MenuItem
	pauseItem   *systray.MenuItem

	mu sync.Mutex

	onAddFolder func() error
	onQuit      func()
}

type TrayConfig struct {
	Context        context.Context
	CatalogService catalog.CatalogService
	Runner         *catalog.Runner
	Logger         *slog.Logger
	OnAddFolder    func() error
	OnQuit         func()
}

func NewTray(cfg TrayConfig) *Tray {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Tray{
		ctx:         ctx,
		catalogSvc:  cfg.CatalogService,
		runner:      cfg.Runner,
		logger:      cfg.Logger,
		onAddFolder: cfg.OnAddFolder,
		onQuit:      cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Slateflow")
	systray.SetTooltip("Slateflow Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.sourcesItem = systray.AddMenuItem("Sources: 0", "Watched offload folders")
	t.sourcesItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause", "Pause scan and resolve jobs")

	addFolderItem := systray.AddMenuItem("Add Folder...", "Watch an offload folder")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Slateflow Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-addFolderItem.ClickedCh:
				t.handleAddFolder()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	go t.refreshLoop()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// refreshLoop keeps the status and sources items current while the
// agent runs. It only starts once onReady has built the menu items.
func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

func (t *Tray) refresh() {
	sources, err := t.catalogSvc.GetSources(t.ctx)
	if err == nil {
		t.UpdateSourcesCount(len(sources))
	}

	if t.runner == nil {
		return
	}
	if t.runner.GetActiveJobCount(t.ctx) > 0 {
		t.UpdateStatus("Working")
	} else {
		t.UpdateStatus("Idle")
	}
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) handleAddFolder() {
	if t.onAddFolder != nil {
		if err := t.onAddFolder(); err != nil {
			t.logger.Error("failed to add folder", "error", err)
		}
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateSourcesCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sourcesItem.SetTitle(fmt.Sprintf("Sources: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
