// Package ui provides the system tray surface. The tray shows the engine's
// readiness and the current catalog counts; all real work happens over the
// HTTP API.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
	"github.com/spotforge/spotforge-agent/internal/engine"
)

// EngineStatus reports the media engine's readiness state.
type EngineStatus interface {
	State() engine.State
}

type Tray struct {
	engine EngineStatus
	logger *slog.Logger

	engineItem    *systray.MenuItem
	clipsItem     *systray.MenuItem
	sequencesItem *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Engine EngineStatus
	Logger *slog.Logger
	OnQuit func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		engine: cfg.Engine,
		logger: cfg.Logger,
		onQuit: cfg.OnQuit,
	}
}

// Run blocks until the tray quits. Must run on the main goroutine on
// platforms where the system tray requires it.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Spotforge")
	systray.SetTooltip("Spotforge Agent")

	t.engineItem = systray.AddMenuItem("Engine: uninitialized", "Media engine state")
	t.engineItem.Disable()

	t.clipsItem = systray.AddMenuItem("Clips: 0", "Clips in the catalog")
	t.clipsItem.Disable()

	t.sequencesItem = systray.AddMenuItem("Sequences: 0", "Current generation batch")
	t.sequencesItem.Disable()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Spotforge Agent")

	go func() {
		<-quitItem.ClickedCh
		t.logger.Info("quit requested from tray")
		if t.onQuit != nil {
			t.onQuit()
		}
		systray.Quit()
	}()

	if t.engine != nil {
		t.UpdateEngineState(t.engine.State())
	}

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) UpdateEngineState(state engine.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.engineItem == nil {
		return
	}
	t.engineItem.SetTitle("Engine: " + state.String())
}

func (t *Tray) UpdateClipsCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clipsItem == nil {
		return
	}
	t.clipsItem.SetTitle(fmt.Sprintf("Clips: %d", count))
}

func (t *Tray) UpdateSequencesCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sequencesItem == nil {
		return
	}
	t.sequencesItem.SetTitle(fmt.Sprintf("Sequences: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
