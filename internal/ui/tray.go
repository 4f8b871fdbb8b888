// Package ui provides the system tray surface: a live status line, the slot
// census and a quit item. Headless deployments skip it entirely.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
)

type Tray struct {
	logger *slog.Logger

	statusItem *systray.MenuItem
	slotsItem  *systray.MenuItem
	addrItem   *systray.MenuItem

	mu sync.Mutex

	apiAddr string
	onQuit  func()
}

type TrayConfig struct {
	Logger  *slog.Logger
	APIAddr string
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		logger:  cfg.Logger,
		apiAddr: cfg.APIAddr,
		onQuit:  cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Clipdeck")
	systray.SetTooltip("Clipdeck Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current recorder state")
	t.statusItem.Disable()

	t.slotsItem = systray.AddMenuItem("Slots bound: 0", "Bound media slots")
	t.slotsItem.Disable()

	systray.AddSeparator()

	t.addrItem = systray.AddMenuItem("API: "+t.apiAddr, "Local API address")
	t.addrItem.Disable()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Clipdeck Agent")

	go func() {
		for range quitItem.ClickedCh {
			t.logger.Info("quit requested from tray")
			if t.onQuit != nil {
				t.onQuit()
			}
			systray.Quit()
			return
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// UpdateStatus replaces the status line. Safe before onReady has run.
func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.statusItem == nil {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateSlotCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.slotsItem == nil {
		return
	}
	t.slotsItem.SetTitle(fmt.Sprintf("Slots bound: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
