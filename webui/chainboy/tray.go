//go:build !linux

package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/getlantern/systray"
)

// runUI shows the systray menu and blocks until Quit is picked or ctx ends.
func runUI(ctx context.Context, url string, tray, openBrowser bool, quit context.CancelFunc) {
	if !tray {
		if openBrowser {
			openWebUI(url)
		}
		<-ctx.Done()
		return
	}

	go func() {
		<-ctx.Done()
		systray.Quit()
	}()

	systray.Run(func() { trayStart(url, openBrowser, quit) }, func() {
		log.Info("tray closed")
		quit()
	})
}

func trayStart(url string, openBrowser bool, quit context.CancelFunc) {
	systray.SetTitle("ChainBoy")
	systray.SetTooltip("ChainBoy - play and vault your saves")
	mOpenWeb := systray.AddMenuItem("Web UI", "Opens the web UI in the default browser")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit")

	if openBrowser {
		openWebUI(url)
	}

	// Menu item click handler:
	go func() {
		for {
			select {
			case <-mOpenWeb.ClickedCh:
				openWebUI(url)
			case <-mQuit.ClickedCh:
				log.Info("requesting quit")
				quit()
				systray.Quit()
				return
			}
		}
	}()
}
