package main

import "context"

// runUI has no tray on linux; it just opens the browser UI and waits.
func runUI(ctx context.Context, url string, _, openBrowser bool, _ context.CancelFunc) {
	if openBrowser {
		openWebUI(url)
	}
	<-ctx.Done()
}
