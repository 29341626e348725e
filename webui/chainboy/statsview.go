package main

import (
	"github.com/charmbracelet/log"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const statsViewPath = "/debug/statsview"

// launchStatsView starts the runtime charts server on addr. The returned func stops it.
func launchStatsView(addr string) (stop func()) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	log.Info("stats server available", "url", "http://"+addr+statsViewPath)
	return mgr.Stop
}
