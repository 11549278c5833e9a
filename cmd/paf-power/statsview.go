package main

import (
	"github.com/apex/log"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// serveStats exposes the Go runtime statistics of a long analysis run
// on addr under /debug/statsview.
func serveStats(addr string) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()
	log.Infof("Runtime statistics served at http://%s/debug/statsview", addr)
}
