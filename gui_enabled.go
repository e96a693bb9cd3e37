//go:build gui

package main

import (
	"runtime"

	"voicemode/gui"
	"voicemode/log"
)

// runGUI builds the app on the main thread, so the audio context is
// created there, then hands the thread to fyne. Edges are served from
// the ready callback.
func runGUI(o options) {
	cfg := bootstrap(o)
	a := setupApp(o, cfg)

	runtime.LockOSThread()

	ui := gui.NewApp(a, a.bridge, func() {
		if err := a.startup(); err != nil {
			log.Errorf("startup: %v", err)
		}
		a.serve()
	})
	a.setFrontend(ui)
	if err := gui.Run(ui); err != nil {
		a.shutdown()
		panic(err)
	}
	a.Quit()
	a.shutdown()
}
