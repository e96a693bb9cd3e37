//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

// Core Audio, the hotkey event tap and GLFW all want the process main
// thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	o := parseFlags()
	if o.gui {
		runGUI(o) // keeps the main thread for the UI loop
		return
	}
	mainthread.Init(func() { runCLI(o) })
}
