//go:build !gui

package main

import (
	"fmt"
	"os"
)

func runGUI(options) {
	fmt.Fprintln(os.Stderr, "voicemode: built without GUI support (rebuild with -tags gui)")
	os.Exit(1)
}
