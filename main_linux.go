//go:build linux

package main

func main() {
	o := parseFlags()
	if o.gui {
		runGUI(o)
		return
	}
	runCLI(o)
}
