package doctor

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"voicemode/shutdown"
)

// ttyState is stdin's mode when the report started. A hotkey backend
// can leave the terminal raw; resetTerminal puts it back.
var ttyState *term.State

func saveTerminal() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	if st, err := term.GetState(fd); err == nil {
		ttyState = st
	}
}

func resetTerminal() {
	if ttyState != nil {
		term.Restore(int(os.Stdin.Fd()), ttyState)
	}
}

// exitOnInterrupt restores the terminal and exits on Ctrl+C, since the
// interactive checks block on key presses and timeouts.
func exitOnInterrupt() func() {
	return shutdown.OnSignal(func(os.Signal) {
		resetTerminal()
		fmt.Println("\nInterrupted")
		os.Exit(1)
	})
}
