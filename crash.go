package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"
)

// initCrashLog appends fatal runtime output (unrecovered panics, fatal
// errors from cgo callbacks) to crash_log.txt in dir.
func initCrashLog(dir string) {
	f, err := os.OpenFile(filepath.Join(dir, "crash_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(f, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	if err := debug.SetCrashOutput(f, debug.CrashOptions{}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: crash log: %v\n", err)
	}
	// the runtime holds its own duplicate of the descriptor
	f.Close()
}
