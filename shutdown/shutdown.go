// Package shutdown routes termination signals to whoever owns teardown.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// Notify relays termination signals to ch.
func Notify(ch chan<- os.Signal) {
	signal.Notify(ch, signals...)
}

// Stop undoes Notify.
func Stop(ch chan<- os.Signal) {
	signal.Stop(ch)
}

// Context is cancelled by the first termination signal or by the returned
// stop func.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// OnSignal runs fn once, on its own goroutine, after the first
// termination signal. The returned func cancels the watch.
func OnSignal(fn func(os.Signal)) (cancel func()) {
	ch := make(chan os.Signal, 1)
	done := make(chan struct{})
	Notify(ch)
	go func() {
		select {
		case s := <-ch:
			fn(s)
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			Stop(ch)
			close(done)
		})
	}
}
