package shutdown

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestContextCancelledByStop(t *testing.T) {
	ctx, stop := Context(context.Background())
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled by stop")
	}
}

func TestOnSignalCancel(t *testing.T) {
	fired := make(chan os.Signal, 1)
	cancel := OnSignal(func(s os.Signal) { fired <- s })
	cancel()
	cancel()
	select {
	case s := <-fired:
		t.Fatalf("handler ran after cancel: %v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSignalsIncludeInterrupt(t *testing.T) {
	for _, s := range signals {
		if s == os.Interrupt {
			return
		}
	}
	t.Fatalf("signals = %v, want os.Interrupt", signals)
}
