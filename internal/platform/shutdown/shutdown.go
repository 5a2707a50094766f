// Package shutdown ties process lifetime to termination signals.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ErrSignaled is the cancel cause of a context ended by a signal.
var ErrSignaled = errors.New("shutdown signal received")

// Context is canceled with a cause wrapping ErrSignaled on the first
// SIGINT or SIGTERM. A second signal exits the process with status 1, so
// an operator can cut a slow drain short. The returned stop releases the
// signal handler and must be called.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, stop := watch(parent, sigs, func(sig os.Signal) {
		fmt.Fprintf(os.Stderr, "received %s again, exiting\n", sig)
		os.Exit(1)
	})
	return ctx, func() {
		signal.Stop(sigs)
		stop()
	}
}

func watch(parent context.Context, sigs <-chan os.Signal, force func(os.Signal)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	stopped := make(chan struct{})
	var once sync.Once

	go func() {
		select {
		case sig := <-sigs:
			cancel(fmt.Errorf("%w: %s", ErrSignaled, sig))
		case <-stopped:
			return
		}
		select {
		case sig := <-sigs:
			force(sig)
		case <-stopped:
		}
	}()

	return ctx, func() {
		once.Do(func() { close(stopped) })
		cancel(nil)
	}
}
