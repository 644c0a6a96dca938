// Package lifecycle coordinates subsystem startup and shutdown across the application.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

// Coordinator runs startup hooks concurrently and flips a readiness flag once
// every hook has returned. Shutdown cancels the root context and waits for the
// registered shutdown hooks, bounded by a timeout.
type Coordinator struct {
	root   context.Context
	cancel context.CancelFunc

	up   sync.WaitGroup
	down sync.WaitGroup

	mu    sync.RWMutex
	ready bool
}

// New creates a Coordinator with a cancellable root context.
func New() *Coordinator {
	root, cancel := context.WithCancel(context.Background())
	return &Coordinator{root: root, cancel: cancel}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.root
}

// OnStartup registers a function to run concurrently during startup.
func (c *Coordinator) OnStartup(fn func()) {
	c.up.Go(fn)
}

// OnShutdown registers a function to run concurrently during shutdown.
// Shutdown hooks should block on <-c.Context().Done() before executing cleanup.
func (c *Coordinator) OnShutdown(fn func()) {
	c.down.Go(fn)
}

// Ready reports whether every startup hook has completed.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// WaitForStartup blocks until all startup hooks have completed, then sets the ready flag.
func (c *Coordinator) WaitForStartup() {
	c.up.Wait()
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
}

// Shutdown cancels the context and waits up to timeout for shutdown hooks to finish.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.down.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
