//go:build !linux

package devicewatch

import "context"

// Watcher is a no-op stand-in on platforms without udev.
type Watcher struct {
	Removed chan struct{}
}

// New builds a no-op watcher.
func New(vendorProduct string) *Watcher {
	return &Watcher{Removed: make(chan struct{})}
}

// Run blocks until ctx is canceled and never signals Removed.
func (w *Watcher) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
