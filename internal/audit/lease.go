// internal/audit/lease.go
package audit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

var (
	portsMu sync.Mutex
	ports   = map[int]*semaphore.Weighted{}
)

func portSemaphore(port int) *semaphore.Weighted {
	portsMu.Lock()
	defer portsMu.Unlock()
	sem, ok := ports[port]
	if !ok {
		sem = semaphore.NewWeighted(1)
		ports[port] = sem
	}
	return sem
}

// PortLease is exclusive use of one remote-debugging port. At most one lease per port
// exists in the process at a time.
type PortLease struct {
	port     int
	sem      *semaphore.Weighted
	released atomic.Bool
}

// AcquirePort blocks until port is free or ctx is done.
func AcquirePort(ctx context.Context, port int) (*PortLease, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid debugging port %d", port)
	}
	sem := portSemaphore(port)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to lease debugging port %d: %w", port, err)
	}
	return &PortLease{port: port, sem: sem}, nil
}

// TryAcquirePort leases port only if it is free right now.
func TryAcquirePort(port int) (*PortLease, bool) {
	sem := portSemaphore(port)
	if !sem.TryAcquire(1) {
		return nil, false
	}
	return &PortLease{port: port, sem: sem}, true
}

func (l *PortLease) Port() int { return l.port }

// Held reports whether the lease is still live.
func (l *PortLease) Held() bool { return l != nil && !l.released.Load() }

// Release frees the port. Extra calls are no-ops.
func (l *PortLease) Release() {
	if l.released.CompareAndSwap(false, true) {
		l.sem.Release(1)
	}
}
