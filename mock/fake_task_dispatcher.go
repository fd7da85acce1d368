package mock_backend

import "github.com/Lerfilm/opendrama-sub004/application/ports/outbound"

// GoroutineDispatcher runs every task on its own goroutine, standing in for
// the shared worker pool.
type GoroutineDispatcher struct{}

var _ outbound.TaskDispatcher = GoroutineDispatcher{}

func (GoroutineDispatcher) Submit(task func()) error {
	go task()
	return nil
}
