package server

import "sync"

// taskWatchers wakes up requests waiting for a task to change state.
// Waiters receive an empty struct and should re-read the task.
type taskWatchers struct {
	mu       sync.Mutex
	watchers map[string]map[chan struct{}]struct{}
}

func newTaskWatchers() *taskWatchers {
	return &taskWatchers{watchers: make(map[string]map[chan struct{}]struct{})}
}

// watch returns a channel pinged when task id changes. The caller must call
// unwatch when done.
func (w *taskWatchers) watch(id string) chan struct{} {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	defer w.mu.Unlock()
	set, ok := w.watchers[id]
	if !ok {
		set = make(map[chan struct{}]struct{})
		w.watchers[id] = set
	}
	set[ch] = struct{}{}
	return ch
}

func (w *taskWatchers) unwatch(id string, ch chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if set, ok := w.watchers[id]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(w.watchers, id)
		}
	}
}

// notify pings every watcher of task id without blocking.
func (w *taskWatchers) notify(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.watchers[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
