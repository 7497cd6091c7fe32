// Package nav is the process-wide navigation event source.
//
// Client-side routers change the visible location through two programmatic
// entry points (push and replace) plus the history back/forward mechanism.
// Wrap patches the programmatic entry points exactly once so every
// navigation, whichever door it came through, lands on one observable
// stream. Back/forward navigations are injected with NotifyPop.
//
// The patch is never unwound: independent subscribers may rely on it
// staying applied. Subscriptions, by contrast, are individually removable,
// so a detector reconfiguring itself never accumulates duplicate handlers.
package nav

import "sync"

// Router is a programmatic navigation surface: the two entry points
// client-side routers expose for changing location without a full load.
type Router interface {
	// Push navigates to path, adding a history entry.
	Push(path string)
	// Replace navigates to path, replacing the current history entry.
	Replace(path string)
}

// Action discriminates how a navigation happened.
type Action string

// Navigation actions.
const (
	ActionPush    Action = "push"
	ActionReplace Action = "replace"
	ActionPop     Action = "pop"
)

// Event is one observed navigation.
type Event struct {
	Action Action
	Path   string
}

// subscriberBuffer is the per-subscriber channel capacity. Emission never
// blocks a navigation call; a subscriber that falls this far behind loses
// the oldest-unread events.
const subscriberBuffer = 8

// source is the process-wide singleton.
var source = &eventSource{
	subs:    make(map[int]chan Event),
	wrapped: make(map[Router]*wrappedRouter),
}

type eventSource struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	wrapped map[Router]*wrappedRouter
}

// wrappedRouter forwards to the underlying router, then emits one event per
// call. Its type doubles as the idempotence marker for Wrap.
type wrappedRouter struct {
	inner Router
}

func (w *wrappedRouter) Push(path string) {
	w.inner.Push(path)
	source.emit(Event{Action: ActionPush, Path: path})
}

func (w *wrappedRouter) Replace(path string) {
	w.inner.Replace(path)
	source.emit(Event{Action: ActionReplace, Path: path})
}

// Wrap returns a router whose Push and Replace emit navigation events.
// Idempotent: wrapping an already-wrapped router, or re-wrapping the same
// underlying router, yields the existing wrapper, so exactly one event fires
// per navigation call no matter how many times Wrap ran.
func Wrap(r Router) Router {
	if w, ok := r.(*wrappedRouter); ok {
		return w
	}

	source.mu.Lock()
	defer source.mu.Unlock()
	if w, ok := source.wrapped[r]; ok {
		return w
	}
	w := &wrappedRouter{inner: r}
	source.wrapped[r] = w
	return w
}

// Subscribe registers a listener on the navigation stream. The returned id
// releases the subscription via Unsubscribe.
func Subscribe() (int, <-chan Event) {
	source.mu.Lock()
	defer source.mu.Unlock()

	id := source.nextID
	source.nextID++
	ch := make(chan Event, subscriberBuffer)
	source.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener. Unknown ids are ignored. The underlying
// router patch stays in place.
func Unsubscribe(id int) {
	source.mu.Lock()
	defer source.mu.Unlock()

	if ch, ok := source.subs[id]; ok {
		delete(source.subs, id)
		close(ch)
	}
}

// NotifyPop injects a back/forward navigation into the stream. The host
// application calls this from whatever mechanism observes history traversal.
func NotifyPop(path string) {
	source.emit(Event{Action: ActionPop, Path: path})
}

func (s *eventSource) emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is saturated; dropping beats blocking the
			// navigation call.
		}
	}
}
