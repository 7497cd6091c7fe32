package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/freshen-dev/freshen/log"
)

// DefaultWatchInterval is the default probe period for the watcher.
const DefaultWatchInterval = 15 * time.Second

// Watcher polls a Prober and announces offline-to-online transitions.
// The detector uses the recovery signal to check immediately when the
// network comes back instead of waiting out the poll interval.
type Watcher struct {
	prober   Prober
	interval time.Duration
	logger   *log.Logger

	recovered chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewWatcher creates a watcher. A zero interval uses DefaultWatchInterval;
// a nil logger discards.
func NewWatcher(prober Prober, interval time.Duration, logger *log.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Watcher{
		prober:   prober,
		interval: interval,
		logger:   logger,
		// Buffered: a recovery observed while the consumer is mid-check
		// must not be lost, but repeated recoveries collapse into one.
		recovered: make(chan struct{}, 1),
	}
}

// Recovered signals each offline-to-online transition. At most one signal
// is buffered; consumers that are busy see coalesced recoveries.
func (w *Watcher) Recovered() <-chan struct{} {
	return w.recovered
}

// Start launches the watch loop. Safe to call once per Stop cycle.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.running = true
	go w.watch(ctx)
}

// Stop cancels the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.running = false
	w.mu.Unlock()

	cancel()
	<-done
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	online := w.prober.Online(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := w.prober.Online(ctx)
			if now && !online {
				w.logger.Info("connectivity recovered", nil)
				select {
				case w.recovered <- struct{}{}:
				default:
				}
			}
			online = now
		}
	}
}
