package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/events"
)

// Notifier handles one event at a time.
type Notifier interface {
	EventTypes() []events.EventType
	Handle(ctx context.Context, event events.Event) error
}

// NotificationWorker moves notification delivery off the request path.
// Subscribed events are queued and drained by a single goroutine; when the
// queue is full the event is dropped and logged.
type NotificationWorker struct {
	notifier Notifier
	logger   *zap.Logger
	queue    chan events.Event
	wg       sync.WaitGroup
}

// StartNotificationWorker subscribes notifier to dispatcher and starts the
// drain loop. The loop stops when ctx is cancelled; call Wait to block until
// it has exited.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, notifier Notifier, logger *zap.Logger, buffer int) *NotificationWorker {
	if buffer <= 0 {
		buffer = 64
	}
	w := &NotificationWorker{
		notifier: notifier,
		logger:   logger,
		queue:    make(chan events.Event, buffer),
	}
	for _, eventType := range notifier.EventTypes() {
		dispatcher.Subscribe(eventType, w.enqueue)
	}

	w.wg.Add(1)
	go w.run(ctx)
	return w
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case event := <-w.queue:
			w.handle(event)
		}
	}
}

// drain delivers whatever is already queued at shutdown.
func (w *NotificationWorker) drain() {
	for {
		select {
		case event := <-w.queue:
			w.handle(event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) handle(event events.Event) {
	// request contexts are gone by now; delivery runs detached
	if err := w.notifier.Handle(context.Background(), event); err != nil {
		w.logger.Error("notification failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

// Wait blocks until the drain loop has exited.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}
