package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/scrape-comb/app/detector"
)

const sendTimeout = 10 * time.Second

// Dispatcher consumes change events emitted by the detection engine and
// forwards them to a notifier, decoupling notification latency and
// failures from the detection transaction.
type Dispatcher struct {
	events   <-chan detector.ChangeEvent
	notifier Notifier
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewDispatcher(events <-chan detector.ChangeEvent, notifier Notifier) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		events:   events,
		notifier: notifier,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		for {
			select {
			case <-d.ctx.Done():
				return
			case event, ok := <-d.events:
				if !ok {
					return
				}
				d.dispatch(event)
			}
		}
	}()
}

func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(event detector.ChangeEvent) {
	message := fmt.Sprintf("Scraper %s detected changes! Check them out at %s", event.ScraperName, event.URL)

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := d.notifier.Send(ctx, message); err != nil {
		slog.Error("Notification failed", "scraper", event.ScraperKnownID, "run_id", event.RunID, "error", err)
		return
	}

	slog.Debug("Notification sent", "scraper", event.ScraperKnownID, "run_id", event.RunID)
}
