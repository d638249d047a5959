package notification

import (
	"context"
	"sync"
	"time"

	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/metrics"
	"sensor-alert-service/internal/models"
)

// Sink delivers an alert to one outbound channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert models.Alert) error
}

// Dispatcher fans alerts out to every sink from a bounded queue.
// Notify never blocks; alerts are dropped when the queue is full.
type Dispatcher struct {
	queue       chan models.Alert
	sinks       []Sink
	workers     int
	sendTimeout time.Duration
	logger      *logging.Logger
}

func NewDispatcher(queueSize, workers int, logger *logging.Logger, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		queue:       make(chan models.Alert, queueSize),
		sinks:       sinks,
		workers:     workers,
		sendTimeout: 10 * time.Second,
		logger:      logger,
	}
}

// Notify enqueues an alert for delivery.
func (d *Dispatcher) Notify(alert models.Alert) {
	select {
	case d.queue <- alert:
		metrics.NotificationQueueSize.Set(float64(len(d.queue)))
		d.logger.Debugf("Queued alert %d for dispatch", alert.ID)
	default:
		metrics.NotificationsDropped.Inc()
		d.logger.Errorf("Dispatch queue full, dropping alert %d", alert.ID)
	}
}

// Start launches the worker pool; workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context, wg *sync.WaitGroup) {
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go d.worker(ctx, wg, i)
	}
}

func (d *Dispatcher) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.logger.Infof("Dispatch worker %d stopped", id)
			return
		case alert := <-d.queue:
			metrics.NotificationQueueSize.Set(float64(len(d.queue)))
			d.dispatch(ctx, alert)
		}
	}
}

// dispatch hands the alert to each sink in turn. One sink failing does not
// stop the others.
func (d *Dispatcher) dispatch(ctx context.Context, alert models.Alert) {
	for _, sink := range d.sinks {
		d.send(ctx, sink, alert)
	}
}

func (d *Dispatcher) send(ctx context.Context, sink Sink, alert models.Alert) {
	defer func() {
		if r := recover(); r != nil {
			metrics.PanicsRecovered.WithLabelValues("sink_" + sink.Name()).Inc()
			metrics.NotificationsTotal.WithLabelValues(sink.Name(), "failed").Inc()
			d.logger.Errorf("Sink %s panicked on alert %d: %v", sink.Name(), alert.ID, r)
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := sink.Send(sendCtx, alert); err != nil {
		metrics.NotificationsTotal.WithLabelValues(sink.Name(), "failed").Inc()
		d.logger.Errorf("Dispatch error via %s for alert %d: %v", sink.Name(), alert.ID, err)
		return
	}
	metrics.NotificationsTotal.WithLabelValues(sink.Name(), "success").Inc()
	d.logger.Debugf("Alert %d dispatched via %s", alert.ID, sink.Name())
}
