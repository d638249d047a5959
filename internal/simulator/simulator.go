package simulator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"sensor-alert-service/internal/alerting"
	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/metrics"
	"sensor-alert-service/internal/models"
)

// Reading ranges for synthesized samples.
const (
	tempLow      = 15.0
	tempHigh     = 40.0
	humidityLow  = 40.0
	humidityHigh = 95.0
)

type State int32

const (
	StateIdle State = iota
	StateEvaluating
)

func (s State) String() string {
	if s == StateEvaluating {
		return "Evaluating"
	}
	return "Idle"
}

type ConfigSource interface {
	GetCurrentConfig(ctx context.Context) (*models.ThresholdConfig, error)
}

type AlertStore interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
}

type Notifier interface {
	Notify(alert models.Alert)
}

type ReadingPublisher interface {
	PublishReading(reading models.SensorReading) error
}

type Options struct {
	Warmup      time.Duration
	MinInterval time.Duration
	MaxInterval time.Duration
	Backoff     time.Duration
}

// Simulator drives the synthetic sensor feed: one cycle at a time, with a
// random pause between cycles and a fixed backoff after a failed one.
type Simulator struct {
	configs   ConfigSource
	alerts    AlertStore
	notifier  Notifier
	publisher ReadingPublisher
	opts      Options
	rng       *rand.Rand
	state     atomic.Int32
	logger    *logging.Logger
}

func New(configs ConfigSource, alerts AlertStore, notifier Notifier, opts Options, logger *logging.Logger) *Simulator {
	if opts.MaxInterval < opts.MinInterval {
		opts.MaxInterval = opts.MinInterval
	}
	return &Simulator{
		configs:  configs,
		alerts:   alerts,
		notifier: notifier,
		opts:     opts,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger.WithField("component", "simulator"),
	}
}

// WithPublisher mirrors every synthesized reading to p.
func (s *Simulator) WithPublisher(p ReadingPublisher) *Simulator {
	s.publisher = p
	return s
}

func (s *Simulator) State() State {
	return State(s.state.Load())
}

// Run blocks until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	s.logger.Infof("Sensor feed starting in %s", s.opts.Warmup)
	if !sleep(ctx, s.opts.Warmup) {
		s.logger.Infof("Sensor feed stopped before first cycle")
		return
	}

	for {
		err := s.safeCycle(ctx)
		if ctx.Err() != nil {
			s.logger.Infof("Sensor feed stopped")
			return
		}

		wait := s.nextInterval()
		if err != nil {
			metrics.SimulatorCycleFailures.Inc()
			s.logger.Errorf("Sensor feed cycle failed, retrying in %s: %v", s.opts.Backoff, err)
			wait = s.opts.Backoff
		}
		if !sleep(ctx, wait) {
			s.logger.Infof("Sensor feed stopped")
			return
		}
	}
}

func (s *Simulator) safeCycle(ctx context.Context) (err error) {
	s.state.Store(int32(StateEvaluating))
	defer s.state.Store(int32(StateIdle))
	defer func() {
		if r := recover(); r != nil {
			metrics.PanicsRecovered.WithLabelValues("simulator").Inc()
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	return s.Cycle(ctx)
}

// Cycle loads the active config, synthesizes one reading, and persists then
// notifies every alert it produces. A missing config skips the cycle.
func (s *Simulator) Cycle(ctx context.Context) error {
	cfg, err := s.configs.GetCurrentConfig(ctx)
	if errors.Is(err, models.ErrNotFound) {
		metrics.SimulatorSkippedCycles.Inc()
		s.logger.Warnf("No active threshold config, skipping cycle")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reading, err := s.synthesize()
	if err != nil {
		return err
	}
	metrics.ReadingsTotal.Inc()
	s.logger.Debugf("Reading temperature=%.2f humidity=%.2f", reading.Temperature(), reading.Humidity())

	if s.publisher != nil {
		if err := s.publisher.PublishReading(reading); err != nil {
			s.logger.Warnf("Reading mirror failed: %v", err)
		}
	}

	alerts, err := alerting.Evaluate(reading, cfg)
	if err != nil {
		return fmt.Errorf("evaluate reading: %w", err)
	}

	for _, alert := range alerts {
		if err := s.alerts.CreateAlert(ctx, alert); err != nil {
			return fmt.Errorf("persist %s alert: %w", alert.Type, err)
		}
		metrics.AlertsGeneratedTotal.WithLabelValues(string(alert.Type)).Inc()
		s.logger.WithFields(map[string]interface{}{
			"alert_id":  alert.ID,
			"type":      alert.Type,
			"value":     alert.Value,
			"threshold": alert.Threshold,
		}).Infof("Threshold breached")
		s.notifier.Notify(*alert)
	}
	return nil
}

func (s *Simulator) synthesize() (models.SensorReading, error) {
	temperature := round2(tempLow + s.rng.Float64()*(tempHigh-tempLow))
	humidity := round2(humidityLow + s.rng.Float64()*(humidityHigh-humidityLow))
	return models.NewSensorReading(temperature, humidity)
}

// nextInterval is uniform over [MinInterval, MaxInterval] at millisecond grain.
func (s *Simulator) nextInterval() time.Duration {
	span := (s.opts.MaxInterval - s.opts.MinInterval).Milliseconds()
	if span <= 0 {
		return s.opts.MinInterval
	}
	return s.opts.MinInterval + time.Duration(s.rng.Int63n(span+1))*time.Millisecond
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// sleep returns false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
