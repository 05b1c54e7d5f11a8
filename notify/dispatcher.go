package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"watchtower/config"
	"watchtower/core"
	"watchtower/metrics"
)

// Dispatcher fans alerts out to the configured channels. Enqueue never
// blocks: when the queue is full the alert notification is dropped and
// counted, and the alert itself stays queryable in the alert store.
//
// Each channel has its own circuit breaker so a dead integration is
// skipped instead of eating its timeout on every alert, and a global rate
// limiter caps dispatch throughput. Critical-event alerts bypass
// cooldown, so without the cap a sustained attack would be amplified
// into a notification storm.
type Dispatcher struct {
	queue    chan *core.SecurityAlert
	channels map[string]Channel
	settings *config.Runtime
	breakers map[string]*core.CircuitBreaker
	limiter  *rate.Limiter
	timeout  time.Duration
	workers  int
	logger   *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a stopped dispatcher; call Start to spawn the
// workers.
func NewDispatcher(cfg config.NotifyConfig, settings *config.Runtime, channels map[string]Channel, logger *zap.SugaredLogger) *Dispatcher {
	breakerCfg := core.CircuitBreakerConfig{
		MaxFailures:         uint32(cfg.CircuitBreaker.MaxFailures),
		Timeout:             time.Duration(cfg.CircuitBreaker.TimeoutSeconds) * time.Second,
		MaxHalfOpenRequests: uint32(cfg.CircuitBreaker.MaxHalfOpenRequests),
	}
	if breakerCfg.Validate() != nil {
		breakerCfg = core.DefaultCircuitBreakerConfig()
	}

	breakers := make(map[string]*core.CircuitBreaker, len(channels))
	for name := range channels {
		breakers[name] = core.MustNewCircuitBreaker(breakerCfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		queue:    make(chan *core.SecurityAlert, cfg.QueueSize),
		channels: channels,
		settings: settings,
		breakers: breakers,
		limiter:  rate.NewLimiter(rate.Limit(cfg.DispatchRatePerSecond), cfg.DispatchBurst),
		timeout:  time.Duration(cfg.ChannelTimeoutSeconds) * time.Second,
		workers:  cfg.Workers,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start spawns the dispatch workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.logger.Infow("Notification dispatcher started", "workers", d.workers, "queue_size", cap(d.queue))
}

// Stop cancels in-flight waits and joins the workers. Alerts still queued
// are dropped; dispatch is fire-and-forget by design.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
	d.logger.Infow("Notification dispatcher stopped", "undelivered", len(d.queue))
}

// Enqueue hands an alert to the worker pool without blocking. It reports
// false when the queue is full.
func (d *Dispatcher) Enqueue(alert *core.SecurityAlert) bool {
	select {
	case d.queue <- alert:
		return true
	default:
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case alert := <-d.queue:
			d.dispatch(alert)
		}
	}
}

// dispatch sends one alert to every active channel in order. Failures are
// isolated per channel: one broken integration never masks alerts on the
// others.
func (d *Dispatcher) dispatch(alert *core.SecurityAlert) {
	if err := d.limiter.Wait(d.ctx); err != nil {
		return
	}

	for _, name := range d.settings.Channels() {
		channel, ok := d.channels[name]
		if !ok {
			d.logger.Warnw("Unknown notification channel configured", "channel", name)
			continue
		}

		breaker := d.breakers[name]
		if err := breaker.Allow(); err != nil {
			d.logger.Warnw("Circuit breaker open, skipping channel", "channel", name, "alert_id", alert.AlertID)
			continue
		}

		metrics.DispatchAttempts.WithLabelValues(name).Inc()

		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		err := channel.Send(ctx, alert)
		cancel()

		if err != nil {
			breaker.RecordFailure()
			metrics.DispatchFailures.WithLabelValues(name).Inc()
			d.logger.Errorw("Alert dispatch failed",
				"alert_id", alert.AlertID, "error", core.NewDispatchError(name, err))
			continue
		}
		breaker.RecordSuccess()
	}
}
