// Package poller drives the unit on two cadences: a hard cadence that polls
// the cloud and a soft cadence that pushes the cache to sinks.
package poller

import (
	"context"
	"log/slog"
	"time"

	"que_bridge/internal/request"
	"que_bridge/internal/types"
)

// Refresher polls the cloud.
type Refresher interface {
	Refresh(ctx context.Context) (types.HvacStatus, error)
}

// Sink receives the cached state.
type Sink interface {
	Publish() error
}

// Poller runs the refresh and publish cadences.
type Poller struct {
	unit    Refresher
	sinks   []Sink
	hard    time.Duration
	soft    time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Poller. hard is the cloud poll interval, soft the sink push
// interval and timeout bounds each refresh.
func New(unit Refresher, hard, soft, timeout time.Duration, logger *slog.Logger, sinks ...Sink) *Poller {
	return &Poller{
		unit:    unit,
		sinks:   sinks,
		hard:    hard,
		soft:    soft,
		timeout: timeout,
		logger:  logger,
	}
}

// Run blocks until ctx is done or a refresh fails fatally. The fatal error is
// returned; cancellation returns nil.
func (p *Poller) Run(ctx context.Context) error {
	hard := time.NewTicker(p.hard)
	defer hard.Stop()

	var softC <-chan time.Time
	if p.soft > 0 && len(p.sinks) > 0 {
		soft := time.NewTicker(p.soft)
		defer soft.Stop()
		softC = soft.C
	}

	p.logger.Info("Poller started", "refresh_interval", p.hard, "soft_refresh_interval", p.soft)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopped")
			return nil
		case <-hard.C:
			if err := p.refresh(ctx); err != nil {
				return err
			}
			p.publish()
		case <-softC:
			p.publish()
		}
	}
}

func (p *Poller) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	status, err := p.unit.Refresh(ctx)
	if err != nil {
		if request.IsFatal(err) {
			p.logger.Error("Refresh failed, stopping poller", "error", err)
			return err
		}
		p.logger.Warn("Refresh failed", "error", err)
		return nil
	}
	if status.APIError {
		p.logger.Debug("Cloud unreachable, serving cached state")
	}
	return nil
}

func (p *Poller) publish() {
	for _, s := range p.sinks {
		if err := s.Publish(); err != nil {
			p.logger.Warn("Failed to publish state", "error", err)
		}
	}
}
