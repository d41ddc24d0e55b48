package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/logger"
)

// StatsSource computes collection stats.
type StatsSource interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

// StatsGauge publishes collection size and click totals.
type StatsGauge interface {
	SetStored(items int, clicks int64)
}

// StatsCollector refreshes the stored-collection gauges every interval.
type StatsCollector struct {
	source  StatsSource
	gauge   StatsGauge
	logger  logger.Logger
	loop    *loop
	started atomic.Bool
}

// NewStatsCollector creates a collector.
func NewStatsCollector(source StatsSource, gauge StatsGauge, log logger.Logger, interval time.Duration) *StatsCollector {
	return &StatsCollector{
		source: source,
		gauge:  gauge,
		logger: log.With(logger.String("component", "stats_collector")),
		loop:   newLoop(interval, nil),
	}
}

// Start collects once and then every interval.
func (sc *StatsCollector) Start(ctx context.Context) {
	sc.Collect(ctx)
	sc.started.Store(true)
	sc.loop.start(ctx, func(ctx context.Context, _ bool) { sc.Collect(ctx) })
}

// Stop stops the collector
func (sc *StatsCollector) Stop() {
	sc.loop.stop(sc.started.Load())
}

// Collect reads stats once and updates the gauges. Failures keep the previous values.
func (sc *StatsCollector) Collect(ctx context.Context) {
	stats, err := sc.source.Stats(ctx)
	if err != nil {
		sc.logger.Warn("failed to collect stats", logger.Error(err))
		return
	}
	sc.gauge.SetStored(stats.TotalItems, stats.TotalClicks)
	sc.logger.Debug("stats collected",
		logger.Int("items", stats.TotalItems),
		logger.Int64("clicks", stats.TotalClicks))
}
