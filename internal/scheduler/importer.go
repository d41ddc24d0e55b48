package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/routine/internal/domain"
	"github.com/MrSnakeDoc/routine/internal/logger"
	"github.com/MrSnakeDoc/routine/internal/routine"
)

// Loader yields create inputs from an external source.
type Loader interface {
	Name() string
	Load() ([]domain.CreateInput, error)
}

// ImportTarget stores what a Loader produced.
type ImportTarget interface {
	ImportMissing(ctx context.Context, source string, inputs []domain.CreateInput) (routine.ImportResult, error)
}

// ImportRecorder observes import runs. *metrics.Metrics satisfies it.
type ImportRecorder interface {
	RecordImport(source string, created int, err error)
}

// Importer periodically copies links from its loaders into the store.
// Links whose URL is already stored are left alone.
type Importer struct {
	loaders  []Loader
	target   ImportTarget
	recorder ImportRecorder
	logger   logger.Logger
	loop     *loop
	started  atomic.Bool
}

// NewImporter creates an importer. manualTrigger may be nil; rec may be nil.
func NewImporter(
	loaders []Loader,
	target ImportTarget,
	rec ImportRecorder,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *Importer {
	return &Importer{
		loaders:  loaders,
		target:   target,
		recorder: rec,
		logger:   log.With(logger.String("component", "importer")),
		loop:     newLoop(interval, manualTrigger),
	}
}

// Start imports once, then keeps importing every interval and on manual trigger.
// A failed initial import is logged, not fatal.
func (im *Importer) Start(ctx context.Context) {
	if err := im.Reload(ctx); err != nil {
		im.logger.Warn("initial import failed", logger.Error(err))
	}

	im.started.Store(true)
	im.loop.start(ctx, func(ctx context.Context, manual bool) {
		if manual {
			im.logger.Info("manual reload triggered")
		}
		if err := im.Reload(ctx); err != nil {
			im.logger.Error("failed to import links", logger.Error(err))
		}
	})
}

// Stop stops the importer
func (im *Importer) Stop() {
	im.loop.stop(im.started.Load())
}

// Reload runs every loader once. One failing loader does not stop the others.
func (im *Importer) Reload(ctx context.Context) error {
	var errs []error
	for _, l := range im.loaders {
		created, err := im.importOne(ctx, l)
		if im.recorder != nil {
			im.recorder.RecordImport(l.Name(), created, err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (im *Importer) importOne(ctx context.Context, l Loader) (int, error) {
	inputs, err := l.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load: %w", err)
	}

	res, err := im.target.ImportMissing(ctx, l.Name(), inputs)
	if err != nil {
		return res.Created, fmt.Errorf("failed to import: %w", err)
	}

	im.logger.Info("imported links",
		logger.String("source", l.Name()),
		logger.Int("loaded", len(inputs)),
		logger.Int("created", res.Created),
		logger.Int("duplicate", res.Duplicate),
		logger.Int("invalid", res.Invalid))
	return res.Created, nil
}
