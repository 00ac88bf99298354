package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/incident-triage/internal/domain"
	"github.com/couchcryptid/incident-triage/internal/observability"
	"github.com/jonboulle/clockwork"
)

// BatchExtractor reads up to batchSize raw events from the source. It returns
// io.EOF once the source is exhausted.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw event into an output event.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes multiple output events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Summary describes one completed run.
type Summary struct {
	Consumed   int           `json:"consumed"`
	Produced   int           `json:"produced"`
	Rejected   int           `json:"rejected"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	ready       atomic.Bool
	batchSize   int

	mu       sync.Mutex
	progress Summary
}

// New creates a Pipeline with the given stages and observability. A nil
// clock uses real time.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, batchSize int) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has loaded at least one batch,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced any dispatch records yet")
	}
	return nil
}

// Progress returns the counts of the run in progress, or of the last
// finished run. Duration is zero until a run finishes.
func (p *Pipeline) Progress() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

func (p *Pipeline) publish(sum Summary) {
	p.mu.Lock()
	p.progress = sum
	p.mu.Unlock()
}

// Run processes batches until the source is exhausted or the context is
// cancelled. Per-record failures are logged and skipped; extract and load
// failures stop the run.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	sum := Summary{StartedAt: p.clock.Now()}
	p.publish(sum)
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	err := p.loop(ctx, &sum)

	sum.FinishedAt = p.clock.Now()
	sum.Duration = sum.FinishedAt.Sub(sum.StartedAt)
	p.publish(sum)
	p.logger.Info("pipeline finished",
		"consumed", sum.Consumed,
		"produced", sum.Produced,
		"rejected", sum.Rejected,
		"duration", sum.Duration,
	)
	return sum, err
}

func (p *Pipeline) loop(ctx context.Context, sum *Summary) error {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return ctx.Err()
		default:
		}

		done, err := p.processBatch(ctx, sum)
		p.publish(*sum)
		if err != nil || done {
			return err
		}
	}
}

// processBatch runs one extract-transform-load cycle. It reports done when
// the source is exhausted.
func (p *Pipeline) processBatch(ctx context.Context, sum *Summary) (bool, error) {
	start := p.clock.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil && len(rawBatch) == 0 {
		return false, fmt.Errorf("extract batch: %w", err)
	}

	if len(rawBatch) > 0 {
		sum.Consumed += len(rawBatch)
		p.metrics.RecordsConsumed.Add(float64(len(rawBatch)))
		p.metrics.BatchSize.Observe(float64(len(rawBatch)))

		loaded, loadErr := p.transformAndLoad(ctx, rawBatch, sum)
		if loadErr != nil {
			return false, loadErr
		}
		if loaded > 0 {
			p.metrics.BatchProcessingDuration.Observe(p.clock.Since(start).Seconds())
			p.ready.Store(true)
		}
	}

	// A read error after a partial batch surfaces once that batch is saved.
	if err != nil {
		return false, fmt.Errorf("extract batch: %w", err)
	}
	return false, nil
}

// transformAndLoad transforms each record in the batch and loads the
// successes. Returns the number of loaded records.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawEvent, sum *Summary) (int, error) {
	outBatch := make([]domain.OutputEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("record rejected, skipping",
				"error", err,
				"source", raw.Source,
				"line", raw.Line,
			)
			p.metrics.RecordsRejected.WithLabelValues(rejectReason(err)).Inc()
			sum.Rejected++
			continue
		}
		outBatch = append(outBatch, out)
	}

	if len(outBatch) == 0 {
		return 0, nil
	}

	if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
		return 0, fmt.Errorf("load batch: %w", err)
	}

	sum.Produced += len(outBatch)
	p.metrics.DispatchesProduced.Add(float64(len(outBatch)))
	return len(outBatch), nil
}

func rejectReason(err error) string {
	if errors.Is(err, domain.ErrMissingReportText) {
		return "validation"
	}
	return "parse"
}
