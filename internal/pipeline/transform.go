package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/incident-triage/internal/domain"
	"github.com/couchcryptid/incident-triage/internal/observability"
)

// DispatchTransformer implements Transformer by resolving each classification
// through the dispatch engine.
type DispatchTransformer struct {
	engine  *domain.Engine
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a DispatchTransformer over an already validated engine.
func NewTransformer(engine *domain.Engine, logger *slog.Logger, metrics *observability.Metrics) *DispatchTransformer {
	return &DispatchTransformer{
		engine:  engine,
		logger:  logger,
		metrics: metrics,
	}
}

// Transform parses, validates, and resolves one classification. The record's
// own manual_location field is used as the operator override.
func (t *DispatchTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	c, err := domain.ParseClassification(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	if err := c.Validate(); err != nil {
		return domain.OutputEvent{}, err
	}

	res := t.engine.Resolve(c, c.ManualLocation)
	t.observe(res)

	t.logger.Debug("dispatch resolved",
		"id", res.Record.ID,
		"line", raw.Line,
		"disaster_type", res.Record.DisasterType,
		"final_severity", res.Record.FinalSeverity,
		"unit", res.Record.RecommendedUnit,
	)

	return domain.SerializeDispatch(res.Record)
}

func (t *DispatchTransformer) observe(res domain.Resolution) {
	if res.SeverityDefaulted {
		t.metrics.Fallbacks.WithLabelValues("severity").Inc()
	}
	if res.ChecklistDefaulted {
		t.metrics.Fallbacks.WithLabelValues("checklist").Inc()
	}
	if res.UnitDefaulted {
		t.metrics.Fallbacks.WithLabelValues("unit").Inc()
	}
	if res.StatusDefaulted {
		t.metrics.Fallbacks.WithLabelValues("resource_status").Inc()
	}
	if res.Severity.LifeThreat {
		t.metrics.Boosts.WithLabelValues("life_threat").Inc()
	}
	if res.Severity.RegionalHazard {
		t.metrics.Boosts.WithLabelValues("regional").Inc()
	}
	if res.Severity.Clamped {
		t.metrics.SeverityClamped.Inc()
	}
	t.metrics.FinalSeverity.Observe(res.Record.FinalSeverity)
}
