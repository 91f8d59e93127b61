package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

// CreateFunc performs the target platform's create operation for one item.
type CreateFunc func(ctx context.Context) (*migration.TargetRef, error)

// PlanItem is one confirmed canonical item awaiting apply.
type PlanItem struct {
	Origin migration.OriginKey
	Label  string
	Create CreateFunc
}

// ApplyEngine iterates confirmed items strictly in plan order, invoking the
// target's create operation per item. A single item's failure is logged and
// counted but never aborts the batch, and there is no automatic retry of
// failed creates: failures are surfaced for the operator to re-run.
type ApplyEngine struct {
	linker *Linker
	logger *zap.Logger
}

// NewApplyEngine creates an apply engine recording successes into linker.
func NewApplyEngine(linker *Linker, logger *zap.Logger) *ApplyEngine {
	return &ApplyEngine{
		linker: linker,
		logger: logger,
	}
}

// Apply creates every item on the target and returns the aggregate outcome.
func (e *ApplyEngine) Apply(ctx context.Context, kind migration.EntityKind, items []PlanItem) *migration.Outcome {
	outcome := &migration.Outcome{Kind: kind}

	for _, item := range items {
		outcome.Attempted++

		ref, err := item.Create(ctx)
		if err != nil {
			outcome.Failed++
			outcome.Failures = append(outcome.Failures, migration.Failure{
				ItemID:  item.Label,
				Message: err.Error(),
			})
			fields := []zap.Field{
				zap.String("kind", string(kind)),
				zap.String("item", item.Label),
				zap.Error(err),
			}
			if perr, ok := migration.AsProviderError(err); ok && perr.StatusCode > 0 {
				fields = append(fields, zap.Int("status", perr.StatusCode))
			}
			e.logger.Error("Create failed on target", fields...)
			continue
		}

		e.linker.Record(item.Origin, *ref)
		outcome.Succeeded++
		e.logger.Info("Created on target",
			zap.String("kind", string(kind)),
			zap.String("item", item.Label),
			zap.String("target_id", ref.ID))
	}

	e.logger.Info("Apply phase complete",
		zap.String("kind", string(kind)),
		zap.Int("attempted", outcome.Attempted),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed))
	return outcome
}
