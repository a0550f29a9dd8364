package ports

import (
	"context"

	"github.com/google/uuid"

	"ablab/domain/abtest"
	"ablab/domain/experiment"
)

// ExperimentRepository defines the interface for experiment persistence.
// Implemented by the postgres adapter and by the in-memory testkit catalog.
type ExperimentRepository interface {
	Save(ctx context.Context, exp *experiment.Experiment) error
	GetByID(ctx context.Context, id uuid.UUID) (*experiment.Experiment, error)
	GetByKey(ctx context.Context, key string) (*experiment.Experiment, error)
	List(ctx context.Context) ([]experiment.Summary, error)
	SaveResult(ctx context.Context, experimentID uuid.UUID, result *abtest.AnalysisResult) error
}
