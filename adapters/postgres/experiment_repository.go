package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ablab/domain/abtest"
	"ablab/domain/experiment"
	apperrors "ablab/internal/errors"
	"ablab/ports"
)

// ExperimentRepositoryImpl implements ExperimentRepository for PostgreSQL
type ExperimentRepositoryImpl struct {
	db *sqlx.DB
}

// NewExperimentRepository creates a new PostgreSQL experiment repository
func NewExperimentRepository(db *sqlx.DB) ports.ExperimentRepository {
	return &ExperimentRepositoryImpl{db: db}
}

// EnsureSchema creates the experiment tables when they don't exist yet
func (r *ExperimentRepositoryImpl) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS experiments (
		id UUID PRIMARY KEY,
		key TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		control_group JSONB NOT NULL,
		test_group JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS analysis_results (
		id UUID PRIMARY KEY,
		experiment_id UUID NOT NULL REFERENCES experiments(id),
		result JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return apperrors.DatabaseError("failed to create experiment schema", err)
	}
	return nil
}

// Save inserts or updates an experiment, upserting on id
func (r *ExperimentRepositoryImpl) Save(ctx context.Context, exp *experiment.Experiment) error {
	if exp.ID == uuid.Nil {
		exp.ID = uuid.New()
	}

	controlJSON, err := marshalGroup(exp, true)
	if err != nil {
		return err
	}
	testJSON, err := marshalGroup(exp, false)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO experiments (
			id, key, name, description, start_date, end_date,
			status, metric_type, control_group, test_group
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			status = EXCLUDED.status,
			metric_type = EXCLUDED.metric_type,
			control_group = EXCLUDED.control_group,
			test_group = EXCLUDED.test_group`,
		exp.ID, exp.Key, exp.Name, exp.Description, exp.StartDate, exp.EndDate,
		exp.Status, exp.Metric, controlJSON, testJSON)
	if err != nil {
		return apperrors.DatabaseError("failed to save experiment", err)
	}
	return nil
}

// GetByID retrieves an experiment by uuid
func (r *ExperimentRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*experiment.Experiment, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByKey retrieves an experiment by its stable key
func (r *ExperimentRepositoryImpl) GetByKey(ctx context.Context, key string) (*experiment.Experiment, error) {
	return r.getOne(ctx, `WHERE key = $1`, key)
}

func (r *ExperimentRepositoryImpl) getOne(ctx context.Context, where string, arg interface{}) (*experiment.Experiment, error) {
	var exp experiment.Experiment
	var controlJSON, testJSON []byte

	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, key, name, description, start_date, end_date,
			   status, metric_type, control_group, test_group
		FROM experiments %s`, where), arg).Scan(
		&exp.ID, &exp.Key, &exp.Name, &exp.Description, &exp.StartDate, &exp.EndDate,
		&exp.Status, &exp.Metric, &controlJSON, &testJSON)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("experiment")
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load experiment", err)
	}

	if err := unmarshalGroups(&exp, controlJSON, testJSON); err != nil {
		return nil, err
	}
	return &exp, nil
}

// List returns summaries for all experiments, oldest first
func (r *ExperimentRepositoryImpl) List(ctx context.Context) ([]experiment.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, key, name, description, start_date, end_date,
			   status, metric_type, control_group, test_group
		FROM experiments ORDER BY created_at ASC`)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list experiments", err)
	}
	defer rows.Close()

	var summaries []experiment.Summary
	for rows.Next() {
		var exp experiment.Experiment
		var controlJSON, testJSON []byte
		if err := rows.Scan(
			&exp.ID, &exp.Key, &exp.Name, &exp.Description, &exp.StartDate, &exp.EndDate,
			&exp.Status, &exp.Metric, &controlJSON, &testJSON); err != nil {
			return nil, apperrors.DatabaseError("failed to scan experiment row", err)
		}
		if err := unmarshalGroups(&exp, controlJSON, testJSON); err != nil {
			return nil, err
		}
		summaries = append(summaries, exp.Summarize())
	}
	return summaries, rows.Err()
}

// SaveResult stores an analysis result for an experiment as JSONB
func (r *ExperimentRepositoryImpl) SaveResult(ctx context.Context, experimentID uuid.UUID, result *abtest.AnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal analysis result")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_results (id, experiment_id, result)
		VALUES ($1, $2, $3)`,
		uuid.New(), experimentID, resultJSON)
	if err != nil {
		return apperrors.DatabaseError("failed to save analysis result", err)
	}
	return nil
}

func marshalGroup(exp *experiment.Experiment, control bool) ([]byte, error) {
	var v interface{}
	if exp.Metric == abtest.MetricContinuous {
		if control {
			v = exp.ControlSamples
		} else {
			v = exp.TestSamples
		}
	} else {
		if control {
			v = exp.Control
		} else {
			v = exp.Test
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal experiment group")
	}
	return data, nil
}

func unmarshalGroups(exp *experiment.Experiment, controlJSON, testJSON []byte) error {
	if exp.Metric == abtest.MetricContinuous {
		exp.ControlSamples = &experiment.ContinuousGroup{}
		exp.TestSamples = &experiment.ContinuousGroup{}
		if err := json.Unmarshal(controlJSON, exp.ControlSamples); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal control samples")
		}
		if err := json.Unmarshal(testJSON, exp.TestSamples); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal test samples")
		}
		return nil
	}
	if err := json.Unmarshal(controlJSON, &exp.Control); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal control group")
	}
	if err := json.Unmarshal(testJSON, &exp.Test); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal test group")
	}
	return nil
}
