package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ablab/domain/abtest"
	"ablab/domain/experiment"
	"ablab/internal"
	"ablab/internal/engine"
	apperrors "ablab/internal/errors"
	"ablab/ports"
)

// AnalysisService runs the analysis engine against stored experiments
type AnalysisService struct {
	repo ports.ExperimentRepository
	dist ports.Statistics
	log  *internal.Logger
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(repo ports.ExperimentRepository, dist ports.Statistics) *AnalysisService {
	return &AnalysisService{
		repo: repo,
		dist: dist,
		log:  internal.DefaultLogger,
	}
}

// ExperimentAnalysis pairs an experiment with its analysis outcome
type ExperimentAnalysis struct {
	Experiment experiment.Summary     `json:"experiment"`
	Result     *abtest.AnalysisResult `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// SweepResult is the output of analyzing the whole catalog
type SweepResult struct {
	Analyses  []ExperimentAnalysis `json:"analyses"`
	Analyzed  int                  `json:"analyzed"`
	Failed    int                  `json:"failed"`
	RuntimeMs int64                `json:"runtime_ms"`
}

// AnalyzeExperiment analyzes one stored experiment at the given alpha and
// persists the result. Each call uses a fresh engine instance, so concurrent
// requests never share last-result state.
func (s *AnalysisService) AnalyzeExperiment(ctx context.Context, id uuid.UUID, alpha float64) (*abtest.AnalysisResult, error) {
	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, exp, alpha)
}

// AnalyzeExperimentByKey analyzes one stored experiment addressed by its key.
func (s *AnalysisService) AnalyzeExperimentByKey(ctx context.Context, key string, alpha float64) (*abtest.AnalysisResult, error) {
	exp, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, exp, alpha)
}

func (s *AnalysisService) analyze(ctx context.Context, exp *experiment.Experiment, alpha float64) (*abtest.AnalysisResult, error) {
	analyzer := engine.New(s.dist)

	var result *abtest.AnalysisResult
	var err error
	switch exp.Metric {
	case abtest.MetricContinuous:
		result, err = analyzer.AnalyzeContinuous(exp.ContinuousInput(alpha))
	case abtest.MetricProportion:
		result, err = analyzer.AnalyzeProportions(exp.ProportionInput(alpha))
	default:
		return nil, apperrors.InvalidArgumentf("unknown metric type %q", exp.Metric)
	}
	if err != nil {
		return nil, err
	}

	if saveErr := s.repo.SaveResult(ctx, exp.ID, result); saveErr != nil {
		// The analysis itself succeeded; persistence failure is logged, not fatal.
		s.log.Warn("failed to persist result for experiment %s: %v", exp.Key, saveErr)
	}
	return result, nil
}

// SweepAll analyzes every stored experiment concurrently. Individual
// experiment failures are reported per entry rather than aborting the sweep.
func (s *AnalysisService) SweepAll(ctx context.Context, alpha float64) (*SweepResult, error) {
	start := time.Now()

	summaries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	analyses := make([]ExperimentAnalysis, len(summaries))
	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, summary := range summaries {
		g.Go(func() error {
			result, err := s.AnalyzeExperiment(gctx, summary.ID, alpha)
			entry := ExperimentAnalysis{Experiment: summary, Result: result}
			if err != nil {
				entry.Error = err.Error()
			}
			mu.Lock()
			analyses[i] = entry
			if err != nil {
				failed++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Info("sweep analyzed %d experiments (%d failed) in %s",
		len(summaries), failed, time.Since(start))

	return &SweepResult{
		Analyses:  analyses,
		Analyzed:  len(summaries) - failed,
		Failed:    failed,
		RuntimeMs: time.Since(start).Milliseconds(),
	}, nil
}
