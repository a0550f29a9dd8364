package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ablab/adapters/gonumstats"
	"ablab/domain/abtest"
	apperrors "ablab/internal/errors"
	"ablab/internal/testkit"
)

func newService(t *testing.T) (*AnalysisService, *testkit.Catalog) {
	t.Helper()
	catalog := testkit.NewCatalog()
	return NewAnalysisService(catalog, gonumstats.New()), catalog
}

func TestAnalyzeExperimentByKey_Proportion(t *testing.T) {
	svc, catalog := newService(t)
	ctx := context.Background()

	result, err := svc.AnalyzeExperimentByKey(ctx, "checkout_button_color", 0.05)
	require.NoError(t, err)
	assert.Equal(t, abtest.MetricProportion, result.Metric)
	assert.Equal(t, result.PValue < 0.05, result.Significant)

	// The result is persisted alongside the experiment.
	exp, err := catalog.GetByKey(ctx, "checkout_button_color")
	require.NoError(t, err)
	require.Len(t, catalog.Results(exp.ID), 1)
	assert.Equal(t, result, catalog.Results(exp.ID)[0])
}

func TestAnalyzeExperimentByKey_Continuous(t *testing.T) {
	svc, _ := newService(t)

	result, err := svc.AnalyzeExperimentByKey(context.Background(), "revenue_per_user", 0.05)
	require.NoError(t, err)
	assert.Equal(t, abtest.MetricContinuous, result.Metric)
	assert.True(t, result.CohensD > 0)
}

func TestAnalyzeExperimentByKey_Missing(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.AnalyzeExperimentByKey(context.Background(), "nope", 0.05)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestSweepAll_AnalyzesWholeCatalog(t *testing.T) {
	svc, _ := newService(t)

	sweep, err := svc.SweepAll(context.Background(), 0.05)
	require.NoError(t, err)
	require.Len(t, sweep.Analyses, 6)
	assert.Equal(t, 6, sweep.Analyzed)
	assert.Zero(t, sweep.Failed)

	for _, entry := range sweep.Analyses {
		require.NotNil(t, entry.Result, "experiment %s missing result", entry.Experiment.Key)
		assert.Empty(t, entry.Error)
		assert.Equal(t, entry.Result.PValue < 0.05, entry.Result.Significant)
	}
}

func TestSweepAll_InvalidAlphaReportedPerEntry(t *testing.T) {
	svc, _ := newService(t)

	sweep, err := svc.SweepAll(context.Background(), 1.5)
	require.NoError(t, err)
	assert.Equal(t, 6, sweep.Failed)
	for _, entry := range sweep.Analyses {
		assert.Nil(t, entry.Result)
		assert.Contains(t, entry.Error, "alpha")
	}
}
