package engine

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"ablab/domain/abtest"
	apperrors "ablab/internal/errors"
	"ablab/ports"
)

// Analyzer performs fixed-horizon frequentist analysis of two-variant
// experiments. It holds the last produced proportion result for report
// generation, so one Analyzer serves one logical analysis session at a time;
// concurrent callers should each create their own instance.
type Analyzer struct {
	dist ports.Statistics

	// Written only by AnalyzeProportions, read by SummaryReport.
	lastResult *abtest.AnalysisResult
}

// New creates an analyzer backed by the given statistics provider
func New(dist ports.Statistics) *Analyzer {
	return &Analyzer{dist: dist}
}

// AnalyzeProportions runs a two-proportion z-test on conversion counts.
// Returns INVALID_ARGUMENT when visitor counts are not positive, conversions
// exceed visitors, or alpha is outside (0,1).
func (a *Analyzer) AnalyzeProportions(in abtest.ProportionInput) (*abtest.AnalysisResult, error) {
	if in.ControlVisitors <= 0 || in.TestVisitors <= 0 {
		return nil, apperrors.InvalidArgument("visitor counts must be positive")
	}
	if in.ControlConversions < 0 || in.TestConversions < 0 {
		return nil, apperrors.InvalidArgument("conversion counts cannot be negative")
	}
	if in.ControlConversions > in.ControlVisitors || in.TestConversions > in.TestVisitors {
		return nil, apperrors.InvalidArgument("conversions cannot exceed visitors")
	}
	if err := validateAlpha(in.Alpha); err != nil {
		return nil, err
	}

	controlRate := float64(in.ControlConversions) / float64(in.ControlVisitors)
	testRate := float64(in.TestConversions) / float64(in.TestVisitors)
	diff := testRate - controlRate

	// Pooled rate under the null hypothesis of equal proportions.
	totalConversions := float64(in.ControlConversions + in.TestConversions)
	totalVisitors := float64(in.ControlVisitors + in.TestVisitors)
	pooledRate := totalConversions / totalVisitors

	seDiff := math.Sqrt(pooledRate * (1 - pooledRate) *
		(1/float64(in.ControlVisitors) + 1/float64(in.TestVisitors)))

	var zStat float64
	if seDiff > 0 {
		zStat = diff / seDiff
	}
	pValue := 2 * (1 - a.dist.NormalCDF(math.Abs(zStat)))

	// Confidence interval on the difference, using the same pooled SE.
	marginError := a.dist.NormalQuantile(1-in.Alpha/2) * seDiff

	relativeLift := 0.0
	if controlRate > 0 {
		relativeLift = (diff / controlRate) * 100
	}

	effectSize := 0.0
	if pooledRate > 0 && pooledRate < 1 {
		effectSize = math.Abs(diff) / math.Sqrt(pooledRate*(1-pooledRate))
	}
	power := a.twoSidedPower(effectSize, totalVisitors, in.Alpha)

	isSignificant := pValue < in.Alpha

	result := &abtest.AnalysisResult{
		Metric:           abtest.MetricProportion,
		ControlRate:      controlRate,
		TestRate:         testRate,
		Difference:       diff,
		RelativeLiftPct:  relativeLift,
		Statistic:        zStat,
		PValue:           pValue,
		Alpha:            in.Alpha,
		Significant:      isSignificant,
		StatisticalPower: power,
		ConfidenceInterval: abtest.ConfidenceInterval{
			Lower: diff - marginError,
			Upper: diff + marginError,
		},
		SampleSizes: abtest.GroupSizes{Control: in.ControlVisitors, Test: in.TestVisitors},
		Conversions: &abtest.GroupCounts{Control: in.ControlConversions, Test: in.TestConversions},
	}
	result.Interpretation = interpretProportions(result)

	a.lastResult = result
	return result, nil
}

// AnalyzeContinuous runs a pooled-variance two-sample t-test on raw samples.
// Unlike AnalyzeProportions it does not update the last-result slot.
func (a *Analyzer) AnalyzeContinuous(in abtest.ContinuousInput) (*abtest.AnalysisResult, error) {
	n1 := len(in.ControlValues)
	n2 := len(in.TestValues)
	if n1 < 2 || n2 < 2 {
		return nil, apperrors.InvalidArgument("each group needs at least 2 samples")
	}
	if err := validateAlpha(in.Alpha); err != nil {
		return nil, err
	}

	controlMean, _ := stats.Mean(in.ControlValues)
	testMean, _ := stats.Mean(in.TestValues)
	controlStd, _ := stats.StandardDeviationSample(in.ControlValues)
	testStd, _ := stats.StandardDeviationSample(in.TestValues)

	fn1 := float64(n1)
	fn2 := float64(n2)
	df := fn1 + fn2 - 2

	pooledVar := ((fn1-1)*controlStd*controlStd + (fn2-1)*testStd*testStd) / df
	if pooledVar == 0 {
		return nil, apperrors.InvalidArgument("zero variance in samples")
	}
	pooledStd := math.Sqrt(pooledVar)

	diff := testMean - controlMean
	tStat := diff / (pooledStd * math.Sqrt(1/fn1+1/fn2))
	pValue := 2 * (1 - a.dist.TCDF(math.Abs(tStat), df))

	cohensD := diff / pooledStd

	// CI uses the per-group standard errors, not the pooled SE.
	seDiff := math.Sqrt(controlStd*controlStd/fn1 + testStd*testStd/fn2)
	tCritical := a.dist.TQuantile(1-in.Alpha/2, df)
	marginError := tCritical * seDiff

	result := &abtest.AnalysisResult{
		Metric:        abtest.MetricContinuous,
		ControlRate:   controlMean,
		TestRate:      testMean,
		Difference:    diff,
		ControlStdDev: controlStd,
		TestStdDev:    testStd,
		Statistic:     tStat,
		PValue:        pValue,
		Alpha:         in.Alpha,
		Significant:   pValue < in.Alpha,
		CohensD:       cohensD,
		ConfidenceInterval: abtest.ConfidenceInterval{
			Lower: diff - marginError,
			Upper: diff + marginError,
		},
		SampleSizes: abtest.GroupSizes{Control: n1, Test: n2},
	}
	result.Interpretation = interpretContinuous(result)

	return result, nil
}

// SampleSizeCalculator determines the per-group sample size needed to detect
// the given effect with the requested power.
func (a *Analyzer) SampleSizeCalculator(in abtest.SampleSizePlanInput) (*abtest.SampleSizePlanResult, error) {
	if in.MinimumDetectableEffect == 0 {
		return nil, apperrors.InvalidArgument("minimum detectable effect cannot be zero")
	}
	if err := validateAlpha(in.Alpha); err != nil {
		return nil, err
	}
	if in.Power <= 0 || in.Power >= 1 {
		return nil, apperrors.InvalidArgument("power must be between 0 and 1")
	}
	if in.BaselineRate <= 0 || in.BaselineRate >= 1 {
		return nil, apperrors.InvalidArgument("baseline rate must be between 0 and 1")
	}

	testRate := in.BaselineRate + in.MinimumDetectableEffect
	pooledRate := (in.BaselineRate + testRate) / 2
	if pooledRate <= 0 || pooledRate >= 1 {
		return nil, apperrors.InvalidArgument("baseline rate plus effect must keep the pooled rate inside (0,1)")
	}
	effectSize := math.Abs(in.MinimumDetectableEffect) / math.Sqrt(pooledRate*(1-pooledRate))

	zAlpha := a.dist.NormalQuantile(1 - in.Alpha/2)
	zBeta := a.dist.NormalQuantile(in.Power)

	nPerGroup := ((zAlpha + zBeta) * (zAlpha + zBeta) * pooledRate * (1 - pooledRate)) /
		(in.MinimumDetectableEffect * in.MinimumDetectableEffect)
	perGroup := int(math.Ceil(nPerGroup))

	return &abtest.SampleSizePlanResult{
		SampleSizePerGroup:      perGroup,
		TotalSampleSize:         perGroup * 2,
		BaselineRate:            in.BaselineRate,
		TestRate:                testRate,
		MinimumDetectableEffect: in.MinimumDetectableEffect,
		Alpha:                   in.Alpha,
		Power:                   in.Power,
		EffectSize:              effectSize,
	}, nil
}

// LastResult returns the most recent proportion result, or nil when no
// proportion analysis has run yet.
func (a *Analyzer) LastResult() *abtest.AnalysisResult {
	return a.lastResult
}

// twoSidedPower computes the power of a two-sided test via the normal
// approximation with noncentrality effectSize * sqrt(n).
func (a *Analyzer) twoSidedPower(effectSize, n, alpha float64) float64 {
	zCrit := a.dist.NormalQuantile(1 - alpha/2)
	ncp := effectSize * math.Sqrt(n)
	power := a.dist.NormalCDF(ncp-zCrit) + a.dist.NormalCDF(-ncp-zCrit)
	return math.Min(math.Max(power, 0), 1)
}

func validateAlpha(alpha float64) error {
	if alpha <= 0 || alpha >= 1 {
		return apperrors.InvalidArgument("alpha must be between 0 and 1")
	}
	return nil
}

func interpretProportions(r *abtest.AnalysisResult) string {
	if !r.Significant {
		return fmt.Sprintf("No significant difference between variants (p=%.4f)", r.PValue)
	}
	if r.TestRate > r.ControlRate {
		return fmt.Sprintf("Test variant performs significantly better than control (p=%.4f)", r.PValue)
	}
	return fmt.Sprintf("Test variant performs significantly worse than control (p=%.4f)", r.PValue)
}

func interpretContinuous(r *abtest.AnalysisResult) string {
	if !r.Significant {
		return fmt.Sprintf("No significant difference between groups (p=%.4f)", r.PValue)
	}
	if r.TestRate > r.ControlRate {
		return fmt.Sprintf("Test group has significantly higher values than control (p=%.4f)", r.PValue)
	}
	return fmt.Sprintf("Test group has significantly lower values than control (p=%.4f)", r.PValue)
}
