package abtest

// ============================================================================
// ENGINE INPUTS
// ============================================================================

// ProportionInput holds raw counts for a two-proportion conversion test
type ProportionInput struct {
	ControlConversions int     `json:"control_conversions"` // Successes in control group (>= 0)
	ControlVisitors    int     `json:"control_visitors"`    // Total observations in control group (> 0)
	TestConversions    int     `json:"test_conversions"`    // Successes in test group (>= 0)
	TestVisitors       int     `json:"test_visitors"`       // Total observations in test group (> 0)
	Alpha              float64 `json:"alpha"`               // Significance level, strictly in (0,1)
}

// ContinuousInput holds raw sample sequences for a two-sample mean test
type ContinuousInput struct {
	ControlValues []float64 `json:"control_values"` // Control group samples (n >= 2)
	TestValues    []float64 `json:"test_values"`    // Test group samples (n >= 2)
	Alpha         float64   `json:"alpha"`          // Significance level, strictly in (0,1)
}

// SampleSizePlanInput holds planning parameters for a future proportion test
type SampleSizePlanInput struct {
	BaselineRate            float64 `json:"baseline_rate"`             // Expected control conversion rate, in (0,1)
	MinimumDetectableEffect float64 `json:"minimum_detectable_effect"` // Smallest effect worth detecting, signed, non-zero
	Alpha                   float64 `json:"alpha"`                     // Type I error rate
	Power                   float64 `json:"power"`                     // 1 - Type II error rate
}

// ============================================================================
// ENGINE OUTPUTS
// ============================================================================

// MetricType identifies which family of test produced an AnalysisResult
type MetricType string

const (
	MetricProportion MetricType = "proportion" // Two-proportion z-test
	MetricContinuous MetricType = "continuous" // Two-sample t-test
)

// ConfidenceInterval is a two-sided interval on the group difference
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// GroupSizes records per-group sample sizes used in a test
type GroupSizes struct {
	Control int `json:"control"`
	Test    int `json:"test"`
}

// GroupCounts records per-group success counts for a proportion test
type GroupCounts struct {
	Control int `json:"control"`
	Test    int `json:"test"`
}

// AnalysisResult is the immutable outcome of a single analysis call.
// INVARIANTS:
// - PValue in [0.0, 1.0]
// - Significant == (PValue < Alpha)
// - ConfidenceInterval contains 0 exactly when the test is not significant
type AnalysisResult struct {
	Metric MetricType `json:"metric"`

	// Proportion tests: conversion rates. Continuous tests: sample means.
	ControlRate float64 `json:"control_rate"`
	TestRate    float64 `json:"test_rate"`
	Difference  float64 `json:"difference"` // TestRate - ControlRate

	// RelativeLiftPct is only meaningful for proportion results. Defined as 0
	// when the control rate is 0 (convention, not a statistical claim).
	RelativeLiftPct float64 `json:"relative_lift_percent,omitempty"`

	// ControlStdDev/TestStdDev are only set for continuous results
	// (Bessel-corrected sample standard deviations).
	ControlStdDev float64 `json:"control_std,omitempty"`
	TestStdDev    float64 `json:"test_std,omitempty"`

	Statistic   float64 `json:"statistic"` // z for proportions, t for continuous
	PValue      float64 `json:"p_value"`
	Alpha       float64 `json:"alpha"`
	Significant bool    `json:"is_significant"`

	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`

	// StatisticalPower is set for proportion results; CohensD for continuous.
	StatisticalPower float64 `json:"statistical_power,omitempty"`
	CohensD          float64 `json:"cohens_d,omitempty"`

	SampleSizes GroupSizes   `json:"sample_sizes"`
	Conversions *GroupCounts `json:"conversions,omitempty"` // Proportion tests only

	Interpretation string `json:"interpretation"`
}

// SampleSizePlanResult is the outcome of a sample size calculation, with the
// plan inputs echoed back for rendering alongside the recommendation.
type SampleSizePlanResult struct {
	SampleSizePerGroup      int     `json:"sample_size_per_group"`
	TotalSampleSize         int     `json:"total_sample_size"`
	BaselineRate            float64 `json:"baseline_rate"`
	TestRate                float64 `json:"test_rate"` // BaselineRate + MDE
	MinimumDetectableEffect float64 `json:"minimum_detectable_effect"`
	Alpha                   float64 `json:"alpha"`
	Power                   float64 `json:"power"`
	EffectSize              float64 `json:"effect_size"`
}
