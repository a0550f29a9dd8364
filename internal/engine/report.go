package engine

import (
	"fmt"
	"strings"

	"ablab/domain/abtest"
)

// NoAnalysisMessage is returned by SummaryReport before any proportion
// analysis has run.
const NoAnalysisMessage = "No analysis results available. Run an analysis first."

// SummaryReport formats the last stored proportion result. This is the only
// place where missing state is handled without an error.
func (a *Analyzer) SummaryReport() string {
	if a.lastResult == nil {
		return NoAnalysisMessage
	}
	return FormatReport(a.lastResult)
}

// FormatReport renders an analysis result as a fixed multi-section text
// block. It is a pure function of the result, so callers that hold a result
// themselves never need to go through the analyzer's last-result slot.
func FormatReport(r *abtest.AnalysisResult) string {
	var b strings.Builder

	b.WriteString("A/B Test Analysis Summary\n")
	b.WriteString("========================\n\n")

	if r.Metric == abtest.MetricContinuous {
		b.WriteString("Group Means:\n")
		fmt.Fprintf(&b, "- Control: %.4f (sd %.4f)\n", r.ControlRate, r.ControlStdDev)
		fmt.Fprintf(&b, "- Test: %.4f (sd %.4f)\n", r.TestRate, r.TestStdDev)
		fmt.Fprintf(&b, "- Difference: %.4f\n\n", r.Difference)

		b.WriteString("Statistical Results:\n")
		fmt.Fprintf(&b, "- T-statistic: %.4f\n", r.Statistic)
		fmt.Fprintf(&b, "- P-value: %.4f\n", r.PValue)
		fmt.Fprintf(&b, "- Significance Level: %.3f\n", r.Alpha)
		fmt.Fprintf(&b, "- Cohen's d: %.3f\n\n", r.CohensD)
	} else {
		b.WriteString("Conversion Rates:\n")
		fmt.Fprintf(&b, "- Control: %.4f (%.2f%%)\n", r.ControlRate, r.ControlRate*100)
		fmt.Fprintf(&b, "- Test: %.4f (%.2f%%)\n", r.TestRate, r.TestRate*100)
		fmt.Fprintf(&b, "- Difference: %.4f (%+.2f%%)\n\n", r.Difference, r.RelativeLiftPct)

		b.WriteString("Statistical Results:\n")
		fmt.Fprintf(&b, "- Z-statistic: %.4f\n", r.Statistic)
		fmt.Fprintf(&b, "- P-value: %.4f\n", r.PValue)
		fmt.Fprintf(&b, "- Significance Level: %.3f\n", r.Alpha)
		fmt.Fprintf(&b, "- Statistical Power: %.3f\n\n", r.StatisticalPower)
	}

	fmt.Fprintf(&b, "Confidence Interval (%.0f%%):\n", (1-r.Alpha)*100)
	fmt.Fprintf(&b, "- Lower bound: %.4f\n", r.ConfidenceInterval.Lower)
	fmt.Fprintf(&b, "- Upper bound: %.4f\n\n", r.ConfidenceInterval.Upper)

	b.WriteString("Sample Sizes:\n")
	fmt.Fprintf(&b, "- Control: %s visitors\n", commaInt(r.SampleSizes.Control))
	fmt.Fprintf(&b, "- Test: %s visitors\n\n", commaInt(r.SampleSizes.Test))

	b.WriteString("Conclusion:\n")
	b.WriteString(r.Interpretation)

	return b.String()
}

// commaInt formats n with thousands separators, e.g. 12500 -> "12,500".
func commaInt(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		return "-" + out
	}
	return out
}
