package dataset

import (
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"ablab/adapters/excel"
	"ablab/domain/abtest"
	apperrors "ablab/internal/errors"
)

// DerivationStats reports what happened while deriving engine inputs from a
// table: how many rows were usable and how many were skipped per reason.
type DerivationStats struct {
	TotalRows     int            `json:"total_rows"`
	UsedRows      int            `json:"used_rows"`
	SkippedRows   int            `json:"skipped_rows"`
	SkipReasons   map[string]int `json:"skip_reasons,omitempty"`
	ControlLabel  string         `json:"control_label"`
	TestLabel     string         `json:"test_label"`
	ControlMean   float64        `json:"control_mean,omitempty"`
	TestMean      float64        `json:"test_mean,omitempty"`
}

// variantBuckets splits outcome cells by the two variant labels found in the
// variant column. The label "control" (case-insensitive) is always the
// control group; otherwise the first label seen in row order is control.
type variantBuckets struct {
	labels  []string // in first-seen order
	byLabel map[string][]string
	stats   DerivationStats
}

func splitByVariant(tbl *excel.Table, variantCol, outcomeCol string) (*variantBuckets, error) {
	vi := tbl.ColumnIndex(variantCol)
	if vi < 0 {
		return nil, apperrors.InvalidArgumentf("variant column %q not found", variantCol)
	}
	oi := tbl.ColumnIndex(outcomeCol)
	if oi < 0 {
		return nil, apperrors.InvalidArgumentf("outcome column %q not found", outcomeCol)
	}

	b := &variantBuckets{
		byLabel: make(map[string][]string),
		stats:   DerivationStats{SkipReasons: make(map[string]int)},
	}
	for _, row := range tbl.Rows {
		b.stats.TotalRows++
		if vi >= len(row) || oi >= len(row) {
			b.skip("short_row")
			continue
		}
		label := strings.ToLower(strings.TrimSpace(row[vi]))
		cell := strings.TrimSpace(row[oi])
		if label == "" {
			b.skip("missing_variant")
			continue
		}
		if cell == "" {
			b.skip("missing_outcome")
			continue
		}
		if _, seen := b.byLabel[label]; !seen {
			b.labels = append(b.labels, label)
		}
		b.byLabel[label] = append(b.byLabel[label], cell)
		b.stats.UsedRows++
	}

	if len(b.labels) != 2 {
		return nil, apperrors.InvalidArgumentf("expected exactly 2 variants, found %d", len(b.labels))
	}

	// Pin "control" as the control group regardless of row order.
	sort.SliceStable(b.labels, func(i, j int) bool {
		return b.labels[i] == "control" && b.labels[j] != "control"
	})
	b.stats.ControlLabel = b.labels[0]
	b.stats.TestLabel = b.labels[1]
	return b, nil
}

func (b *variantBuckets) skip(reason string) {
	b.stats.SkippedRows++
	b.stats.SkipReasons[reason]++
}

// DeriveProportion aggregates a variant column and a binary outcome column
// into counts for the proportion test. Outcome cells must parse as a binary
// value (0/1, true/false, yes/no); rows that don't are rejected.
func DeriveProportion(tbl *excel.Table, variantCol, outcomeCol string, alpha float64) (abtest.ProportionInput, *DerivationStats, error) {
	b, err := splitByVariant(tbl, variantCol, outcomeCol)
	if err != nil {
		return abtest.ProportionInput{}, nil, err
	}

	counts := make(map[string][2]int) // [conversions, visitors]
	for _, label := range b.labels {
		var conversions, visitors int
		for _, cell := range b.byLabel[label] {
			converted, ok := parseBinary(cell)
			if !ok {
				return abtest.ProportionInput{}, nil,
					apperrors.InvalidArgumentf("outcome value %q is not binary", cell)
			}
			visitors++
			if converted {
				conversions++
			}
		}
		counts[label] = [2]int{conversions, visitors}
	}

	control := counts[b.stats.ControlLabel]
	test := counts[b.stats.TestLabel]
	in := abtest.ProportionInput{
		ControlConversions: control[0],
		ControlVisitors:    control[1],
		TestConversions:    test[0],
		TestVisitors:       test[1],
		Alpha:              alpha,
	}
	return in, &b.stats, nil
}

// DeriveContinuous collects a variant column and a numeric outcome column
// into sample sequences for the continuous test. Non-numeric cells are
// skipped and counted, not fatal.
func DeriveContinuous(tbl *excel.Table, variantCol, outcomeCol string, alpha float64) (abtest.ContinuousInput, *DerivationStats, error) {
	b, err := splitByVariant(tbl, variantCol, outcomeCol)
	if err != nil {
		return abtest.ContinuousInput{}, nil, err
	}

	samples := make(map[string][]float64)
	for _, label := range b.labels {
		for _, cell := range b.byLabel[label] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				b.stats.UsedRows--
				b.skip("non_numeric_outcome")
				continue
			}
			samples[label] = append(samples[label], v)
		}
	}

	in := abtest.ContinuousInput{
		ControlValues: samples[b.stats.ControlLabel],
		TestValues:    samples[b.stats.TestLabel],
		Alpha:         alpha,
	}
	if len(in.ControlValues) < 2 || len(in.TestValues) < 2 {
		return abtest.ContinuousInput{}, nil,
			apperrors.InvalidArgument("each variant needs at least 2 numeric outcome values")
	}

	b.stats.ControlMean, _ = stats.Mean(in.ControlValues)
	b.stats.TestMean, _ = stats.Mean(in.TestValues)
	return in, &b.stats, nil
}

func parseBinary(cell string) (bool, bool) {
	switch strings.ToLower(cell) {
	case "1", "true", "yes", "y", "converted":
		return true, true
	case "0", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}
