package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ablab/adapters/excel"
	apperrors "ablab/internal/errors"
)

func conversionTable() *excel.Table {
	return &excel.Table{
		Headers: []string{"user_id", "variant", "converted"},
		Rows: [][]string{
			{"u1", "control", "1"},
			{"u2", "control", "0"},
			{"u3", "test", "1"},
			{"u4", "control", "0"},
			{"u5", "test", "1"},
			{"u6", "test", "0"},
			{"u7", "control", "1"},
			{"u8", "test", "1"},
		},
	}
}

func TestDeriveProportion_CountsPerVariant(t *testing.T) {
	in, stats, err := DeriveProportion(conversionTable(), "variant", "converted", 0.05)
	require.NoError(t, err)

	assert.Equal(t, 4, in.ControlVisitors)
	assert.Equal(t, 2, in.ControlConversions)
	assert.Equal(t, 4, in.TestVisitors)
	assert.Equal(t, 3, in.TestConversions)
	assert.Equal(t, 0.05, in.Alpha)

	assert.Equal(t, 8, stats.TotalRows)
	assert.Equal(t, 8, stats.UsedRows)
	assert.Equal(t, 0, stats.SkippedRows)
	assert.Equal(t, "control", stats.ControlLabel)
	assert.Equal(t, "test", stats.TestLabel)
}

func TestDeriveProportion_ControlPinnedRegardlessOfRowOrder(t *testing.T) {
	tbl := &excel.Table{
		Headers: []string{"variant", "converted"},
		Rows: [][]string{
			{"test", "1"},
			{"control", "0"},
			{"test", "0"},
			{"control", "1"},
		},
	}
	in, stats, err := DeriveProportion(tbl, "variant", "converted", 0.05)
	require.NoError(t, err)
	assert.Equal(t, "control", stats.ControlLabel)
	assert.Equal(t, 1, in.ControlConversions)
	assert.Equal(t, 2, in.ControlVisitors)
}

func TestDeriveProportion_AcceptsWordBinaries(t *testing.T) {
	tbl := &excel.Table{
		Headers: []string{"variant", "outcome"},
		Rows: [][]string{
			{"A", "yes"},
			{"A", "no"},
			{"B", "true"},
			{"B", "false"},
		},
	}
	in, _, err := DeriveProportion(tbl, "variant", "outcome", 0.05)
	require.NoError(t, err)
	assert.Equal(t, 1, in.ControlConversions)
	assert.Equal(t, 1, in.TestConversions)
}

func TestDeriveProportion_NonBinaryOutcome(t *testing.T) {
	tbl := conversionTable()
	tbl.Rows[2][2] = "3.5"
	_, _, err := DeriveProportion(tbl, "variant", "converted", 0.05)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.GetCode(err))
}

func TestDeriveProportion_MissingColumn(t *testing.T) {
	_, _, err := DeriveProportion(conversionTable(), "variant", "revenue", 0.05)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.GetCode(err))
}

func TestDeriveProportion_WrongVariantCount(t *testing.T) {
	tbl := conversionTable()
	tbl.Rows = append(tbl.Rows, []string{"u9", "holdout", "0"})
	_, _, err := DeriveProportion(tbl, "variant", "converted", 0.05)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 2 variants")
}

func TestDeriveContinuous_SamplesAndSkips(t *testing.T) {
	tbl := &excel.Table{
		Headers: []string{"variant", "revenue"},
		Rows: [][]string{
			{"control", "25.50"},
			{"control", "30.20"},
			{"control", "not-a-number"},
			{"control", "15.75"},
			{"test", "28.75"},
			{"test", "33.40"},
			{"test", ""},
			{"test", "18.90"},
		},
	}

	in, stats, err := DeriveContinuous(tbl, "variant", "revenue", 0.05)
	require.NoError(t, err)

	assert.Equal(t, []float64{25.50, 30.20, 15.75}, in.ControlValues)
	assert.Equal(t, []float64{28.75, 33.40, 18.90}, in.TestValues)

	assert.Equal(t, 8, stats.TotalRows)
	assert.Equal(t, 6, stats.UsedRows)
	assert.Equal(t, 2, stats.SkippedRows)
	assert.Equal(t, 1, stats.SkipReasons["non_numeric_outcome"])
	assert.Equal(t, 1, stats.SkipReasons["missing_outcome"])
	assert.InDelta(t, (25.50+30.20+15.75)/3, stats.ControlMean, 1e-9)
}

func TestDeriveContinuous_TooFewNumericValues(t *testing.T) {
	tbl := &excel.Table{
		Headers: []string{"variant", "revenue"},
		Rows: [][]string{
			{"control", "25.50"},
			{"control", "x"},
			{"test", "28.75"},
			{"test", "33.40"},
		},
	}
	_, _, err := DeriveContinuous(tbl, "variant", "revenue", 0.05)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.GetCode(err))
}
