package gonumstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalQuantileKnownValues(t *testing.T) {
	d := New()

	assert.InDelta(t, 1.959964, d.NormalQuantile(0.975), 1e-5)
	assert.InDelta(t, 0.841621, d.NormalQuantile(0.80), 1e-5)
	assert.InDelta(t, 0.0, d.NormalQuantile(0.5), 1e-12)
	assert.InDelta(t, -1.959964, d.NormalQuantile(0.025), 1e-5)
}

func TestNormalCDFSymmetry(t *testing.T) {
	d := New()

	assert.InDelta(t, 0.5, d.NormalCDF(0), 1e-12)
	for _, x := range []float64{0.5, 1.0, 1.96, 3.0} {
		assert.InDelta(t, 1.0, d.NormalCDF(x)+d.NormalCDF(-x), 1e-12)
	}
	assert.InDelta(t, 0.975002, d.NormalCDF(1.96), 1e-5)
}

func TestTDistributionKnownValues(t *testing.T) {
	d := New()

	// Two-sided 95% critical value for df=18 (the revenue example's df).
	assert.InDelta(t, 2.100922, d.TQuantile(0.975, 18), 1e-4)
	assert.InDelta(t, 0.5, d.TCDF(0, 18), 1e-12)

	// Quantile and CDF must invert each other.
	q := d.TQuantile(0.9, 7)
	assert.InDelta(t, 0.9, d.TCDF(q, 7), 1e-9)
}

func TestTApproachesNormalForLargeDF(t *testing.T) {
	d := New()
	assert.InDelta(t, d.NormalQuantile(0.975), d.TQuantile(0.975, 1e6), 1e-3)
}
