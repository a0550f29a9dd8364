package gonumstats

import (
	"gonum.org/v1/gonum/stat/distuv"

	"ablab/ports"
)

// Distributions implements ports.Statistics on top of gonum's distuv package
type Distributions struct {
	normal distuv.Normal
}

// New creates the gonum-backed statistics adapter
func New() *Distributions {
	return &Distributions{
		normal: distuv.Normal{Mu: 0, Sigma: 1},
	}
}

// NormalCDF returns the standard normal CDF at x.
func (d *Distributions) NormalCDF(x float64) float64 {
	return d.normal.CDF(x)
}

// NormalQuantile returns the inverse standard normal CDF at p.
func (d *Distributions) NormalQuantile(p float64) float64 {
	return d.normal.Quantile(p)
}

// TCDF returns the Student's t CDF at x with df degrees of freedom.
func (d *Distributions) TCDF(x, df float64) float64 {
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return t.CDF(x)
}

// TQuantile returns the inverse t CDF at p with df degrees of freedom.
func (d *Distributions) TQuantile(p, df float64) float64 {
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return t.Quantile(p)
}

var _ ports.Statistics = (*Distributions)(nil)
