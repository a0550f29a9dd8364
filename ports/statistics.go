package ports

// Statistics provides the distribution primitives the analysis engine needs.
// The engine depends only on this interface so the numerical backend can be
// swapped without touching any test logic.
type Statistics interface {
	// NormalCDF returns P(Z <= x) for a standard normal Z.
	NormalCDF(x float64) float64

	// NormalQuantile returns the inverse standard normal CDF at p in (0,1).
	NormalQuantile(p float64) float64

	// TCDF returns P(T <= x) for a Student's t variable with df degrees of freedom.
	TCDF(x, df float64) float64

	// TQuantile returns the inverse t CDF at p in (0,1) with df degrees of freedom.
	TQuantile(p, df float64) float64
}
