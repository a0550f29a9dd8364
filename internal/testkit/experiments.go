package testkit

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"ablab/domain/abtest"
	"ablab/domain/experiment"
	apperrors "ablab/internal/errors"
	"ablab/ports"
)

// Catalog is the in-memory experiment repository, preloaded with the sample
// experiments. It backs the dashboard when no database is configured and
// the tests everywhere else.
type Catalog struct {
	mu          sync.RWMutex
	experiments map[uuid.UUID]*experiment.Experiment
	byKey       map[string]uuid.UUID
	order       []uuid.UUID
	results     map[uuid.UUID][]*abtest.AnalysisResult
}

// NewCatalog creates a catalog preloaded with the sample experiments
func NewCatalog() *Catalog {
	c := &Catalog{
		experiments: make(map[uuid.UUID]*experiment.Experiment),
		byKey:       make(map[string]uuid.UUID),
		results:     make(map[uuid.UUID][]*abtest.AnalysisResult),
	}
	for _, exp := range SampleExperiments() {
		e := exp
		c.experiments[e.ID] = &e
		c.byKey[e.Key] = e.ID
		c.order = append(c.order, e.ID)
	}
	return c
}

// Save adds or replaces an experiment.
func (c *Catalog) Save(_ context.Context, exp *experiment.Experiment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if exp.ID == uuid.Nil {
		exp.ID = uuid.New()
	}
	if _, exists := c.experiments[exp.ID]; !exists {
		c.order = append(c.order, exp.ID)
	}
	c.experiments[exp.ID] = exp
	if exp.Key != "" {
		c.byKey[exp.Key] = exp.ID
	}
	return nil
}

// GetByID looks up an experiment by uuid.
func (c *Catalog) GetByID(_ context.Context, id uuid.UUID) (*experiment.Experiment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	exp, ok := c.experiments[id]
	if !ok {
		return nil, apperrors.NotFound("experiment")
	}
	return exp, nil
}

// GetByKey looks up an experiment by its stable key.
func (c *Catalog) GetByKey(_ context.Context, key string) (*experiment.Experiment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byKey[key]
	if !ok {
		return nil, apperrors.NotFound("experiment")
	}
	return c.experiments[id], nil
}

// List returns summaries in insertion order.
func (c *Catalog) List(_ context.Context) ([]experiment.Summary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	summaries := make([]experiment.Summary, 0, len(c.order))
	for _, id := range c.order {
		summaries = append(summaries, c.experiments[id].Summarize())
	}
	return summaries, nil
}

// SaveResult appends an analysis result for an experiment.
func (c *Catalog) SaveResult(_ context.Context, experimentID uuid.UUID, result *abtest.AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.experiments[experimentID]; !ok {
		return apperrors.NotFound("experiment")
	}
	c.results[experimentID] = append(c.results[experimentID], result)
	return nil
}

// Results returns the stored results for an experiment.
func (c *Catalog) Results(experimentID uuid.UUID) []*abtest.AnalysisResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.results[experimentID]
}

var _ ports.ExperimentRepository = (*Catalog)(nil)

// SampleExperiments returns the demonstration dataset: five conversion
// experiments plus a continuous revenue-per-user experiment.
func SampleExperiments() []experiment.Experiment {
	return []experiment.Experiment{
		{
			ID:          uuid.MustParse("5e0a7a5e-1c0b-4b5e-9b1a-0d6c1b1f1001"),
			Key:         "checkout_button_color",
			Name:        "Checkout Button Color Test",
			Description: "Testing red vs blue checkout button for conversion rate",
			StartDate:   "2024-01-15",
			EndDate:     "2024-02-15",
			Status:      experiment.StatusCompleted,
			Metric:      abtest.MetricProportion,
			Control:     experiment.ConversionGroup{Name: "Blue Button (Control)", Visitors: 5420, Conversions: 487},
			Test:        experiment.ConversionGroup{Name: "Red Button (Test)", Visitors: 5380, Conversions: 534},
		},
		{
			ID:          uuid.MustParse("5e0a7a5e-1c0b-4b5e-9b1a-0d6c1b1f1002"),
			Key:         "email_subject_line",
			Name:        "Email Subject Line Test",
			Description: "Testing personalized vs generic email subject lines",
			StartDate:   "2024-02-01",
			EndDate:     "2024-02-28",
			Status:      experiment.StatusCompleted,
			Metric:      abtest.MetricProportion,
			Control:     experiment.ConversionGroup{Name: "Generic Subject (Control)", Visitors: 12500, Conversions: 875},
			Test:        experiment.ConversionGroup{Name: "Personalized Subject (Test)", Visitors: 12480, Conversions: 1023},
		},
		{
			ID:          uuid.MustParse("5e0a7a5e-1c0b-4b5e-9b1a-0d6c1b1f1003"),
			Key:         "landing_page_layout",
			Name:        "Landing Page Layout Test",
			Description: "Testing single-column vs two-column layout",
			StartDate:   "2024-03-01",
			EndDate:     "2024-03-31",
			Status:      experiment.StatusRunning,
			Metric:      abtest.MetricProportion,
			Control:     experiment.ConversionGroup{Name: "Single Column (Control)", Visitors: 3200, Conversions: 256},
			Test:        experiment.ConversionGroup{Name: "Two Column (Test)", Visitors: 3180, Conversions: 235},
		},
		{
			ID:          uuid.MustParse("5e0a7a5e-1c0b-4b5e-9b1a-0d6c1b1f1004"),
			Key:         "pricing_strategy",
			Name:        "Pricing Strategy Test",
			Description: "Testing $9.99 vs $10.00 pricing",
			StartDate:   "2024-02-15",
			EndDate:     "2024-03-15",
			Status:      experiment.StatusCompleted,
			Metric:      abtest.MetricProportion,
			Control:     experiment.ConversionGroup{Name: "$10.00 (Control)", Visitors: 8900, Conversions: 623},
			Test:        experiment.ConversionGroup{Name: "$9.99 (Test)", Visitors: 8850, Conversions: 708},
		},
		{
			ID:          uuid.MustParse("5e0a7a5e-1c0b-4b5e-9b1a-0d6c1b1f1005"),
			Key:         "mobile_onboarding",
			Name:        "Mobile App Onboarding Test",
			Description: "Testing 3-step vs 5-step onboarding process",
			StartDate:   "2024-01-01",
			EndDate:     "2024-01-31",
			Status:      experiment.StatusCompleted,
			Metric:      abtest.MetricProportion,
			Control:     experiment.ConversionGroup{Name: "5-Step Onboarding (Control)", Visitors: 15600, Conversions: 2340},
			Test:        experiment.ConversionGroup{Name: "3-Step Onboarding (Test)", Visitors: 15580, Conversions: 2804},
		},
		{
			ID:          uuid.MustParse("5e0a7a5e-1c0b-4b5e-9b1a-0d6c1b1f1006"),
			Key:         "revenue_per_user",
			Name:        "Revenue Per User Test",
			Description: "Testing new recommendation engine against average order revenue",
			StartDate:   "2024-03-10",
			EndDate:     "2024-04-10",
			Status:      experiment.StatusCompleted,
			Metric:      abtest.MetricContinuous,
			ControlSamples: &experiment.ContinuousGroup{
				Name:   "Current Recommendations (Control)",
				Values: []float64{25.50, 30.20, 15.75, 45.00, 22.30, 35.80, 28.90, 19.60, 42.10, 31.25},
			},
			TestSamples: &experiment.ContinuousGroup{
				Name:   "New Recommendations (Test)",
				Values: []float64{28.75, 33.40, 18.90, 48.20, 25.60, 38.95, 32.15, 22.80, 45.30, 34.50},
			},
		},
	}
}

// GenerateDetailedRows produces user-level rows for a conversion experiment,
// deterministic for a given seed. Row counts match the stored visitor totals
// and conversion counts match the stored conversions exactly, so deriving
// counts back from the rows reproduces the experiment's inputs.
func GenerateDetailedRows(exp *experiment.Experiment, seed int64) ([]experiment.DetailedRow, error) {
	if exp.Metric != abtest.MetricProportion {
		return nil, apperrors.InvalidArgument("detailed rows are only generated for conversion experiments")
	}

	rng := rand.New(rand.NewSource(seed))
	rows := make([]experiment.DetailedRow, 0, exp.Control.Visitors+exp.Test.Visitors)
	rows = appendGroupRows(rows, rng, "control", "ctrl", exp.Control)
	rows = appendGroupRows(rows, rng, "test", "test", exp.Test)
	return rows, nil
}

func appendGroupRows(rows []experiment.DetailedRow, rng *rand.Rand, variant, prefix string, g experiment.ConversionGroup) []experiment.DetailedRow {
	// Exact conversion counts: mark the first g.Conversions rows converted,
	// then shuffle within the group.
	converted := make([]int, g.Visitors)
	for i := 0; i < g.Conversions && i < g.Visitors; i++ {
		converted[i] = 1
	}
	rng.Shuffle(len(converted), func(i, j int) {
		converted[i], converted[j] = converted[j], converted[i]
	})

	for i := 0; i < g.Visitors; i++ {
		rows = append(rows, experiment.DetailedRow{
			UserID:        fmt.Sprintf("%s_%06d", prefix, i),
			Variant:       variant,
			Converted:     converted[i],
			DeviceType:    pick(rng, []string{"mobile", "desktop", "tablet"}, []float64{0.60, 0.35, 0.05}),
			TrafficSource: pick(rng, []string{"organic", "paid", "direct", "social"}, []float64{0.40, 0.30, 0.20, 0.10}),
		})
	}
	return rows
}

func pick(rng *rand.Rand, options []string, weights []float64) string {
	r := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return options[i]
		}
	}
	return options[len(options)-1]
}
