package experiment

import (
	"github.com/google/uuid"

	"ablab/domain/abtest"
)

// Status tracks an experiment's lifecycle
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusPaused    Status = "paused"
)

// ConversionGroup summarizes one variant of a conversion experiment
type ConversionGroup struct {
	Name        string `json:"name"`
	Visitors    int    `json:"visitors"`
	Conversions int    `json:"conversions"`
}

// Rate returns the group's conversion rate, 0 when there are no visitors.
func (g ConversionGroup) Rate() float64 {
	if g.Visitors == 0 {
		return 0
	}
	return float64(g.Conversions) / float64(g.Visitors)
}

// ContinuousGroup holds raw samples for one variant of a continuous-metric experiment
type ContinuousGroup struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Experiment is a stored two-variant experiment. Exactly one of the
// conversion or continuous group pairs is populated, matching Metric.
type Experiment struct {
	ID          uuid.UUID         `json:"id"`
	Key         string            `json:"key"` // Stable human-readable identifier, e.g. "checkout_button_color"
	Name        string            `json:"name"`
	Description string            `json:"description"`
	StartDate   string            `json:"start_date"` // YYYY-MM-DD
	EndDate     string            `json:"end_date"`   // YYYY-MM-DD
	Status      Status            `json:"status"`
	Metric      abtest.MetricType `json:"metric_type"`

	Control ConversionGroup `json:"control,omitempty"`
	Test    ConversionGroup `json:"test,omitempty"`

	ControlSamples *ContinuousGroup `json:"control_samples,omitempty"`
	TestSamples    *ContinuousGroup `json:"test_samples,omitempty"`
}

// ProportionInput builds the engine input for a conversion experiment.
func (e *Experiment) ProportionInput(alpha float64) abtest.ProportionInput {
	return abtest.ProportionInput{
		ControlConversions: e.Control.Conversions,
		ControlVisitors:    e.Control.Visitors,
		TestConversions:    e.Test.Conversions,
		TestVisitors:       e.Test.Visitors,
		Alpha:              alpha,
	}
}

// ContinuousInput builds the engine input for a continuous-metric experiment.
func (e *Experiment) ContinuousInput(alpha float64) abtest.ContinuousInput {
	in := abtest.ContinuousInput{Alpha: alpha}
	if e.ControlSamples != nil {
		in.ControlValues = e.ControlSamples.Values
	}
	if e.TestSamples != nil {
		in.TestValues = e.TestSamples.Values
	}
	return in
}

// Summary is the catalog listing row for an experiment
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	ControlRate float64   `json:"control_rate"`
	TestRate    float64   `json:"test_rate"`
}

// Summarize builds the listing row for this experiment.
func (e *Experiment) Summarize() Summary {
	s := Summary{
		ID:        e.ID,
		Key:       e.Key,
		Name:      e.Name,
		Status:    e.Status,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
	}
	if e.Metric == abtest.MetricProportion {
		s.ControlRate = e.Control.Rate()
		s.TestRate = e.Test.Rate()
	}
	return s
}

// DetailedRow is one user-level observation generated for an experiment,
// mirroring the tabular export shape (variant column + binary outcome).
type DetailedRow struct {
	UserID        string `json:"user_id"`
	Variant       string `json:"variant"` // "control" or "test"
	Converted     int    `json:"converted"`
	DeviceType    string `json:"device_type"`
	TrafficSource string `json:"traffic_source"`
}
