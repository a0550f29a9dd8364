package main

import (
	"context"
	"fmt"
	"log"

	"ablab/adapters/gonumstats"
	"ablab/domain/abtest"
	"ablab/internal/engine"
	"ablab/internal/testkit"
)

// Runs the example analyses against the sample data and prints the reports.
func main() {
	fmt.Println("A/B Testing Analyzer - Example Usage")
	fmt.Println()

	dist := gonumstats.New()

	basicAnalysis(dist)
	sampleSizePlan(dist)
	continuousMetrics(dist)
	sampleExperiments(dist)

	fmt.Println("Examples completed! Run the dashboard binary for the web interface.")
}

func basicAnalysis(dist *gonumstats.Distributions) {
	fmt.Println("=== Basic A/B Test Analysis ===")

	analyzer := engine.New(dist)
	_, err := analyzer.AnalyzeProportions(abtest.ProportionInput{
		ControlConversions: 120,
		ControlVisitors:    2400,
		TestConversions:    150,
		TestVisitors:       2300,
		Alpha:              0.05,
	})
	if err != nil {
		log.Fatalf("proportion analysis failed: %v", err)
	}

	fmt.Println(analyzer.SummaryReport())
	fmt.Println()
}

func sampleSizePlan(dist *gonumstats.Distributions) {
	fmt.Println("=== Sample Size Calculator ===")

	plan, err := engine.New(dist).SampleSizeCalculator(abtest.SampleSizePlanInput{
		BaselineRate:            0.05,
		MinimumDetectableEffect: 0.01,
		Alpha:                   0.05,
		Power:                   0.80,
	})
	if err != nil {
		log.Fatalf("sample size calculation failed: %v", err)
	}

	fmt.Printf("Baseline conversion rate: %.1f%%\n", plan.BaselineRate*100)
	fmt.Printf("Expected test conversion rate: %.1f%%\n", plan.TestRate*100)
	fmt.Printf("Minimum detectable effect: %.1f%%\n", plan.MinimumDetectableEffect*100)
	fmt.Printf("Required sample size per group: %d\n", plan.SampleSizePerGroup)
	fmt.Printf("Total required sample size: %d\n", plan.TotalSampleSize)
	fmt.Println()
}

func continuousMetrics(dist *gonumstats.Distributions) {
	fmt.Println("=== Continuous Metrics Analysis ===")

	catalog := testkit.NewCatalog()
	exp, err := catalog.GetByKey(context.Background(), "revenue_per_user")
	if err != nil {
		log.Fatalf("sample experiment missing: %v", err)
	}

	result, err := engine.New(dist).AnalyzeContinuous(exp.ContinuousInput(0.05))
	if err != nil {
		log.Fatalf("continuous analysis failed: %v", err)
	}

	fmt.Printf("Control group mean: $%.2f\n", result.ControlRate)
	fmt.Printf("Test group mean: $%.2f\n", result.TestRate)
	fmt.Printf("Difference: $%.2f\n", result.Difference)
	fmt.Printf("P-value: %.4f\n", result.PValue)
	fmt.Printf("Statistical significance: %v\n", result.Significant)
	fmt.Printf("Cohen's d (effect size): %.3f\n", result.CohensD)
	fmt.Printf("Interpretation: %s\n", result.Interpretation)
	fmt.Println()
}

func sampleExperiments(dist *gonumstats.Distributions) {
	fmt.Println("=== Sample Experiments ===")

	ctx := context.Background()
	catalog := testkit.NewCatalog()

	summaries, err := catalog.List(ctx)
	if err != nil {
		log.Fatalf("listing experiments failed: %v", err)
	}
	fmt.Println("Available sample experiments:")
	for _, s := range summaries {
		fmt.Printf("- %s (%s)\n", s.Name, s.Status)
	}

	fmt.Println("\nAnalyzing checkout button experiment:")
	exp, err := catalog.GetByKey(ctx, "checkout_button_color")
	if err != nil {
		log.Fatalf("sample experiment missing: %v", err)
	}

	result, err := engine.New(dist).AnalyzeProportions(exp.ProportionInput(0.05))
	if err != nil {
		log.Fatalf("proportion analysis failed: %v", err)
	}

	fmt.Printf("\nExperiment: %s\n", exp.Name)
	fmt.Printf("Description: %s\n", exp.Description)
	fmt.Printf("Control: %s - %.2f%%\n", exp.Control.Name, exp.Control.Rate()*100)
	fmt.Printf("Test: %s - %.2f%%\n", exp.Test.Name, exp.Test.Rate()*100)
	fmt.Printf("Result: %s\n", result.Interpretation)
	fmt.Println()
}
