package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ablab/adapters/gonumstats"
	"ablab/domain/abtest"
	"ablab/internal/engine"
	apperrors "ablab/internal/errors"
	"ablab/ports"
)

// Headless JSON API over the analysis engine, for callers that don't want
// the dashboard. One engine instance per request keeps last-result state
// out of the picture entirely.
func main() {
	dist := gonumstats.New()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze/proportions", analyzeProportions(dist))
		r.Post("/analyze/continuous", analyzeContinuous(dist))
		r.Post("/plan", planSampleSize(dist))
	})

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8081"
	}
	log.Printf("analysis API listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal("server failed:", err)
	}
}

func analyzeProportions(dist ports.Statistics) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var in abtest.ProportionInput
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		result, err := engine.New(dist).AnalyzeProportions(in)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func analyzeContinuous(dist ports.Statistics) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var in abtest.ContinuousInput
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		result, err := engine.New(dist).AnalyzeContinuous(in)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func planSampleSize(dist ports.Statistics) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var in abtest.SampleSizePlanInput
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		plan, err := engine.New(dist).SampleSizeCalculator(in)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	if apperrors.IsInvalidArgument(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
