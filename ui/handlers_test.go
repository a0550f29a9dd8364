package ui

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ablab/adapters/gonumstats"
	"ablab/domain/abtest"
	"ablab/internal/config"
	"ablab/internal/testkit"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: "0", GinMode: gin.TestMode},
		Analysis: config.AnalysisConfig{DefaultAlpha: 0.05, DefaultPower: 0.80},
	}
	return NewServer(cfg, testkit.NewCatalog(), gonumstats.New())
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandleAnalyzeProportions(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/analyze/proportions", abtest.ProportionInput{
		ControlConversions: 120,
		ControlVisitors:    2400,
		TestConversions:    150,
		TestVisitors:       2300,
		Alpha:              0.05,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result abtest.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Significant)
	assert.InDelta(t, 0.05, result.ControlRate, 1e-12)
}

func TestHandleAnalyzeProportions_ValidationError(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/analyze/proportions", abtest.ProportionInput{
		ControlConversions: 10,
		ControlVisitors:    0,
		TestConversions:    5,
		TestVisitors:       100,
		Alpha:              0.05,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "visitor counts must be positive")
}

func TestHandleSampleSizePlan_DefaultsApplied(t *testing.T) {
	s := newTestServer(t)

	// Alpha and power omitted: config defaults (0.05, 0.80) apply.
	w := doJSON(t, s, http.MethodPost, "/api/plan", map[string]float64{
		"baseline_rate":             0.05,
		"minimum_detectable_effect": 0.01,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var plan abtest.SampleSizePlanResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, 4080, plan.SampleSizePerGroup)
	assert.Equal(t, 0.05, plan.Alpha)
	assert.Equal(t, 0.80, plan.Power)
}

func TestHandleListAndAnalyzeExperiments(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/experiments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "checkout_button_color")

	w = doJSON(t, s, http.MethodGet, "/api/experiments/checkout_button_color/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result abtest.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, abtest.MetricProportion, result.Metric)

	w = doJSON(t, s, http.MethodGet, "/api/experiments/missing/analyze", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleExperimentReport(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/experiments/pricing_strategy/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A/B Test Analysis Summary")
	assert.Contains(t, w.Body.String(), "Conclusion:")

	w = doJSON(t, s, http.MethodGet, "/api/experiments/pricing_strategy/report?format=html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<h1")
}

func TestHandleSweep(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var sweep struct {
		Analyzed int `json:"analyzed"`
		Failed   int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sweep))
	assert.Equal(t, 6, sweep.Analyzed)
	assert.Zero(t, sweep.Failed)
}

func TestHandleUploadAnalysis_CSV(t *testing.T) {
	s := newTestServer(t)

	csv := "user_id,variant,converted\n" +
		"u1,control,1\nu2,control,0\nu3,control,0\nu4,control,1\n" +
		"u5,test,1\nu6,test,1\nu7,test,0\nu8,test,1\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "experiment.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("metric", "proportion"))
	require.NoError(t, mw.WriteField("variant_column", "variant"))
	require.NoError(t, mw.WriteField("outcome_column", "converted"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var payload struct {
		Result     abtest.AnalysisResult `json:"result"`
		Derivation struct {
			UsedRows int `json:"used_rows"`
		} `json:"derivation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 8, payload.Derivation.UsedRows)
	assert.InDelta(t, 0.5, payload.Result.ControlRate, 1e-12)
	assert.InDelta(t, 0.75, payload.Result.TestRate, 1e-12)
}

func TestHandleUploadAnalysis_MissingFile(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
