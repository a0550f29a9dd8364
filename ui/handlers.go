package ui

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"ablab/adapters/excel"
	"ablab/domain/abtest"
	"ablab/internal/dataset"
	"ablab/internal/engine"
	apperrors "ablab/internal/errors"
)

// handleAnalyzeProportions runs a quick two-proportion analysis from posted counts
func (s *Server) handleAnalyzeProportions(c *gin.Context) {
	var in abtest.ProportionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if in.Alpha == 0 {
		in.Alpha = s.cfg.Analysis.DefaultAlpha
	}

	result, err := engine.New(s.dist).AnalyzeProportions(in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleAnalyzeContinuous runs a quick two-sample t-test from posted samples
func (s *Server) handleAnalyzeContinuous(c *gin.Context) {
	var in abtest.ContinuousInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if in.Alpha == 0 {
		in.Alpha = s.cfg.Analysis.DefaultAlpha
	}

	result, err := engine.New(s.dist).AnalyzeContinuous(in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleSampleSizePlan runs the sample size calculator
func (s *Server) handleSampleSizePlan(c *gin.Context) {
	var in abtest.SampleSizePlanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if in.Alpha == 0 {
		in.Alpha = s.cfg.Analysis.DefaultAlpha
	}
	if in.Power == 0 {
		in.Power = s.cfg.Analysis.DefaultPower
	}

	plan, err := engine.New(s.dist).SampleSizeCalculator(in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// handleUploadAnalysis analyzes an uploaded CSV or Excel file. Form fields:
// file, metric ("proportion" or "continuous"), variant_column, outcome_column,
// optional alpha.
func (s *Server) handleUploadAnalysis(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing upload file"})
		return
	}

	metric := c.DefaultPostForm("metric", string(abtest.MetricProportion))
	variantCol := c.DefaultPostForm("variant_column", "variant")
	outcomeCol := c.DefaultPostForm("outcome_column", "converted")
	alpha := s.cfg.Analysis.DefaultAlpha
	if v := c.PostForm("alpha"); v != "" {
		alpha, err = strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "alpha must be a number"})
			return
		}
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not open upload: " + err.Error()})
		return
	}
	defer f.Close()

	var table *excel.Table
	if strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
		table, err = excel.ReadCSV(f, fileHeader.Filename)
	} else {
		table, err = excel.ReadExcel(f, fileHeader.Filename)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analyzer := engine.New(s.dist)
	switch abtest.MetricType(metric) {
	case abtest.MetricContinuous:
		in, stats, derr := dataset.DeriveContinuous(table, variantCol, outcomeCol, alpha)
		if derr != nil {
			s.respondError(c, derr)
			return
		}
		result, aerr := analyzer.AnalyzeContinuous(in)
		if aerr != nil {
			s.respondError(c, aerr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result, "derivation": stats})
	case abtest.MetricProportion:
		in, stats, derr := dataset.DeriveProportion(table, variantCol, outcomeCol, alpha)
		if derr != nil {
			s.respondError(c, derr)
			return
		}
		result, aerr := analyzer.AnalyzeProportions(in)
		if aerr != nil {
			s.respondError(c, aerr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result, "derivation": stats})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "metric must be \"proportion\" or \"continuous\""})
	}
}

// handleListExperiments lists the sample experiment catalog
func (s *Server) handleListExperiments(c *gin.Context) {
	summaries, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experiments": summaries})
}

// handleGetExperiment returns one experiment's stored data
func (s *Server) handleGetExperiment(c *gin.Context) {
	exp, err := s.repo.GetByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

// handleAnalyzeExperiment analyzes a stored experiment at ?alpha=
func (s *Server) handleAnalyzeExperiment(c *gin.Context) {
	alpha, ok := s.alphaQuery(c)
	if !ok {
		return
	}
	result, err := s.service.AnalyzeExperimentByKey(c.Request.Context(), c.Param("key"), alpha)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleExperimentReport renders the summary report for a stored experiment.
// Plain text by default; ?format=html renders the report through markdown.
func (s *Server) handleExperimentReport(c *gin.Context) {
	alpha, ok := s.alphaQuery(c)
	if !ok {
		return
	}
	result, err := s.service.AnalyzeExperimentByKey(c.Request.Context(), c.Param("key"), alpha)
	if err != nil {
		s.respondError(c, err)
		return
	}

	report := engine.FormatReport(result)
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", renderMarkdown(report))
		return
	}
	c.String(http.StatusOK, report)
}

// handleSweep analyzes every stored experiment
func (s *Server) handleSweep(c *gin.Context) {
	alpha, ok := s.alphaQuery(c)
	if !ok {
		return
	}
	sweep, err := s.service.SweepAll(c.Request.Context(), alpha)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sweep)
}

func (s *Server) alphaQuery(c *gin.Context) (float64, bool) {
	alpha := s.cfg.Analysis.DefaultAlpha
	if v := c.Query("alpha"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "alpha must be a number"})
			return 0, false
		}
		alpha = parsed
	}
	return alpha, true
}

// respondError maps engine/repository errors onto HTTP statuses. Validation
// failures surface as user-facing 400 messages.
func (s *Server) respondError(c *gin.Context, err error) {
	switch apperrors.GetCode(err) {
	case apperrors.CodeInvalidArgument:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.CodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.log.Error("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// renderMarkdown converts the report text block (valid markdown: setext
// heading plus bullet lists) to HTML for dashboard embedding.
func renderMarkdown(text string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(text))
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return markdown.Render(doc, renderer)
}
