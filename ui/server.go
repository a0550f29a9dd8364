package ui

import (
	"github.com/gin-gonic/gin"

	"ablab/app"
	"ablab/internal"
	"ablab/internal/config"
	"ablab/ports"
)

// Server represents the dashboard web server
type Server struct {
	router  *gin.Engine
	service *app.AnalysisService
	repo    ports.ExperimentRepository
	dist    ports.Statistics
	cfg     *config.Config
	log     *internal.Logger
}

// NewServer creates a new dashboard server
func NewServer(cfg *config.Config, repo ports.ExperimentRepository, dist ports.Statistics) *Server {
	gin.SetMode(cfg.Server.GinMode)
	s := &Server{
		router:  gin.Default(),
		service: app.NewAnalysisService(repo, dist),
		repo:    repo,
		dist:    dist,
		cfg:     cfg,
		log:     internal.DefaultLogger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/analyze/proportions", s.handleAnalyzeProportions)
		api.POST("/analyze/continuous", s.handleAnalyzeContinuous)
		api.POST("/plan", s.handleSampleSizePlan)
		api.POST("/upload", s.handleUploadAnalysis)

		api.GET("/experiments", s.handleListExperiments)
		api.GET("/experiments/:key", s.handleGetExperiment)
		api.GET("/experiments/:key/analyze", s.handleAnalyzeExperiment)
		api.GET("/experiments/:key/report", s.handleExperimentReport)
		api.GET("/sweep", s.handleSweep)
	}
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// Run starts the dashboard server on the configured port
func (s *Server) Run() error {
	addr := ":" + s.cfg.Server.Port
	s.log.Info("dashboard listening on %s", addr)
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}
