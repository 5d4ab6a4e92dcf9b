// Package server exposes the metrics engine over HTTP.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pitchside/analytics/internal/analytics"
	"github.com/pitchside/analytics/internal/config"
	"github.com/pitchside/analytics/internal/database"
	apperrors "github.com/pitchside/analytics/internal/errors"
	"github.com/pitchside/analytics/internal/format"
	"github.com/pitchside/analytics/internal/monitoring"
	"github.com/pitchside/analytics/internal/quality"
	"github.com/pitchside/analytics/internal/ratelimit"
)

// Server binds the analytics and quality services to HTTP routes
type Server struct {
	cfg     *config.Config
	svc     *analytics.Service
	qsvc    *quality.Service
	metrics *monitoring.Metrics
	limiter *ratelimit.Limiter
}

// New assembles the server; limiter and metrics may be nil in tests
func New(cfg *config.Config, svc *analytics.Service, qsvc *quality.Service, metrics *monitoring.Metrics, limiter *ratelimit.Limiter) *Server {
	return &Server{cfg: cfg, svc: svc, qsvc: qsvc, metrics: metrics, limiter: limiter}
}

// Router builds the gin engine with middleware and all routes
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(apperrors.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "X-Request-ID"},
		MaxAge:       12 * time.Hour,
	}))
	if s.metrics != nil {
		router.Use(s.observe())
	}

	router.GET("/healthz", s.health)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			s.metrics.Registry(), promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	if s.limiter != nil {
		api.Use(ratelimit.Middleware(s.limiter))
	}

	api.GET("/nrr", s.netRunRate)
	api.GET("/powerplay", s.powerplay)
	api.GET("/death-overs", s.deathOvers)
	api.GET("/chase-defend", s.chaseDefend)
	api.GET("/standings", s.standings)
	api.GET("/head-to-head", s.headToHead)
	api.GET("/toss-impact", s.tossImpact)
	api.GET("/season-summary", s.seasonSummary)
	api.GET("/quality", s.qualityReport)
	api.GET("/cache/stats", s.cacheStats)
	api.POST("/cache/clear", s.cacheClear)

	return router
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseFilter(c *gin.Context) (database.Filter, error) {
	f := database.Filter{
		Team:  c.Query("team"),
		Venue: c.Query("venue"),
		From:  c.Query("from"),
		To:    c.Query("to"),
	}
	if raw := c.Query("season"); raw != "" {
		season, err := strconv.Atoi(raw)
		if err != nil {
			return f, apperrors.NewInvalidParameter("season", raw)
		}
		f.Season = season
	}
	return f, nil
}

func (s *Server) netRunRate(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	result, err := s.svc.NetRunRate(c.Request.Context(), f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, format.NetRunRate(result))
}

func (s *Server) powerplay(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	result, err := s.svc.Powerplay(c.Request.Context(), f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, format.Phase(result))
}

func (s *Server) deathOvers(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	result, err := s.svc.DeathOvers(c.Request.Context(), f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, format.Phase(result))
}

func (s *Server) chaseDefend(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	result, err := s.svc.ChaseDefend(c.Request.Context(), f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, format.ChaseDefend(result))
}

func (s *Server) standings(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	topN := 0
	if raw := c.Query("top_n"); raw != "" {
		topN, err = strconv.Atoi(raw)
		if err != nil || topN < 1 {
			c.Error(apperrors.NewInvalidParameter("top_n", raw))
			return
		}
	}

	rows, err := s.svc.Standings(c.Request.Context(), f.Season, topN)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, format.Standings(rows))
}

func (s *Server) headToHead(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	result, err := s.svc.HeadToHead(c.Request.Context(), c.Query("team1"), c.Query("team2"), f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, format.HeadToHead(result))
}

func (s *Server) tossImpact(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	rows, err := s.svc.TossImpact(c.Request.Context(), f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, format.TossImpact(rows))
}

func (s *Server) seasonSummary(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	rows, err := s.svc.SeasonSummary(c.Request.Context(), f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, format.SeasonSummary(rows))
}

func (s *Server) qualityReport(c *gin.Context) {
	report, err := s.qsvc.Report(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report_id":    report.ReportID,
		"generated_at": report.GeneratedAt,
		"table":        format.Quality(report),
	})
}

func (s *Server) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.CacheStats())
}

func (s *Server) cacheClear(c *gin.Context) {
	s.svc.ClearCache()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
