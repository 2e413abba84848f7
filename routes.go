package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"feed-report/config"
	"feed-report/database"
	"feed-report/services"
)

// app hält die einmal beim Start erzeugten Abhängigkeiten der Handler.
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	log       *zap.Logger
	mixes     *services.MixService
	reports   *services.ReportService
	generator *services.ReportGenerator
	exporter  *services.ReportExporter
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func newRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogMiddleware(a.log))

	// Health-Check ohne API-Key, damit Load Balancer ihn abfragen können.
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.Ping(a.db); err != nil {
			a.log.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.Use(apiKeyAuthMiddleware(a.cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupMixRoutes(router, a.mixes, a.log)
	setupReportRoutes(router, a, a.log)
	return router
}

// requestLogMiddleware loggt jede Anfrage über zap statt über den gin-Logger.
func requestLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

func setupMixRoutes(router *gin.Engine, mixes *services.MixService, log *zap.Logger) {
	rg := router.Group("/api/mix")

	// GET - alle Mischungen, optional seitenweise über ?page=&pageSize=
	rg.GET("/list", func(c *gin.Context) {
		pageParam, pageSizeParam := c.Query("page"), c.Query("pageSize")
		if pageParam == "" && pageSizeParam == "" {
			list, err := mixes.ListMixes(c.Request.Context())
			if err != nil {
				log.Error("Database query for mixes failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			c.JSON(http.StatusOK, list)
			return
		}

		page, err := parsePositiveInt(pageParam, 1)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		pageSize, err := parsePositiveInt(pageSizeParam, 10)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pageSize"})
			return
		}

		list, total, err := mixes.ListMixesPage(c.Request.Context(), page, pageSize)
		if err != nil {
			if errors.Is(err, services.ErrValidation) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			log.Error("Database query for mixes page failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"mixes":    list,
			"total":    total,
			"page":     page,
			"pageSize": pageSize,
		})
	})

	// POST - neue Mischung mit Zutaten
	rg.POST("", func(c *gin.Context) {
		var req struct {
			Name        string                     `json:"name" binding:"required"`
			Ingredients []services.IngredientInput `json:"ingredients" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: name and at least one ingredient required"})
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
			return
		}

		mix, err := mixes.CreateMix(c.Request.Context(), req.Name, req.Ingredients)
		if err != nil {
			log.Error("Failed to create mix", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create mix"})
			return
		}
		mixesCreatedCounter.Inc()
		c.JSON(http.StatusCreated, mix)
	})
}

func setupReportRoutes(router *gin.Engine, a *app, log *zap.Logger) {
	rg := router.Group("/api/report")

	// POST - Report erzeugen, Antwort ist das HTML des Modells
	rg.POST("", func(c *gin.Context) {
		var req struct {
			MixID string `json:"mixId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.MixID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mixId is required"})
			return
		}

		start := time.Now()
		html, err := a.generator.Generate(c.Request.Context(), req.MixID)
		reportGenerationSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				reportsGeneratedCounter.WithLabelValues("not_found").Inc()
				c.String(http.StatusNotFound, "Mix not found")
				return
			}
			reportsGeneratedCounter.WithLabelValues("upstream_error").Inc()
			log.Error("Error generating report", zap.String("mix_id", req.MixID), zap.Error(err))
			c.String(http.StatusInternalServerError, "Failed to generate report")
			return
		}

		reportsGeneratedCounter.WithLabelValues("ok").Inc()
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	})

	// POST - Report speichern; bestehende Reports bleiben erhalten
	rg.POST("/save", func(c *gin.Context) {
		var req struct {
			MixID   string `json:"mixId"`
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing mixId or content"})
			return
		}

		report, err := a.reports.SaveReport(c.Request.Context(), req.MixID, req.Content)
		if err != nil {
			if errors.Is(err, services.ErrValidation) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Missing mixId or content"})
				return
			}
			log.Error("Save report error", zap.String("mix_id", req.MixID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save report"})
			return
		}
		reportsSavedCounter.Inc()
		c.JSON(http.StatusOK, gin.H{"message": "Report saved", "report": report})
	})

	// GET - neuester gespeicherter Report einer Mischung
	rg.GET("/:mixId", func(c *gin.Context) {
		mixID := c.Param("mixId")
		report, err := a.reports.LatestReport(c.Request.Context(), mixID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "No report found"})
				return
			}
			log.Error("Failed to fetch report", zap.String("mix_id", mixID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"report": report})
	})

	// GET - alle gespeicherten Reports einer Mischung
	rg.GET("/:mixId/history", func(c *gin.Context) {
		mixID := c.Param("mixId")
		reports, err := a.reports.ReportHistory(c.Request.Context(), mixID)
		if err != nil {
			log.Error("Failed to fetch report history", zap.String("mix_id", mixID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reports": reports})
	})

	// POST - neuesten Report als HTML-Datei in den Object Storage legen
	rg.POST("/:mixId/export", func(c *gin.Context) {
		mixID := c.Param("mixId")
		exp, err := a.exporter.ExportLatest(c.Request.Context(), mixID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrExportDisabled):
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report export is not configured"})
			case errors.Is(err, services.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"message": "No report found"})
			default:
				log.Error("Failed to export report", zap.String("mix_id", mixID), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report"})
			}
			return
		}
		reportsExportedCounter.Inc()
		c.JSON(http.StatusOK, gin.H{"message": "Report exported", "export": exp})
	})
}

// parsePositiveInt liest einen Query-Parameter; leer ergibt den Default.
func parsePositiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return v, nil
}
