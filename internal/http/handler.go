package http

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"violation-service/internal/config"
	"violation-service/internal/domain/violation"
	"violation-service/internal/pipeline"
	"violation-service/internal/service"
	"violation-service/internal/storage"
)

type Handler struct {
	violations *service.ViolationService
	pipeline   *pipeline.Pipeline
	files      *storage.Store
	config     *config.Config
	log        zerolog.Logger
}

func NewHandler(
	violations *service.ViolationService,
	pl *pipeline.Pipeline,
	files *storage.Store,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		violations: violations,
		pipeline:   pl,
		files:      files,
		config:     cfg,
		log:        log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.home)
	r.POST("/upload", h.upload)
	r.GET("/results/:filename", h.showResults)
	r.GET("/reports", h.reports)
	r.GET("/dashboard", h.dashboard)
	r.GET("/static/results/:filename", h.serveResult)
	r.GET("/healthz", h.health)

	api := r.Group("/api/v1")
	{
		api.GET("/violations", h.listViolations)
		api.DELETE("/violations/:id", h.deleteViolation)
		api.GET("/stats", h.stats)
		api.GET("/model", h.modelInfo)
	}
}

func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil || fh.Filename == "" {
		c.JSON(http.StatusBadRequest, errorResponse("no file selected"))
		return
	}

	if !storage.AllowedFile(fh.Filename) {
		c.JSON(http.StatusBadRequest, errorResponse("invalid file type"))
		return
	}

	if fh.Size > h.config.Storage.MaxUploadBytes() {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse("file too large"))
		return
	}

	stored, err := h.files.SaveUpload(fh)
	if err != nil {
		h.log.Error().Err(err).Str("filename", fh.Filename).Msg("failed to save upload")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	results := h.pipeline.Process(c.Request.Context(), h.files.UploadPath(stored))

	now := time.Now()
	for _, res := range results {
		box := res.Box
		rec := &violation.Record{
			Filename:    stored,
			Label:       res.ViolationType,
			Confidence:  res.Confidence,
			Timestamp:   now,
			ResultImage: res.ResultImage,
			Box:         &box,
		}
		if err := h.violations.RecordViolation(c.Request.Context(), rec); err != nil {
			h.log.Error().Err(err).Str("filename", stored).Msg("failed to persist violation")
			c.JSON(http.StatusInternalServerError, errorResponse("processing failed"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"results":  results,
		"filename": stored,
	})
}

func (h *Handler) listViolations(c *gin.Context) {
	filename := strings.TrimSpace(c.Query("filename"))

	limit := 0
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.violations.ListViolations(c.Request.Context(), filename, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *Handler) deleteViolation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid violation id"))
		return
	}

	if err := h.violations.DeleteViolation(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.violations.GetStats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) modelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.ModelInfo())
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{})
}

func (h *Handler) showResults(c *gin.Context) {
	filename := c.Param("filename")

	records, err := h.violations.ListViolations(c.Request.Context(), filename, 0)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.HTML(http.StatusOK, "results.html", gin.H{
		"filename":   filename,
		"violations": records,
	})
}

func (h *Handler) reports(c *gin.Context) {
	records, err := h.violations.ListViolations(c.Request.Context(), "", 0)
	if err != nil {
		h.handleError(c, err)
		return
	}

	stats, err := h.violations.GetStats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.HTML(http.StatusOK, "reports.html", gin.H{
		"violations": records,
		"stats":      stats,
	})
}

func (h *Handler) dashboard(c *gin.Context) {
	stats, err := h.violations.GetStats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{"stats": stats})
}

func (h *Handler) serveResult(c *gin.Context) {
	name := c.Param("filename")
	if name == "" || name != storage.SanitizeFilename(name) {
		c.JSON(http.StatusBadRequest, errorResponse("invalid result name"))
		return
	}

	path := h.files.ResultPath(name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, errorResponse("result not found"))
		return
	}

	c.File(path)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
