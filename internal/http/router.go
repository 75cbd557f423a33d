package http

import (
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"violation-service/internal/config"
)

// NewRouter assembles the gin engine with middleware, templates, and all
// application routes.
func NewRouter(h *Handler, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(cors.Default())

	r.MaxMultipartMemory = cfg.Storage.MaxUploadBytes()

	if matches, err := filepath.Glob(cfg.Server.TemplateGlob); err == nil && len(matches) > 0 {
		r.LoadHTMLGlob(cfg.Server.TemplateGlob)
	} else {
		log.Warn().Str("glob", cfg.Server.TemplateGlob).Msg("no templates found, page routes will fail")
	}

	h.Register(r)
	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
