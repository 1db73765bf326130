package httpserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardiac-xai/api/internal/handle"
	"cardiac-xai/api/internal/metrics"
)

type Options struct {
	Handle      *handle.Handle
	StaticDir   string
	CORSOrigins []string
	// MaxUploadBytes sizes the in-memory multipart buffer.
	MaxUploadBytes int64
	Debug          bool
}

// Build constructs the gin engine with recovery, request ids, access logging,
// CORS, the optional static page and all routes.
func Build(opts Options) *gin.Engine {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestID())
	engine.Use(accessLog())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID", "X-Request-Timeout"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	engine.Use(cors.New(corsCfg))

	if hasIndex(opts.StaticDir) {
		engine.Use(static.Serve("/", static.LocalFile(opts.StaticDir, false)))
	}

	if opts.MaxUploadBytes > 0 {
		engine.MaxMultipartMemory = opts.MaxUploadBytes + 1<<20
	}

	h := opts.Handle
	engine.GET("/", h.Index)
	engine.GET("/health", h.Health)
	engine.POST("/analyze", h.Analyze)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

func hasIndex(dir string) bool {
	if strings.TrimSpace(dir) == "" {
		return false
	}
	st, err := os.Stat(filepath.Join(dir, "index.html"))
	return err == nil && !st.IsDir()
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(handle.RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"request_id": c.GetString(handle.RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).Round(time.Millisecond).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("http request")
			return
		}
		entry.Info("http request")
	}
}
