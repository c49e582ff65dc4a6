package server

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Kosench/shortlink/internal/handler"
)

type HealthChecker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// versioner is implemented by stores that can report a server version.
type versioner interface {
	Version(ctx context.Context) (string, error)
}

type Options struct {
	AllowedOrigins []string
	// ClientDir holds the prebuilt client bundle; empty disables it.
	ClientDir string
	Release   bool
}

func NewRouter(linkHandler *handler.LinkHandler, store HealthChecker, logger *zap.Logger, opts Options) *gin.Engine {
	if opts.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(opts.AllowedOrigins) == 0 || contains(opts.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	// Files of the client bundle win over every route, like a static
	// file middleware mounted first.
	if opts.ClientDir != "" {
		router.Use(staticFiles(opts.ClientDir))
	}

	api := router.Group("/api")
	{
		api.POST("/shorten", linkHandler.Shorten)
		api.GET("/stats/:code", linkHandler.Stats)
		api.GET("/health", healthHandler(store))
		api.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/:code", linkHandler.Redirect)
	router.HEAD("/:code", linkHandler.Redirect)

	router.NoRoute(clientFallback(opts.ClientDir))

	return router
}

func healthHandler(store HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		storage := gin.H{"driver": store.Name(), "status": "healthy"}
		response := gin.H{
			"status":  "healthy",
			"storage": storage,
		}

		statusCode := http.StatusOK
		if err := store.HealthCheck(c.Request.Context()); err != nil {
			response["status"] = "degraded"
			storage["status"] = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		} else if v, ok := store.(versioner); ok {
			if version, err := v.Version(c.Request.Context()); err == nil {
				storage["version"] = version
			}
		}

		c.JSON(statusCode, response)
	}
}

// staticFiles serves GET/HEAD requests for regular files that exist under
// dir and passes everything else on.
func staticFiles(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Next()
			return
		}

		name := path.Clean("/" + c.Request.URL.Path)
		if name == "/" || strings.HasPrefix(name, "/api/") {
			c.Next()
			return
		}

		file := filepath.Join(dir, filepath.FromSlash(name))
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			c.Next()
			return
		}

		c.File(file)
		c.Abort()
	}
}

// clientFallback answers unmatched GETs with the client entry page.
func clientFallback(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dir != "" && c.Request.Method == http.MethodGet {
			index := filepath.Join(dir, "index.html")
			if _, err := os.Stat(index); err == nil {
				c.File(index)
				return
			}
		}

		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Not found",
		})
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
