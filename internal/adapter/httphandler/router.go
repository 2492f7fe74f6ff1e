package httphandler

import (
	"context"
	"net/http"
	"path"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/niksmo/catalog/internal/core/port"
)

type Pinger interface {
	PingContext(context.Context) error
}

type Instrumentation interface {
	Middleware() gin.HandlerFunc
	Handler() http.Handler
}

type RouterConfig struct {
	Service port.ProductsService
	// PublicDir holds user.html and other static files. Empty disables them.
	PublicDir string
	// Optional.
	DB      Pinger
	Metrics Instrumentation
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), LogRequests(), cors.Default())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	RegisterProducts(r, cfg.Service)
	RegisterUploads(r, cfg.Service)
	r.GET("/health", health(cfg.DB))

	if cfg.PublicDir != "" {
		r.GET("/user", func(c *gin.Context) {
			c.File(filepath.Join(cfg.PublicDir, "user.html"))
		})
		r.NoRoute(servePublic(cfg.PublicDir))
	} else {
		r.NoRoute(notFound)
	}
	return r
}

func health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable,
					HealthResponse{OK: false, Error: err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, HealthResponse{OK: true})
	}
}

// servePublic serves regular files of dir for unmatched GET and HEAD paths.
// Directories are not listed.
func servePublic(dir string) gin.HandlerFunc {
	files := http.Dir(dir)
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodGet && method != http.MethodHead {
			notFound(c)
			return
		}

		name := path.Clean("/" + c.Request.URL.Path)
		f, err := files.Open(name)
		if err != nil {
			notFound(c)
			return
		}
		st, err := f.Stat()
		_ = f.Close()
		if err != nil || st.IsDir() {
			notFound(c)
			return
		}
		c.FileFromFS(name, files)
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
}
