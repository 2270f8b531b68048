// Package server exposes a pipeline processor over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"contour-tracer/internal/bitmap"
	"contour-tracer/internal/contour"
	"contour-tracer/internal/filter"
	"contour-tracer/internal/pipeline"
	"contour-tracer/internal/version"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultMaxBody caps uploaded images.
const DefaultMaxBody = 64 << 20

const shutdownTimeout = 5 * time.Second

// Pipeline is the part of the processor the HTTP handlers drive.
type Pipeline interface {
	LoadBitmap(b *bitmap.Bitmap) error
	ApplyFilter(k filter.Kind) error
	ToggleBinary() error
	Params() contour.Params
	SetParams(params contour.Params) error
	Frame() ([]byte, bool)
	Result() *contour.Result
	State() pipeline.State
	QueueDepth() int
	Frames() uint64
	LastError() error
}

// Options tunes request handling.
type Options struct {
	MaxBody   int64 // bytes; DefaultMaxBody when zero
	LegacyBMP bool  // fall back to the generic decoder for other BMP variants
}

// Server routes HTTP requests to a Pipeline.
type Server struct {
	pipe   Pipeline
	log    *zap.Logger
	opts   Options
	engine *gin.Engine
}

// New builds the router. log may be nil.
func New(pipe Pipeline, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	s := &Server{pipe: pipe, log: log, opts: opts}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": version.Version,
		})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	})

	r.POST("/image", s.postImage)
	r.GET("/image", s.getImage)
	r.POST("/filters/:kind", s.postFilter)
	r.GET("/filters", s.listFilters)
	r.GET("/params", s.getParams)
	r.PUT("/params", s.putParams)
	r.POST("/display/binary", s.toggleBinary)
	r.GET("/contours", s.getContours)
	r.GET("/status", s.getStatus)

	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
