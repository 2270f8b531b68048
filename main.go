// Package main provides the entry point for contourd, the contour tracing
// daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contour-tracer/internal/config"
	"contour-tracer/internal/logging"
	"contour-tracer/internal/pipeline"
	"contour-tracer/internal/server"
	"contour-tracer/internal/version"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const reloadInterval = 2 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults when empty)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("contourd %s\n", version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync(log)

	log.Info("starting contourd",
		zap.String("version", version.Version),
		zap.String("build_time", version.BuildTime),
		zap.String("git_commit", version.GitCommit))

	if err := serve(cfg, *configPath, log); err != nil {
		log.Fatal("contourd failed", zap.Error(err))
	}
}

func serve(cfg *config.Config, configPath string, log *zap.Logger) error {
	opts, err := cfg.PipelineOptions(log.Named("pipeline"))
	if err != nil {
		return err
	}
	proc, err := pipeline.New(opts)
	if err != nil {
		return err
	}
	defer proc.Close()

	proc.On(pipeline.EventFailed, func(data interface{}) {
		if cmdErr, ok := data.(*pipeline.CommandError); ok {
			log.Warn("command failed", zap.String("command", cmdErr.Command), zap.Error(cmdErr.Err))
		}
	})

	if configPath != "" {
		if w := watchConfig(configPath, proc, log); w != nil {
			defer w.Stop()
		}
	}

	gin.SetMode(ginMode(cfg.Log.Mode))
	srv := server.New(proc, log.Named("http"), server.Options{LegacyBMP: cfg.Pipeline.LegacyBMP})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cfg.Server.Addr)
}

// watchConfig reloads tracing parameters whenever the config file changes.
func watchConfig(path string, proc *pipeline.Processor, log *zap.Logger) *config.Watcher {
	w := config.NewWatcher(path, reloadInterval)
	if w == nil {
		log.Warn("config reload: unable to stat file", zap.String("path", path))
		return nil
	}
	w.OnChange(func(cfg *config.Config) {
		params, err := cfg.ContourParams()
		if err != nil {
			log.Warn("config reload: invalid parameters", zap.Error(err))
			return
		}
		if err := proc.SetParams(params); err != nil {
			log.Warn("config reload: parameters rejected", zap.Error(err))
			return
		}
		log.Info("config reloaded",
			zap.Int("isovalue", params.Isovalue),
			zap.Int("step_size", params.Step),
			zap.Bool("binary_interpolation", params.BinaryInterpolation),
			zap.Stringer("hull", params.Hull))
	})
	w.OnError(func(err error) {
		log.Warn("config reload failed", zap.String("path", w.Path()), zap.Error(err))
	})
	w.Start()
	log.Info("config reload: watching", zap.String("path", w.Path()))
	return w
}

func ginMode(logMode string) string {
	switch logMode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
