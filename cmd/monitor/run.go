package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idgaron/Capstone-Software/internal/analytics"
	"github.com/idgaron/Capstone-Software/internal/cache"
	"github.com/idgaron/Capstone-Software/internal/config"
	"github.com/idgaron/Capstone-Software/internal/handlers"
	"github.com/idgaron/Capstone-Software/internal/ingest"
	"github.com/idgaron/Capstone-Software/internal/metrics"
	"github.com/idgaron/Capstone-Software/internal/monitor"
	"github.com/idgaron/Capstone-Software/internal/render"
	"github.com/idgaron/Capstone-Software/internal/source"
)

var replayFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read telemetry and publish spectrum frames until the stream ends or a signal arrives",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if replayFile != "" {
			cfg.Source.Kind = config.SourceFile
			cfg.Source.File = replayFile
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg)
	},
}

func init() {
	runCmd.Flags().StringVar(&replayFile, "file", "", "Replay a capture file instead of the configured source")
}

func run(ctx context.Context, cfg *config.Config) error {
	log.Infof("Starting spectrum monitor, Go %s, NumCPU %d", runtime.Version(), runtime.NumCPU())

	ing, err := ingest.New(cfg.Ingest)
	if err != nil {
		return err
	}
	analyzer, err := analytics.NewAnalyzer(cfg.Analyzer)
	if err != nil {
		return err
	}

	renderers := render.Multi{render.NewLogRenderer(log.StandardLogger(), log.DebugLevel)}

	// Redis: пробуем подключиться с повторами, без него монитор продолжает работу
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache = connectRedis(ctx, cfg.Redis)
		if redisCache != nil {
			defer redisCache.Close()
			renderers = append(renderers, redisCache)
		}
	}

	var server *http.Server
	if cfg.HTTP.Enabled {
		store := handlers.NewFrameStore()
		renderers = append(renderers, store)

		var frameCache handlers.FrameCache
		if redisCache != nil {
			frameCache = redisCache
		}
		router := handlers.NewRouter(handlers.NewHandler(store, frameCache))

		// pprof для профилирования
		router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

		server = &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      router,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		}

		go func() {
			log.Infof("HTTP API listening on %s", cfg.HTTP.Addr)
			log.Info("  GET /frame       - Latest frame")
			log.Info("  GET /spectrum    - Latest spectrum and peak")
			log.Info("  GET /samples     - Latest window samples")
			log.Info("  GET /frames      - Recent frames from Redis")
			log.Info("  GET /health      - Health check")
			log.Info("  GET /stats       - Monitor statistics")
			log.Info("  GET /prometheus  - Prometheus metrics")

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("Server error: %v", err)
			}
		}()
	}

	go updateRuntimeMetrics(ctx)

	src, err := openSource(cfg.Source)
	if err != nil {
		shutdownServer(server, cfg.HTTP.ShutdownTimeout)
		return err
	}

	mon, err := monitor.New(src, ing, analyzer, renderers, cfg.Monitor)
	if err != nil {
		_ = src.Close()
		shutdownServer(server, cfg.HTTP.ShutdownTimeout)
		return err
	}

	summary, runErr := mon.Run(ctx)
	log.WithFields(log.Fields{
		"lines":         summary.Lines,
		"records":       summary.Records,
		"malformed":     summary.Malformed,
		"updates":       summary.Updates,
		"render_errors": summary.RenderErrors,
		"reason":        summary.StopReason,
	}).Info("Monitor finished")

	shutdownServer(server, cfg.HTTP.ShutdownTimeout)
	return runErr
}

// openSource открывает источник строк по конфигурации
func openSource(cfg config.SourceConfig) (source.LineSource, error) {
	switch cfg.Kind {
	case config.SourceSerial:
		return source.OpenSerial(cfg.Serial)
	case config.SourceFile:
		return source.FollowFile(cfg.File, cfg.Follow)
	case config.SourceStdin:
		return source.NewReaderSource(os.Stdin), nil
	default:
		return nil, errors.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// connectRedis подключается к Redis с линейно растущей паузой между попытками
func connectRedis(ctx context.Context, cfg config.RedisConfig) *cache.RedisCache {
	var lastErr error
	for i := 0; i < cfg.ConnectAttempts; i++ {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Config)
		if err == nil {
			log.Infof("Connected to Redis at %s", cfg.Addr)
			return redisCache
		}
		lastErr = err
		log.Warnf("Redis connection attempt %d failed: %v", i+1, err)

		if i < cfg.ConnectAttempts-1 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(i+1) * time.Second):
			}
		}
	}

	log.Warnf("Failed to connect to Redis, running without it: %v", lastErr)
	return nil
}

// shutdownServer завершает HTTP сервер с таймаутом
func shutdownServer(server *http.Server, timeout time.Duration) {
	if server == nil {
		return
	}
	log.Info("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server shutdown error: %v", err)
	}
}

// updateRuntimeMetrics периодически обновляет метрики процесса
func updateRuntimeMetrics(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.ActiveGoroutines.Set(float64(runtime.NumGoroutine()))
		}
	}
}
