package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/gem/backend/internal/api"
	"github.com/wonny/gem/backend/internal/api/handlers"
	"github.com/wonny/gem/backend/internal/cache"
	"github.com/wonny/gem/backend/internal/scheduler"
	"github.com/wonny/gem/backend/internal/scheduler/jobs"
	"github.com/wonny/gem/backend/pkg/logger"
	"github.com/wonny/gem/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `합성 REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 픽셀 배치 합성 엔드포인트 제공
- AUDIT_ENABLED=true 이면 실행 기록 저장 및 보존 기간 정리

Endpoints:
  GET  /health                       - Health check
  GET  /metrics                      - Prometheus metrics
  GET  /api/composite/config         - 활성 합성 설정
  GET  /api/composite/intervals      - 기간 분할 및 메타데이터
  POST /api/composite/evaluate       - 픽셀 배치 합성
  GET  /api/composite/runs           - 실행 기록 목록
  GET  /api/composite/runs/{id}      - 실행 기록 조회

Example:
  go run ./cmd/gem api
  go run ./cmd/gem api --port 8080 --config composite.yaml`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default is PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== GEM Composite API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Compositing pipeline
	rt, err := newCompositeRuntime(cfg, log)
	if err != nil {
		return err
	}

	deps := map[string]handlers.Pinger{}
	sched := scheduler.New(log)

	// 4. Pixel cache: Redis when enabled, else in-process
	var pixelCache handlers.PixelCache
	switch {
	case cfg.Redis.Enabled:
		rc, err := redis.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rc.Close()

		pixelCache = redis.NewCache(rc, "gem")
		deps["redis"] = rc
		log.Info("Redis pixel cache enabled")

	case cfg.API.MemoryCacheSize > 0:
		mc := cache.NewMemoryCache(cfg.API.MemoryCacheSize, log)
		if err := sched.AddJob(jobs.NewCacheCleanupJob(mc, log)); err != nil {
			return fmt.Errorf("register cache cleanup job: %w", err)
		}

		pixelCache = mc
		log.WithField("max_entries", cfg.API.MemoryCacheSize).Info("In-process pixel cache enabled")
	}

	// 5. Run audit + retention (optional)
	var runs handlers.RunStore
	if cfg.Audit.Enabled {
		db, repo, err := openAudit(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		runs = repo
		deps["database"] = db

		if err := sched.AddJob(jobs.NewRetentionJob(repo, cfg.Audit.RetentionDays, log)); err != nil {
			return fmt.Errorf("register retention job: %w", err)
		}
	}

	// 6. Handlers + router
	compositeHandler, err := handlers.NewCompositeHandler(
		rt.evaluator, rt.batch, pixelCache, runs, rt.configYAML, cfg.API.CacheTTL, log,
	)
	if err != nil {
		return fmt.Errorf("create composite handler: %w", err)
	}
	healthHandler := handlers.NewHealthHandler("gem-composite", deps)

	router := api.NewRouter(compositeHandler, healthHandler, cfg, log)
	server := api.New(cfg, log, router)

	// 7. Serve until signalled
	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()

		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	sched.Start()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
