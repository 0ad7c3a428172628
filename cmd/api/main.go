package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/news-service/internal/adapter/postgres"
	redisadapter "github.com/user/news-service/internal/adapter/redis"
	"github.com/user/news-service/internal/crawler"
	"github.com/user/news-service/internal/delivery/http/handler"
	"github.com/user/news-service/internal/delivery/http/router"
	"github.com/user/news-service/internal/scheduler"
	"github.com/user/news-service/internal/usecase"
	"github.com/user/news-service/pkg/config"
	"github.com/user/news-service/pkg/logger"
	"github.com/user/news-service/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("unable to connect to postgres", zap.Error(err))
	}
	defer dbpool.Close()
	if err := dbpool.Ping(ctx); err != nil {
		log.Fatal("postgres ping failed", zap.Error(err))
	}
	log.Info("postgres connection pool established")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("unable to connect to redis", zap.Error(err))
	}
	log.Info("redis connection established")

	m := metrics.New()

	articleRepo := postgres.NewArticleRepo(dbpool)
	crawlLogRepo := postgres.NewCrawlLogRepo(dbpool)
	knownURLRepo := redisadapter.NewKnownURLRepo(rdb)

	fetcher := crawler.NewClient(cfg.FetchTimeout(), cfg.UserAgent, log)
	crawlUC := usecase.NewCrawlUseCase(
		crawler.Naver(),
		fetcher,
		articleRepo,
		knownURLRepo,
		crawlLogRepo,
		m,
		log,
		usecase.CrawlConfig{
			RequestDelay:    cfg.RequestDelay(),
			CategoryWorkers: cfg.CategoryWorkers,
			KnownURLTTL:     cfg.KnownURLTTL(),
		},
	)

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched, err = scheduler.New(cfg.CrawlSchedule, func() {
			runCtx := context.Background()
			var cancel context.CancelFunc = func() {}
			if d := cfg.CrawlRunTimeout(); d > 0 {
				runCtx, cancel = context.WithTimeout(runCtx, d)
			}
			defer cancel()
			log.Info("scheduled crawl starting")
			crawlUC.CrawlAll(runCtx, nil, cfg.MaxArticlesPerCategory)
		}, log)
		if err != nil {
			log.Fatal("invalid crawl schedule", zap.String("spec", cfg.CrawlSchedule), zap.Error(err))
		}
		sched.Start()
	} else {
		log.Info("scheduler is disabled")
	}

	var nextRun func() *time.Time
	if sched != nil {
		nextRun = sched.NextRun
	}
	newsUC := usecase.NewNewsUseCase(articleRepo, crawlLogRepo, nextRun)

	apiHandler := handler.NewHandler(
		newsUC,
		crawlUC,
		log,
		dbpool.Ping,
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		cfg.CrawlRunTimeout(),
	)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, m, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exiting")
}
