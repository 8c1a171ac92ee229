package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"video-splitter/config"
	"video-splitter/constant"
	jobHandler "video-splitter/handler"
	"video-splitter/pkg/ffprobe"
	"video-splitter/pkg/rabbitmq"
	"video-splitter/pkg/storage"
	"video-splitter/repository"
	"video-splitter/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("NewRabbitMQConn")
	}

	publisher, err := rabbitmq.NewPublisher(conn, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("NewPublisher")
	}
	defer publisher.Close()

	repo := repository.NewRepo(cfg.DB)
	store := storage.NewMinIOStore(cfg.Storage, cfg.MinIOBucket)
	prober := ffprobe.NewProber(cfg.Probe.Binary, cfg.Probe.Timeout)

	metadataService := service.NewMetadataService(repo, store, prober, cfg)
	driver := service.NewProcessingDriver(publisher)
	jobService := service.NewJobService(repo, metadataService, driver)
	uploadService := service.NewUploadService(repo, store, metadataService, cfg)
	downloadService := service.NewDownloadService(repo, store, cfg)

	serviceDeps := jobHandler.ServiceDependencies{
		JobService: jobService,
	}

	// Reconcile worker progress/completion/failure reports.
	resultConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.Binding{
		Queue:      service.QueueSplitResults,
		RoutingKey: service.RoutingKeySplitResult,
	}, cfg.Server.Workers, jobHandler.SplitResultHandler)
	go func() {
		err := resultConsumer.Consume(ctx, serviceDeps)
		if err != nil && !errors.Is(err, context.Canceled) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("split result consumer error")
		}
	}()

	watchdog := service.NewWatchdog(repo, jobService, cfg.Processing)
	go watchdog.Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery(), loggerMiddleware(ctx))
	addHealth(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	registerRoutes(r, &api{
		uploads:   uploadService,
		jobs:      jobService,
		downloads: downloadService,
	})

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := handler.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

// loggerMiddleware carries the process logger on each request context so
// zerolog.Ctx works everywhere downstream.
func loggerMiddleware(base context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(base)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
