package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/regivehq/regive/internal/auth"
	"github.com/regivehq/regive/internal/config"
	"github.com/regivehq/regive/internal/events"
	"github.com/regivehq/regive/internal/handlers"
	"github.com/regivehq/regive/internal/middleware"
	"github.com/regivehq/regive/internal/posts"
	"github.com/regivehq/regive/internal/requests"
	"github.com/regivehq/regive/internal/storage"
	"github.com/regivehq/regive/internal/users"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	var store storage.Storage
	if cfg.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load aws config", "error", err)
			os.Exit(1)
		}
		s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = &cfg.S3Endpoint
				o.UsePathStyle = true
			}
		})
		store = storage.NewS3Storage(s3Client, cfg.S3Bucket)
	} else {
		logger.Warn("S3_BUCKET not set, post photos disabled")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		rmq, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer rmq.Close()
		publisher = rmq
	} else {
		logger.Warn("RABBITMQ_URL not set, shipped notifications disabled")
	}

	postRepo := posts.NewPostgresRepository(db)
	requestRepo := requests.NewPostgresRepository(db)
	userRepo := users.NewPostgresRepository(db)

	postSvc := posts.NewService(postRepo, store, logger)
	requestSvc := requests.NewService(requestRepo, postRepo, userRepo, publisher, logger)

	sessions := auth.NewRedisSessions(redisClient)

	postsHandler := handlers.NewPostsHandler(postSvc, logger)
	requestsHandler := handlers.NewRequestsHandler(requestSvc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.Health(&handlers.HealthDeps{
		DB:          db,
		Redis:       redisClient,
		Storage:     store,
		RabbitMQURL: cfg.RabbitMQURL,
	}))

	mux.HandleFunc("POST /posts", postsHandler.Create())
	mux.HandleFunc("GET /posts", postsHandler.List())
	mux.HandleFunc("GET /posts/{slug}", postsHandler.GetBySlug())
	mux.HandleFunc("PUT /posts/{slug}/photo", postsHandler.SetPhoto())
	mux.HandleFunc("GET /posts/{slug}/photo", postsHandler.GetPhoto())
	mux.HandleFunc("DELETE /posts/{slug}", postsHandler.Delete())

	mux.HandleFunc("POST /posts/{id}/requests", requestsHandler.Create())
	mux.HandleFunc("GET /posts/{id}/requests", requestsHandler.ListForPost())
	mux.HandleFunc("GET /requests/{id}", requestsHandler.Get())
	mux.HandleFunc("PATCH /requests/{id}", requestsHandler.Transition())
	mux.HandleFunc("DELETE /requests/{id}", requestsHandler.Delete())

	var handler http.Handler = mux
	handler = middleware.Session(sessions)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
