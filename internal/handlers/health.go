package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/regivehq/regive/internal/storage"
)

type HealthDeps struct {
	DB          *sqlx.DB
	Redis       *redis.Client
	Storage     storage.Storage
	RabbitMQURL string
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func Health(deps *HealthDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := "healthy"

		if err := deps.DB.PingContext(ctx); err != nil {
			checks["db"] = "unhealthy"
			status = "unhealthy"
		} else {
			checks["db"] = "ok"
		}

		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy"
			status = "unhealthy"
		} else {
			checks["redis"] = "ok"
		}

		if deps.Storage != nil {
			if _, err := deps.Storage.Exists(ctx, "__health__"); err != nil {
				checks["s3"] = "unhealthy"
				if status == "healthy" {
					status = "degraded"
				}
			} else {
				checks["s3"] = "ok"
			}
		} else {
			checks["s3"] = "skipped"
		}

		if deps.RabbitMQURL != "" {
			conn, err := amqp.Dial(deps.RabbitMQURL)
			if err != nil {
				checks["rabbitmq"] = "unhealthy"
				if status == "healthy" {
					status = "degraded"
				}
			} else {
				_ = conn.Close()
				checks["rabbitmq"] = "ok"
			}
		} else {
			checks["rabbitmq"] = "skipped"
		}

		code := http.StatusOK
		if status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, healthResponse{Status: status, Checks: checks})
	}
}
