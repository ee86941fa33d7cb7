package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the database (and Redis, when configured)
// answer. It is used by load balancers and the container health check.
type HealthHandler struct {
	DB    Pinger
	Redis *redis.Client
}

func NewHealthHandler(db Pinger, rdb *redis.Client) *HealthHandler {
	if db == nil {
		panic("nil database passed to NewHealthHandler")
	}
	return &HealthHandler{DB: db, Redis: rdb}
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := echo.Map{"database": "ok"}
	if err := h.DB.PingContext(ctx); err != nil {
		status = http.StatusServiceUnavailable
		checks["database"] = "down"
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			// Redis only backs rate limits and the cache; report it without failing.
			checks["redis"] = "degraded"
		}
	}
	return c.JSON(status, echo.Map{"status": http.StatusText(status), "checks": checks})
}
