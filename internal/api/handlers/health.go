package handlers

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/resilience"
)

type HealthHandler struct {
	db       *pgxpool.Pool
	redis    *redis.Client
	fallback *resilience.Manager
	monitor  *resilience.Monitor
}

func NewHealthHandler(db *pgxpool.Pool, rdb *redis.Client, fm *resilience.Manager, mon *resilience.Monitor) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, fallback: fm, monitor: mon}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz gates traffic: 503 until the hard dependencies answer.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(r.Context()).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, map[string]interface{}{"status": statusStr(status), "checks": checks})
}

// Health is the diagnostic endpoint: per-dependency state as observed by
// the fallback manager plus per-operation performance stats. It always
// answers 200 so monitoring can read the degraded state instead of a bare
// failure.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	healthy := h.fallback == nil || h.fallback.Healthy()
	status := "ok"
	if !healthy {
		status = "degraded"
	}

	resp := map[string]interface{}{"status": status, "healthy": healthy}
	if h.fallback != nil {
		resp["dependencies"] = h.fallback.Health()
	}
	if h.monitor != nil {
		resp["operations"] = h.monitor.Snapshot()
	}

	writeJSON(w, http.StatusOK, resp)
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}
