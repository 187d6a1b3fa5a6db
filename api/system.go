package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Pinger is implemented by the database handle.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type SystemHandler struct {
	db Pinger
}

func NewSystemHandler(db Pinger) *SystemHandler {
	return &SystemHandler{db: db}
}

func (h *SystemHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, "CRM API is running.", http.StatusOK)
}

func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"%s","service":"crm"}`+"\n", status)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","buildTime":"%s"}`, version, buildTime)
	}
}
