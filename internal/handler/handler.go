package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/askchopper-dev/askchopper/internal/config"
	"github.com/askchopper-dev/askchopper/internal/service"
)

type Handler struct {
	ledger       service.LedgerService
	attachments  service.AttachmentService
	orchestrator service.OrchestratorService
	health       HealthChecker
	cfg          *config.Config
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

func New(ledger service.LedgerService, attachments service.AttachmentService, orchestrator service.OrchestratorService, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{ledger, attachments, orchestrator, health, cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}
