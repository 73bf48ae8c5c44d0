// Package handlers holds the HTTP surface of the bridge.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gridpoint-systems/sensor-bridge/internal/logging"
	"github.com/gridpoint-systems/sensor-bridge/internal/metrics"
)

// SignatureHeader carries the webhook payload signature token.
const SignatureHeader = "X-Payload-Signature"

// Ingester consumes one raw webhook payload.
type Ingester interface {
	Ingest(ctx context.Context, payload []byte) error
}

// WebhookHandler accepts sensor webhook deliveries. Bad payloads are
// acknowledged like good ones; the sender cannot fix them and must
// never be driven into retries. Only an invalid signature or an
// oversized body is rejected.
type WebhookHandler struct {
	ingester   Ingester
	verifier   *SignatureVerifier
	maxPayload int64
}

// NewWebhookHandler creates the receiver endpoint handler.
func NewWebhookHandler(ingester Ingester, verifier *SignatureVerifier, maxPayload int64) *WebhookHandler {
	return &WebhookHandler{
		ingester:   ingester,
		verifier:   verifier,
		maxPayload: maxPayload,
	}
}

// Receive handles POST /receiver.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxPayload))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
		return
	}

	if err := h.verifier.Verify(r.Header.Get(SignatureHeader), body); err != nil {
		metrics.SignatureRejections.Inc()
		slog.WarnContext(r.Context(), "rejected webhook signature", logging.Error(err))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	// Processing is detached from the request: the sender gets its ack
	// now, whatever happens downstream.
	go func(ctx context.Context) {
		if err := h.ingester.Ingest(ctx, body); err != nil {
			slog.Error("ingestion failed", logging.Error(err))
		}
	}(context.WithoutCancel(r.Context()))

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /readyz.
func Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
