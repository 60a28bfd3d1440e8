package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"chama/config"
	"chama/internal/service"
)

// PaymentWebhookHandler is the single ingestion entry point for external
// payment-confirmed events. Expects JSON matching service.PaymentEvent and an
// optional X-Webhook-Signature (HMAC-SHA256 over the raw body).
type PaymentWebhookHandler struct {
	reconcileSvc *service.ReconcileService
	cfg          *config.Config
}

func NewPaymentWebhookHandler(reconcileSvc *service.ReconcileService, cfg *config.Config) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{reconcileSvc: reconcileSvc, cfg: cfg}
}

func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.Payment.WebhookSecret != "" {
		sig := c.GetHeader("X-Webhook-Signature")
		if !h.verifySignature(body, sig) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}
	var event service.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	result, err := h.reconcileSvc.Ingest(event)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": result.Duplicate})
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Payment.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
