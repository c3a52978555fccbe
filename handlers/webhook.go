package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"courtly/models"
	"courtly/services/reconcile"
	"courtly/utils"
)

// WebhookHandler receives payment provider notifications.
type WebhookHandler struct {
	Processor *reconcile.PaymentProcessor
	Logger    *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(processor *reconcile.PaymentProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Processor: processor, Logger: logger}
}

// PaymentWebhookHandler ingests one provider webhook delivery. The provider
// retries on any non-2xx response, so benign outcomes (unknown reference,
// already-settled hold, ignored event type) must answer 200; only internal
// failures answer 500.
func (wh *WebhookHandler) PaymentWebhookHandler(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid webhook payload", err.Error())
		return
	}

	if payload.Event != models.WebhookEventUpdated {
		wh.Logger.Debug("webhook event type ignored", zap.String("event", payload.Event))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	event := payload.ToPaymentEvent()
	if err := wh.Processor.Process(c.Request.Context(), event); err != nil {
		if errors.Is(err, reconcile.ErrInvalidEvent) {
			utils.JSONError(c, http.StatusBadRequest, "invalid payment event", err.Error())
			return
		}
		wh.Logger.Error("webhook processing failed",
			zap.String("reference", event.Reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process payment event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
