package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = int64(65536)

// Checkout opens a Stripe checkout session for one of the principal's pending orders.
func (h *Handler) Checkout(c *gin.Context) {
	if h.payments == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"detail": "Payments are not configured."})
		return
	}
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	order, ok := h.visibleOrder(c, claims)
	if !ok {
		return
	}

	session, err := h.payments.CreateCheckoutSession(c.Request.Context(), order, claims.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	slog.Info("checkout session created", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
		slog.Int64(logkey.OrderID, order.ID), slog.String("SessionID", session.ID))
	c.JSON(http.StatusOK, session)
}

// PaymentWebhook applies Stripe payment intent events to the order they carry.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	if h.payments == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"detail": "Payments are not configured."})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}

	update, ok, err := h.payments.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		slog.Info("unhandled webhook event", slog.String(logkey.TraceID, traceId))
		c.JSON(http.StatusOK, gin.H{"message": "Event type not handled"})
		return
	}

	if _, err := h.orders.UpdatePaymentStatus(c.Request.Context(), update.OrderID, update.Status); err != nil {
		respondError(c, err)
		return
	}
	slog.Info("payment recorded", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, update.OrderID),
		slog.String("PaymentIntent", update.PaymentIntentID), slog.String("PaymentStatus", string(update.Status)))
	c.Status(http.StatusOK)
}
