package handlers

import (
	"context"
	"log/slog"

	"storefront/internal/orders"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
)

// LogOrderCreated records every placed order in the service log.
func LogOrderCreated(ctx context.Context, e orders.OrderCreated) error {
	slog.Info("order created event", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)),
		slog.Int64(logkey.OrderID, e.Order.ID), slog.String(logkey.UserID, e.UserID),
		slog.String("Total", e.Order.TotalPrice().StringFixed(2)))
	return nil
}
