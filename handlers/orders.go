package handlers

import (
	"log/slog"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/orders"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PlaceOrder turns the posted cart into an order of the authenticated principal.
func (h *Handler) PlaceOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		return
	}

	var request struct {
		CartID string `json:"cart_id"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}
	if request.CartID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"cart_id": []string{"This field is required."}})
		return
	}
	cartID, err := uuid.Parse(request.CartID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"cart_id": []string{"Must be a valid UUID."}})
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), claims.Subject, cartID)
	if err != nil {
		slog.Error("error placing order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.CartID, cartID.String()), slog.String(logkey.UserID, claims.Subject),
			slog.String(logkey.ERROR, err.Error()))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListOrders returns every order to admins and only their own orders to customers.
func (h *Handler) ListOrders(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	var f orders.Filter
	if !claims.IsAdmin() {
		customer, err := h.customers.EnsureCustomer(c.Request.Context(), claims.Subject)
		if err != nil {
			respondError(c, err)
			return
		}
		f.CustomerID = customer.ID
	}
	list, err := h.orders.ListOrders(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetOrder(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	order, ok := h.visibleOrder(c, claims)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// visibleOrder loads the order named in the path, answering 404 when it belongs to
// another customer and the principal is not an admin.
func (h *Handler) visibleOrder(c *gin.Context, claims auth.Claims) (orders.Order, bool) {
	id, ok := int64Param(c, "id")
	if !ok {
		return orders.Order{}, false
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return orders.Order{}, false
	}
	if claims.IsAdmin() {
		return order, true
	}
	customer, err := h.customers.EnsureCustomer(c.Request.Context(), claims.Subject)
	if err != nil {
		respondError(c, err)
		return orders.Order{}, false
	}
	if order.CustomerID != customer.ID {
		notFound(c)
		return orders.Order{}, false
	}
	return order, true
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var request struct {
		PaymentStatus orders.PaymentStatus `json:"payment_status"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.orders.UpdatePaymentStatus(c.Request.Context(), id, request.PaymentStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	slog.Info("payment status updated", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
		slog.Int64(logkey.OrderID, id), slog.String("PaymentStatus", string(order.PaymentStatus)))
	c.JSON(http.StatusOK, order)
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.orders.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
