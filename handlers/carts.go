package handlers

import (
	"log/slog"
	"net/http"

	"storefront/internal/cart"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartItemResponse struct {
	cart.CartItem
	TotalPrice decimal.Decimal `json:"total_price"`
}

type cartResponse struct {
	ID         uuid.UUID          `json:"id"`
	Items      []cartItemResponse `json:"items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
}

func newCartItemResponse(item cart.CartItem) cartItemResponse {
	return cartItemResponse{CartItem: item, TotalPrice: item.TotalPrice()}
}

func newCartResponse(c cart.Cart) cartResponse {
	out := cartResponse{ID: c.ID, Items: make([]cartItemResponse, 0, len(c.Items)), TotalPrice: c.TotalPrice()}
	for _, item := range c.Items {
		out.Items = append(out.Items, newCartItemResponse(item))
	}
	return out
}

func (h *Handler) CreateCart(c *gin.Context) {
	created, err := h.carts.CreateCart(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	slog.Info("cart created", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
		slog.String(logkey.CartID, created.ID.String()))
	c.JSON(http.StatusCreated, newCartResponse(created))
}

func (h *Handler) GetCart(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	got, err := h.carts.GetCart(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(got))
}

func (h *Handler) DeleteCart(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.carts.DeleteCart(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListCartItems(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	items, err := h.carts.ListItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]cartItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newCartItemResponse(item))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AddCartItem(c *gin.Context) {
	cartID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var request struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.carts.AddItem(c.Request.Context(), cartID, request.ProductID, request.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	slog.Info("product added to cart", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
		slog.String(logkey.CartID, cartID.String()), slog.Int64("ProductID", request.ProductID),
		slog.Int("Quantity", item.Quantity))
	c.JSON(http.StatusCreated, newCartItemResponse(item))
}

func (h *Handler) GetCartItem(c *gin.Context) {
	cartID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := int64Param(c, "item_id")
	if !ok {
		return
	}
	item, err := h.carts.GetItem(c.Request.Context(), cartID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartItemResponse(item))
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	cartID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := int64Param(c, "item_id")
	if !ok {
		return
	}
	var request struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.carts.UpdateItem(c.Request.Context(), cartID, itemID, request.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartItemResponse(item))
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	cartID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := int64Param(c, "item_id")
	if !ok {
		return
	}
	if err := h.carts.RemoveItem(c.Request.Context(), cartID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
