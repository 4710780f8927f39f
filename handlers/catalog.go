package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/catalog"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type productResponse struct {
	catalog.Product
	PriceWithTax decimal.Decimal `json:"price_with_tax"`
}

func newProductResponse(p catalog.Product) productResponse {
	return productResponse{Product: p, PriceWithTax: p.PriceWithTax()}
}

func (h *Handler) ListProducts(c *gin.Context) {
	f := catalog.ProductFilter{Ordering: catalog.ProductOrdering(c.Query("ordering"))}
	if raw := c.Query("collection_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"collection_id": []string{"A valid integer is required."}})
			return
		}
		f.CollectionID = id
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, newProductResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponse(p))
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var np catalog.NewProduct
	if err := c.ShouldBindJSON(&np); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), np)
	if err != nil {
		respondError(c, err)
		return
	}
	slog.Info("product created", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
		slog.Int64("ProductID", p.ID))
	c.JSON(http.StatusCreated, newProductResponse(p))
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var np catalog.NewProduct
	if err := c.ShouldBindJSON(&np); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, np)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductResponse(p))
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListCollections(c *gin.Context) {
	collections, err := h.catalog.ListCollections(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collections)
}

func (h *Handler) GetCollection(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	col, err := h.catalog.GetCollection(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, col)
}

func (h *Handler) CreateCollection(c *gin.Context) {
	var nc catalog.NewCollection
	if err := c.ShouldBindJSON(&nc); err != nil {
		badRequest(c, err)
		return
	}
	col, err := h.catalog.CreateCollection(c.Request.Context(), nc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, col)
}

func (h *Handler) UpdateCollection(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var nc catalog.NewCollection
	if err := c.ShouldBindJSON(&nc); err != nil {
		badRequest(c, err)
		return
	}
	col, err := h.catalog.UpdateCollection(c.Request.Context(), id, nc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, col)
}

func (h *Handler) DeleteCollection(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCollection(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListPromotions(c *gin.Context) {
	promotions, err := h.catalog.ListPromotions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, promotions)
}

func (h *Handler) CreatePromotion(c *gin.Context) {
	var np catalog.NewPromotion
	if err := c.ShouldBindJSON(&np); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.catalog.CreatePromotion(c.Request.Context(), np)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListReviews(c *gin.Context) {
	productID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	reviews, err := h.catalog.ListReviews(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) CreateReview(c *gin.Context) {
	productID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var nr catalog.NewReview
	if err := c.ShouldBindJSON(&nr); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.catalog.CreateReview(c.Request.Context(), productID, nr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) DeleteReview(c *gin.Context) {
	productID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	reviewID, ok := int64Param(c, "review_id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteReview(c.Request.Context(), productID, reviewID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
