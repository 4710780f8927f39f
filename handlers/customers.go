package handlers

import (
	"net/http"

	"storefront/internal/customers"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetMe(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	customer, err := h.customers.EnsureCustomer(c.Request.Context(), claims.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	claims, ok := claimsOf(c)
	if !ok {
		return
	}
	var u customers.CustomerUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		badRequest(c, err)
		return
	}
	customer, err := h.customers.UpdateProfile(c.Request.Context(), claims.Subject, u)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}
