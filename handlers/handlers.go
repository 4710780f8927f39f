package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/customers"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/tags"
	"storefront/middleware"

	"github.com/gin-gonic/gin"
)

// Services are the domain components the HTTP layer dispatches to. Payments may be
// nil, which disables checkout and the payment webhook.
type Services struct {
	Catalog   catalog.Conf
	Carts     cart.Conf
	Customers customers.Conf
	Orders    *orders.Conf
	Tags      tags.Conf
	Payments  *payments.Conf
}

type Handler struct {
	catalog   catalog.Conf
	carts     cart.Conf
	customers customers.Conf
	orders    *orders.Conf
	tags      tags.Conf
	payments  *payments.Conf
}

func NewHandler(s Services) (*Handler, error) {
	if s.Orders == nil {
		return nil, errors.New("order service is nil")
	}
	return &Handler{
		catalog:   s.Catalog,
		carts:     s.Carts,
		customers: s.Customers,
		orders:    s.Orders,
		tags:      s.Tags,
		payments:  s.Payments,
	}, nil
}

func API(endpointPrefix string, k *auth.Keys, s Services) (*gin.Engine, error) {
	m, err := middleware.NewMid(k)
	if err != nil {
		return nil, err
	}
	h, err := NewHandler(s)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", HealthCheck)

	anyone := []string{auth.RoleUser, auth.RoleAdmin}

	public := r.Group(endpointPrefix)
	{
		public.GET("/ping", HealthCheck)

		public.GET("/products", h.ListProducts)
		public.GET("/products/:id", h.GetProduct)
		public.GET("/products/:id/reviews", h.ListReviews)
		public.POST("/products/:id/reviews", h.CreateReview)
		public.GET("/products/:id/tags", h.TagsFor(tags.KindProduct))
		public.GET("/products/:id/likes", h.CountLikes(tags.KindProduct))

		public.GET("/collections", h.ListCollections)
		public.GET("/collections/:id", h.GetCollection)
		public.GET("/collections/:id/tags", h.TagsFor(tags.KindCollection))
		public.GET("/collections/:id/likes", h.CountLikes(tags.KindCollection))

		public.GET("/promotions", h.ListPromotions)
		public.GET("/tags", h.ListTags)

		public.POST("/carts", h.CreateCart)
		public.GET("/carts/:id", h.GetCart)
		public.DELETE("/carts/:id", h.DeleteCart)
		public.GET("/carts/:id/items", h.ListCartItems)
		public.POST("/carts/:id/items", h.AddCartItem)
		public.GET("/carts/:id/items/:item_id", h.GetCartItem)
		public.PATCH("/carts/:id/items/:item_id", h.UpdateCartItem)
		public.DELETE("/carts/:id/items/:item_id", h.RemoveCartItem)

		public.POST("/payments/webhook", h.PaymentWebhook)
	}

	private := r.Group(endpointPrefix)
	{
		private.Use(m.Authentication())

		private.POST("/products", m.Authorize(h.CreateProduct, auth.RoleAdmin))
		private.PUT("/products/:id", m.Authorize(h.UpdateProduct, auth.RoleAdmin))
		private.DELETE("/products/:id", m.Authorize(h.DeleteProduct, auth.RoleAdmin))
		private.DELETE("/products/:id/reviews/:review_id", m.Authorize(h.DeleteReview, auth.RoleAdmin))
		private.POST("/products/:id/tags", m.Authorize(h.TagTarget(tags.KindProduct), auth.RoleAdmin))
		private.POST("/products/:id/likes", m.Authorize(h.Like(tags.KindProduct), anyone...))

		private.POST("/collections", m.Authorize(h.CreateCollection, auth.RoleAdmin))
		private.PUT("/collections/:id", m.Authorize(h.UpdateCollection, auth.RoleAdmin))
		private.DELETE("/collections/:id", m.Authorize(h.DeleteCollection, auth.RoleAdmin))
		private.POST("/collections/:id/tags", m.Authorize(h.TagTarget(tags.KindCollection), auth.RoleAdmin))
		private.POST("/collections/:id/likes", m.Authorize(h.Like(tags.KindCollection), anyone...))

		private.POST("/promotions", m.Authorize(h.CreatePromotion, auth.RoleAdmin))
		private.POST("/tags", m.Authorize(h.CreateTag, auth.RoleAdmin))

		private.GET("/customers/me", m.Authorize(h.GetMe, anyone...))
		private.PUT("/customers/me", m.Authorize(h.UpdateMe, anyone...))

		private.POST("/orders", m.Authorize(h.PlaceOrder, anyone...))
		private.GET("/orders", m.Authorize(h.ListOrders, anyone...))
		private.GET("/orders/:id", m.Authorize(h.GetOrder, anyone...))
		private.PATCH("/orders/:id", m.Authorize(h.UpdateOrder, auth.RoleAdmin))
		private.DELETE("/orders/:id", m.Authorize(h.DeleteOrder, auth.RoleAdmin))
		private.POST("/orders/:id/checkout", m.Authorize(h.Checkout, anyone...))
	}

	return r, nil
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
