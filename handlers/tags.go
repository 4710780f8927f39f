package handlers

import (
	"net/http"

	"storefront/internal/tags"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTags(c *gin.Context) {
	list, err := h.tags.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateTag(c *gin.Context) {
	var nt tags.NewTag
	if err := c.ShouldBindJSON(&nt); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.tags.CreateTag(c.Request.Context(), nt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func targetParam(c *gin.Context, kind tags.Kind) (tags.Target, bool) {
	id, ok := int64Param(c, "id")
	if !ok {
		return tags.Target{}, false
	}
	return tags.Target{Kind: kind, ID: id}, true
}

func (h *Handler) TagTarget(kind tags.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, ok := targetParam(c, kind)
		if !ok {
			return
		}
		var request struct {
			TagID int64 `json:"tag_id"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			badRequest(c, err)
			return
		}
		ti, err := h.tags.Tag(c.Request.Context(), request.TagID, target)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ti)
	}
}

func (h *Handler) TagsFor(kind tags.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, ok := targetParam(c, kind)
		if !ok {
			return
		}
		list, err := h.tags.TagsFor(c.Request.Context(), target)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func (h *Handler) Like(kind tags.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsOf(c)
		if !ok {
			return
		}
		target, ok := targetParam(c, kind)
		if !ok {
			return
		}
		added, err := h.tags.Like(c.Request.Context(), claims.Subject, target)
		if err != nil {
			respondError(c, err)
			return
		}
		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{"liked": true})
	}
}

func (h *Handler) CountLikes(kind tags.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, ok := targetParam(c, kind)
		if !ok {
			return
		}
		n, err := h.tags.CountLikes(c.Request.Context(), target)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": n})
	}
}
