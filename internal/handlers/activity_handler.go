package handlers

import (
	"net/http"
	"strconv"

	"go-pos-inventory/internal/database"
	"go-pos-inventory/internal/middleware"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/activity?type=sale&limit=100 ---
func (h *Handler) GetActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.store.ListActivity(c.Request.Context(), database.ActivityFilter{
		Type:  c.Query("type"),
		Limit: limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// --- DELETE: /api/activity ---
func (h *Handler) ClearActivity(c *gin.Context) {
	removed, err := h.store.ClearActivity(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.log(c).WithField("removed", removed).WithField("by", middleware.CurrentActor(c).Name).Warn("Activity log cleared")
	c.JSON(http.StatusOK, gin.H{"message": "Activity log cleared", "removed": removed})
}
