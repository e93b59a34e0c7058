package api

import (
	"io"
	"net/http"

	"slotstream/internal/realtime/transport"

	"github.com/gin-gonic/gin"
)

type StreamHandler struct {
	hub *transport.SSEHub
}

func NewStreamHandler(hub *transport.SSEHub) *StreamHandler {
	return &StreamHandler{
		hub: hub,
	}
}

// @Summary Open an update stream
// @Description Server-sent events stream carrying subscription updates for one connection
// @Tags subscriptions
// @Produce text/event-stream
// @Security BearerAuth
// @Param connection_id query string true "Connection ID referenced by subscriptions"
// @Success 200
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /subscriptions/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	connectionID := c.Query("connection_id")
	if connectionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "connection_id is required",
		})
		return
	}

	messages, detach := h.hub.Attach(connectionID)
	defer detach()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(_ io.Writer) bool {
		select {
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
