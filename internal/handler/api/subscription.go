package api

import (
	"errors"
	"net/http"

	reqdto "slotstream/internal/handler/dto/request"
	resdto "slotstream/internal/handler/dto/response"
	"slotstream/internal/handler/middleware"
	"slotstream/internal/pkg/errs"
	"slotstream/internal/realtime/broadcast"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SubscriptionHandler struct {
	broadcaster *broadcast.Broadcaster
}

func NewSubscriptionHandler(broadcaster *broadcast.Broadcaster) *SubscriptionHandler {
	return &SubscriptionHandler{
		broadcaster: broadcaster,
	}
}

// @Summary Subscribe to inventory updates
// @Description Register a live subscription; a full snapshot is pushed immediately
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.SubscribeRequest true "Subscription request"
// @Success 201 {object} resdto.SubscribeResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /subscriptions [post]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.SubscribeRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	subscriptionID, err := h.broadcaster.Subscribe(c.Request.Context(), req.ToParams(tenantID))
	if err != nil {
		if errors.Is(err, errs.ErrDomainValidation) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid subscription parameters",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusCreated, resdto.SubscribeResponse{SubscriptionID: subscriptionID})
}

// @Summary Remove a subscription
// @Description Stop pushing updates for a subscription
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} resdto.UnsubscribeResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /subscriptions/{id} [delete]
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	subscriptionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid subscription ID format",
		})
		return
	}

	if err := h.broadcaster.Unsubscribe(subscriptionID); err != nil {
		if errors.Is(err, errs.ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Subscription not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.UnsubscribeResponse{Removed: true})
}
