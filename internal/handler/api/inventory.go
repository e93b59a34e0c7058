package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	reqdto "slotstream/internal/handler/dto/request"
	resdto "slotstream/internal/handler/dto/response"
	"slotstream/internal/handler/middleware"
	"slotstream/internal/idempotency"
	"slotstream/internal/infra"
	"slotstream/internal/pkg/errs"
	"slotstream/internal/usecase/commands"
	"slotstream/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	inventoryCommands commands.InventoryCommands
	inventoryQueries  queries.InventoryQueries
	coordinator       *idempotency.Coordinator
}

func NewInventoryHandler(
	inventoryCommands commands.InventoryCommands,
	inventoryQueries queries.InventoryQueries,
	coordinator *idempotency.Coordinator,
) *InventoryHandler {
	return &InventoryHandler{
		inventoryCommands: inventoryCommands,
		inventoryQueries:  inventoryQueries,
		coordinator:       coordinator,
	}
}

// @Summary Reserve capacity
// @Description Atomically reserve capacity units across one or more time slots
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param request body reqdto.ReserveRequest true "Reservation request"
// @Success 201 {object} resdto.ReserveResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /inventory/reservations [post]
func (h *InventoryHandler) Reserve(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	actorID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	idempotencyKey, err := h.getIdempotencyKey(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	// The raw body feeds the fingerprint; restore it so binding still works.
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var req reqdto.ReserveRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	fingerprint := idempotency.Fingerprint(c.Request.Method, c.Request.URL.Path, body, actorID)

	begin, err := h.coordinator.Begin(c.Request.Context(), tenantID, idempotencyKey, fingerprint, 0)
	if err != nil {
		h.handleBeginError(c, tenantID, idempotencyKey, err)
		return
	}

	if begin.Replay != nil {
		h.writeSnapshot(c, begin.Replay, true)
		return
	}
	if begin.Completed {
		// The original response was too large to cache; the effect is
		// committed, the caller re-reads current state.
		c.Header("Idempotency-Replayed", "true")
		c.JSON(http.StatusOK, gin.H{"status": "completed"})
		return
	}

	h.executeReserve(c, tenantID, idempotencyKey, req)
}

// executeReserve runs the winner's reservation and records the outcome so
// every duplicate of this key receives the identical response.
func (h *InventoryHandler) executeReserve(c *gin.Context, tenantID, idempotencyKey uuid.UUID, req reqdto.ReserveRequest) {
	ctx := c.Request.Context()

	result, err := h.inventoryCommands.Reserve(ctx, tenantID, req.ToCommand())
	if err != nil {
		status, payload, cacheable := classifyReserveError(err)
		snapshot := snapshotJSON(status, payload)

		if failErr := h.coordinator.Fail(ctx, tenantID, idempotencyKey, cacheable, snapshot); failErr != nil {
			slog.Warn("failed to record idempotent failure",
				"scope", tenantID, "key", idempotencyKey, "error", failErr.Error())
		}
		c.JSON(status, payload)
		return
	}

	response := resdto.FromReserveResult(result)
	snapshot := snapshotJSON(http.StatusCreated, response)
	if snapshot == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.coordinator.Complete(ctx, tenantID, idempotencyKey, *snapshot); err != nil {
		// The reservation is committed; losing the snapshot only costs a
		// replay, never the effect.
		slog.Warn("failed to record idempotent completion",
			"scope", tenantID, "key", idempotencyKey, "error", err.Error())
	}

	c.JSON(http.StatusCreated, response)
}

func (h *InventoryHandler) handleBeginError(c *gin.Context, tenantID, idempotencyKey uuid.UUID, err error) {
	switch {
	case errors.Is(err, errs.ErrFingerprintMismatch):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Idempotency key reused with different request parameters",
		})

	case errors.Is(err, errs.ErrIdempotencyInProgress):
		snapshot, awaitErr := h.coordinator.AwaitCompletion(c.Request.Context(), tenantID, idempotencyKey, 0)
		switch {
		case awaitErr == nil && snapshot != nil:
			h.writeSnapshot(c, snapshot, true)
		case errors.Is(awaitErr, errs.ErrAwaitTimeout):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Request is currently being processed",
			})
		case errors.Is(awaitErr, errs.ErrRetryBudgetExhausted):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Request failed and its retry budget is exhausted",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}

	case errors.Is(err, errs.ErrRetryBudgetExhausted):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Request failed and its retry budget is exhausted",
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

// @Summary Release reservations
// @Description Cancel reservations and restore their capacity
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.ReleaseRequest true "Release request"
// @Success 200 {object} resdto.ReleaseResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /inventory/releases [post]
func (h *InventoryHandler) Release(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.ReleaseRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.inventoryCommands.Release(c.Request.Context(), tenantID, req.ReservationIDs)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "One or more reservations not found",
			})
		case errors.Is(err, errs.ErrDomainValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Domain validation failed",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromReleaseResult(result))
}

// @Summary Get inventory status
// @Description Current aggregated capacity per resource in a time window
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param resource_id query []string true "Resource IDs"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Success 200 {array} resdto.StatusResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /inventory/status [get]
func (h *InventoryHandler) GetStatus(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var query reqdto.StatusQuery
	if bindErr := c.ShouldBindQuery(&query); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	statuses, err := h.inventoryQueries.GetStatus(c.Request.Context(), tenantID, query.ResourceIDs, query.Window())
	if err != nil {
		if errors.Is(err, errs.ErrDomainValidation) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "At least one resource id is required",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response, err := resdto.FromStatuses(statuses)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Get demand statistics
// @Description Utilization series and naive demand prediction for a resource
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param resource_id query string true "Resource ID"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Success 200 {object} resdto.DemandStatsResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /inventory/stats [get]
func (h *InventoryHandler) GetDemandStats(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var query reqdto.StatsQuery
	if bindErr := c.ShouldBindQuery(&query); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	stats, err := h.inventoryQueries.GetDemandStats(c.Request.Context(), tenantID, query.ResourceID, query.Window())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response, err := resdto.FromDemandStats(stats)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *InventoryHandler) getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, errs.ErrIdempotencyKeyRequired
	}

	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid idempotency key format")
	}

	return key, nil
}

func (h *InventoryHandler) writeSnapshot(c *gin.Context, snapshot *idempotency.ResponseSnapshot, replayed bool) {
	if replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	for name, value := range snapshot.Headers {
		c.Header(name, value)
	}
	contentType := snapshot.Headers["Content-Type"]
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(snapshot.StatusCode, contentType, snapshot.Body)
}

// classifyReserveError maps a reservation failure to its HTTP shape and
// decides whether the outcome is deterministic enough to cache: validation
// and capacity outcomes replay identically, infrastructure failures stay
// retryable.
func classifyReserveError(err error) (status int, payload any, cacheable bool) {
	var capErr *commands.CapacityError
	if errors.As(err, &capErr) {
		return http.StatusConflict, gin.H{
			"error": "Insufficient capacity",
			"detail": gin.H{
				"resourceId": capErr.ResourceID,
				"timeSlotId": capErr.TimeSlotID,
				"requested":  capErr.Requested,
				"available":  capErr.Available,
			},
		}, true
	}

	switch {
	case errors.Is(err, errs.ErrInsufficientCapacity):
		return http.StatusConflict, gin.H{"error": "Insufficient capacity"}, true
	case infra.IsKind(err, infra.KindNotFound), errors.Is(err, errs.ErrSlotNotFound):
		return http.StatusNotFound, gin.H{"error": "Time slot not found"}, true
	case errors.Is(err, errs.ErrInvalidCapacityUnits):
		return http.StatusUnprocessableEntity, gin.H{"error": "Capacity units must be at least 1"}, true
	case errors.Is(err, errs.ErrDuplicateSlotItem):
		return http.StatusUnprocessableEntity, gin.H{"error": "Duplicate slot in reservation items"}, true
	case errors.Is(err, errs.ErrDomainValidation):
		return http.StatusUnprocessableEntity, gin.H{"error": "Domain validation failed"}, true
	default:
		return http.StatusInternalServerError, gin.H{"error": "Internal server error"}, false
	}
}

func snapshotJSON(status int, payload any) *idempotency.ResponseSnapshot {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to encode response snapshot", "error", err.Error())
		return nil
	}
	return &idempotency.ResponseSnapshot{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}
