package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/domain/models"
	"github.com/mamadbah2/stones/internal/service/reporting"
	"github.com/mamadbah2/stones/internal/validator"
	"github.com/mamadbah2/stones/pkg/clients/stones"
)

// InventoryReporter is the reporting surface exposed over HTTP.
type InventoryReporter interface {
	Summarize(ctx context.Context) (models.InventorySummary, error)
	LatestSnapshot(ctx context.Context) (*models.InventorySnapshot, error)
	History(ctx context.Context) ([]models.InventorySnapshot, error)
}

// StonesHandler proxies the stones backend and serves inventory reports.
type StonesHandler struct {
	client   stones.Client
	reporter InventoryReporter
	logger   *zap.Logger
}

// NewStonesHandler constructs the HTTP handler adapter.
func NewStonesHandler(client stones.Client, reporter InventoryReporter, logger *zap.Logger) *StonesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StonesHandler{client: client, reporter: reporter, logger: logger}
}

// List returns every stone.
func (h *StonesHandler) List(c *gin.Context) {
	list, err := h.client.ListStones(c.Request.Context())
	if err != nil {
		h.upstreamError(c, "list stones", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one stone.
func (h *StonesHandler) Get(c *gin.Context) {
	stone, err := h.client.GetStone(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.upstreamError(c, "get stone", err)
		return
	}
	c.JSON(http.StatusOK, stone)
}

// Update replaces a stone. Text fields are trimmed and the total investment is
// derived from the submitted costs.
func (h *StonesHandler) Update(c *gin.Context) {
	var record models.StoneRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	record.StoneName = strings.TrimSpace(record.StoneName)
	record.BoughtFrom = strings.TrimSpace(record.BoughtFrom)

	v := validator.New()
	v.Check(record.StoneName != "", models.FieldStoneName, "must be provided")
	v.Check(record.BoughtFrom != "", models.FieldBoughtFrom, "must be provided")
	v.Check(record.EstimatedFeet >= 0, models.FieldEstimatedFeet, "must be zero or greater")
	v.Check(record.StoneCost >= 0, models.FieldStoneCost, "must be zero or greater")
	v.Check(record.StoneTravelCost >= 0, models.FieldStoneTravelCost, "must be zero or greater")
	if !v.Valid() {
		errorResponse(c, http.StatusUnprocessableEntity, v.Errors)
		return
	}

	stone, err := h.client.UpdateStone(c.Request.Context(), c.Param("id"), record)
	if err != nil {
		h.upstreamError(c, "update stone", err)
		return
	}
	c.JSON(http.StatusOK, stone)
}

// Delete removes a stone and relays the backend acknowledgement.
func (h *StonesHandler) Delete(c *gin.Context) {
	body, err := h.client.DeleteStone(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.upstreamError(c, "delete stone", err)
		return
	}
	if body == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// Summary aggregates the current inventory.
func (h *StonesHandler) Summary(c *gin.Context) {
	summary, err := h.reporter.Summarize(c.Request.Context())
	if err != nil {
		h.upstreamError(c, "summarize inventory", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// LatestSnapshot returns the last stored inventory snapshot.
func (h *StonesHandler) LatestSnapshot(c *gin.Context) {
	snapshot, err := h.reporter.LatestSnapshot(c.Request.Context())
	switch {
	case errors.Is(err, reporting.ErrNoSnapshotStore):
		errorResponse(c, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		h.logger.Error("failed loading latest snapshot", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "unable to load snapshot")
	case snapshot == nil:
		errorResponse(c, http.StatusNotFound, "no snapshot recorded yet")
	default:
		c.JSON(http.StatusOK, snapshot)
	}
}

// History returns the snapshot totals kept in the inventory sheet.
func (h *StonesHandler) History(c *gin.Context) {
	history, err := h.reporter.History(c.Request.Context())
	switch {
	case errors.Is(err, reporting.ErrNoSnapshotStore):
		errorResponse(c, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		h.logger.Error("failed loading snapshot history", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "unable to load snapshot history")
	default:
		c.JSON(http.StatusOK, history)
	}
}

func (h *StonesHandler) upstreamError(c *gin.Context, op string, err error) {
	status := upstreamStatus(err)
	h.logger.Warn("stones backend call failed", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	errorResponse(c, status, err.Error())
}
