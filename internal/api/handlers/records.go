package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/fluxdns/fluxdns/internal/api/models"
	"github.com/fluxdns/fluxdns/internal/dnswire"
	"github.com/fluxdns/fluxdns/internal/store"
)

// ListRecords godoc
// @Summary List local DNS records
// @Tags records
// @Produce json
// @Success 200 {array} models.RecordResponse
// @Security BearerAuth
// @Router /records [get]
func (h *Handler) ListRecords(c *gin.Context) {
	records, err := h.Store.ListRecords(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]models.RecordResponse, len(records))
	for i, r := range records {
		out[i] = recordToResponse(r)
	}
	c.JSON(http.StatusOK, out)
}

// CreateRecord godoc
// @Summary Create a local DNS record
// @Tags records
// @Accept json
// @Produce json
// @Param record body models.RecordRequest true "record"
// @Success 201 {object} models.RecordResponse
// @Security BearerAuth
// @Router /records [post]
func (h *Handler) CreateRecord(c *gin.Context) {
	var req models.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	recordType, ok := dnswire.RecordTypeFromString(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "unknown record type: " + req.Type})
		return
	}

	rec := store.Record{
		Name:     req.Name,
		Type:     recordType,
		Value:    req.Value,
		TTL:      req.TTL,
		Priority: req.Priority,
		Enabled:  req.Enabled,
	}

	id, err := h.Store.CreateRecord(c.Request.Context(), rec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	rec.ID = id
	c.JSON(http.StatusCreated, recordToResponse(rec))
}

// UpdateRecord godoc
// @Summary Update a local DNS record
// @Tags records
// @Accept json
// @Produce json
// @Param id path int true "record id"
// @Param record body models.RecordRequest true "record"
// @Success 200 {object} models.RecordResponse
// @Security BearerAuth
// @Router /records/{id} [put]
func (h *Handler) UpdateRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid id"})
		return
	}

	var req models.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	recordType, ok := dnswire.RecordTypeFromString(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "unknown record type: " + req.Type})
		return
	}

	rec := store.Record{
		ID:       id,
		Name:     req.Name,
		Type:     recordType,
		Value:    req.Value,
		TTL:      req.TTL,
		Priority: req.Priority,
		Enabled:  req.Enabled,
	}

	if err := h.Store.UpdateRecord(c.Request.Context(), rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, recordToResponse(rec))
}

// DeleteRecord godoc
// @Summary Delete a local DNS record
// @Tags records
// @Param id path int true "record id"
// @Success 204
// @Security BearerAuth
// @Router /records/{id} [delete]
func (h *Handler) DeleteRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid id"})
		return
	}

	if err := h.Store.DeleteRecord(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func recordToResponse(r store.Record) models.RecordResponse {
	return models.RecordResponse{
		ID:       r.ID,
		Name:     r.Name,
		Type:     r.Type.String(),
		Value:    r.Value,
		TTL:      r.TTL,
		Priority: r.Priority,
		Enabled:  r.Enabled,
	}
}
