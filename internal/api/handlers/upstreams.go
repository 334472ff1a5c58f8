package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/fluxdns/fluxdns/internal/api/models"
	"github.com/fluxdns/fluxdns/internal/store"
)

// ListUpstreams godoc
// @Summary List upstream servers
// @Tags upstreams
// @Produce json
// @Success 200 {array} models.UpstreamResponse
// @Security BearerAuth
// @Router /upstreams [get]
func (h *Handler) ListUpstreams(c *gin.Context) {
	rows, err := h.Store.ListUpstreams(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]models.UpstreamResponse, len(rows))
	for i, u := range rows {
		out[i] = h.upstreamToResponse(u)
	}
	c.JSON(http.StatusOK, out)
}

// GetUpstreamStatus godoc
// @Summary Live health of upstream servers
// @Tags upstreams
// @Produce json
// @Success 200 {array} models.UpstreamStatsResponse
// @Security BearerAuth
// @Router /upstreams/status [get]
func (h *Handler) GetUpstreamStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.upstreamStats())
}

// CreateUpstream godoc
// @Summary Add an upstream server
// @Tags upstreams
// @Accept json
// @Produce json
// @Param upstream body models.UpstreamRequest true "upstream"
// @Success 201 {object} models.UpstreamResponse
// @Security BearerAuth
// @Router /upstreams [post]
func (h *Handler) CreateUpstream(c *gin.Context) {
	var req models.UpstreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	row := store.UpstreamRow{
		Name:      req.Name,
		Address:   req.Address,
		Protocol:  req.Protocol,
		TimeoutMs: req.TimeoutMs,
		Enabled:   req.Enabled,
	}
	id, err := h.Store.CreateUpstream(c.Request.Context(), row)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	row.ID = id
	h.reloadUpstreams(c)
	c.JSON(http.StatusCreated, h.upstreamToResponse(row))
}

// UpdateUpstream godoc
// @Summary Update an upstream server
// @Tags upstreams
// @Accept json
// @Produce json
// @Param id path int true "upstream id"
// @Param upstream body models.UpstreamRequest true "upstream"
// @Success 200 {object} models.UpstreamResponse
// @Security BearerAuth
// @Router /upstreams/{id} [put]
func (h *Handler) UpdateUpstream(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid id"})
		return
	}

	var req models.UpstreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	row := store.UpstreamRow{
		ID:        id,
		Name:      req.Name,
		Address:   req.Address,
		Protocol:  req.Protocol,
		TimeoutMs: req.TimeoutMs,
		Enabled:   req.Enabled,
	}
	if err := h.Store.UpdateUpstream(c.Request.Context(), row); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "upstream not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	h.reloadUpstreams(c)
	c.JSON(http.StatusOK, h.upstreamToResponse(row))
}

// DeleteUpstream godoc
// @Summary Remove an upstream server
// @Tags upstreams
// @Param id path int true "upstream id"
// @Success 204
// @Security BearerAuth
// @Router /upstreams/{id} [delete]
func (h *Handler) DeleteUpstream(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid id"})
		return
	}

	if err := h.Store.DeleteUpstream(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "upstream not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	h.reloadUpstreams(c)
	c.Status(http.StatusNoContent)
}

// reloadUpstreams re-reads upstream_servers and swaps the live pool's
// server list, so CRUD changes take effect without a restart.
func (h *Handler) reloadUpstreams(c *gin.Context) {
	if h.Pool == nil {
		return
	}
	servers, err := h.Store.LoadPoolServers(c.Request.Context())
	if err != nil {
		return
	}
	h.Pool.LoadServers(servers)
}

func (h *Handler) upstreamToResponse(u store.UpstreamRow) models.UpstreamResponse {
	resp := models.UpstreamResponse{
		ID:        u.ID,
		Name:      u.Name,
		Address:   u.Address,
		Protocol:  u.Protocol,
		TimeoutMs: u.TimeoutMs,
		Enabled:   u.Enabled,
	}
	if h.Pool != nil {
		if snap, ok := h.Pool.StatsFor(u.ID); ok {
			resp.Healthy = snap.Healthy
			resp.AvgRttMs = snap.AvgResponseMs()
		}
	}
	return resp
}

func (h *Handler) upstreamStats() []models.UpstreamStatsResponse {
	if h.Pool == nil {
		return nil
	}
	servers := h.Pool.All()
	out := make([]models.UpstreamStatsResponse, 0, len(servers))
	for _, s := range servers {
		snap, _ := h.Pool.StatsFor(s.ID)
		out = append(out, models.UpstreamStatsResponse{
			ID:          s.ID,
			Name:        s.Name,
			Healthy:     snap.Healthy,
			Successes:   snap.Successes,
			Failures:    snap.Failures,
			AvgRttMs:    snap.AvgResponseMs(),
			SuccessRate: snap.SuccessRate(),
		})
	}
	return out
}
