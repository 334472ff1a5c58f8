package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/fluxdns/fluxdns/internal/api/models"
	"github.com/fluxdns/fluxdns/internal/listener"
	"github.com/fluxdns/fluxdns/internal/store"
)

// ListListeners godoc
// @Summary List ingress listener configurations
// @Tags listeners
// @Produce json
// @Success 200 {array} models.ListenerResponse
// @Security BearerAuth
// @Router /listeners [get]
func (h *Handler) ListListeners(c *gin.Context) {
	configs, err := h.Store.ListListeners(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]models.ListenerResponse, len(configs))
	for i, cfg := range configs {
		out[i] = h.listenerToResponse(cfg)
	}
	c.JSON(http.StatusOK, out)
}

// GetListener godoc
// @Summary Get one listener's configuration
// @Tags listeners
// @Produce json
// @Param protocol path string true "protocol (udp|dot|doh|doq)"
// @Success 200 {object} models.ListenerResponse
// @Security BearerAuth
// @Router /listeners/{protocol} [get]
func (h *Handler) GetListener(c *gin.Context) {
	proto := listener.Protocol(c.Param("protocol"))
	cfg, err := h.Store.GetListener(c.Request.Context(), proto)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "unknown protocol"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.listenerToResponse(cfg))
}

// UpdateListener godoc
// @Summary Update a listener's configuration and apply it live
// @Description Persists the new configuration, then starts/stops/restarts the listener to match. A bind failure or missing TLS material reverts enabled back to false.
// @Tags listeners
// @Accept json
// @Produce json
// @Param protocol path string true "protocol (udp|dot|doh|doq)"
// @Param listener body models.ListenerRequest true "listener"
// @Success 200 {object} models.ListenerResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /listeners/{protocol} [put]
func (h *Handler) UpdateListener(c *gin.Context) {
	proto := listener.Protocol(c.Param("protocol"))

	var req models.ListenerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	cfg := listener.Config{
		Protocol:    proto,
		Enabled:     req.Enabled,
		BindAddress: req.BindAddress,
		Port:        req.Port,
		TLSCert:     req.TLSCert,
		TLSKey:      req.TLSKey,
	}

	if err := h.Store.UpdateListener(c.Request.Context(), cfg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "unknown protocol"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	if h.Listeners != nil {
		ctx := c.Request.Context()
		if cfg.Enabled {
			if err := h.Listeners.StartListener(ctx, proto); err != nil {
				c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: err.Error()})
				return
			}
		} else {
			h.Listeners.StopListener(proto)
		}
	}

	current, err := h.Store.GetListener(c.Request.Context(), proto)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.listenerToResponse(current))
}

func (h *Handler) listenerToResponse(cfg listener.Config) models.ListenerResponse {
	running := false
	if h.Listeners != nil {
		running = h.Listeners.IsRunning(cfg.Protocol)
	}
	return models.ListenerResponse{
		Protocol:    string(cfg.Protocol),
		Enabled:     cfg.Enabled,
		BindAddress: cfg.BindAddress,
		Port:        cfg.Port,
		TLSCert:     cfg.TLSCert,
		TLSKey:      cfg.TLSKey,
		Running:     running,
	}
}
