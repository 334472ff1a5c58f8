package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/fluxdns/fluxdns/internal/api/models"
	"github.com/fluxdns/fluxdns/internal/cache"
	"github.com/fluxdns/fluxdns/internal/store"
	"github.com/fluxdns/fluxdns/internal/strategy"
)

// GetSettings godoc
// @Summary Get runtime settings
// @Tags settings
// @Produce json
// @Success 200 {object} models.SettingsResponse
// @Security BearerAuth
// @Router /settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	all, err := h.Store.GetAllConfig(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp := models.SettingsResponse{
		QueryStrategy:    all[store.ConfigKeyQueryStrategy],
		CacheDefaultTTL:  atoiOr(all[store.ConfigKeyCacheDefaultTTL], 0),
		CacheMaxEntries:  atoiOr(all[store.ConfigKeyCacheMaxEntries], 0),
		LogRetentionDays: atoiOr(all[store.ConfigKeyLogRetentionDays], 0),
		LogAutoCleanup:   all[store.ConfigKeyLogAutoCleanup] == "true",
	}

	var names []string
	if raw, ok := all[store.ConfigKeyDisabledRecordTypes]; ok && raw != "" {
		_ = json.Unmarshal([]byte(raw), &names)
	}
	sort.Strings(names)
	resp.DisabledRecordTypes = names

	c.JSON(http.StatusOK, resp)
}

// UpdateSettings godoc
// @Summary Partially update runtime settings
// @Description Updates only the fields present in the request body, and applies cache/strategy/disabled-type changes to the running resolver immediately.
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body models.SettingsRequest true "settings"
// @Success 200 {object} models.SettingsResponse
// @Security BearerAuth
// @Router /settings [put]
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req models.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()

	if req.DisabledRecordTypes != nil {
		if err := h.Store.SetDisabledRecordTypes(ctx, *req.DisabledRecordTypes); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			return
		}
	}

	if req.QueryStrategy != nil {
		mode, ok := strategy.ModeFromString(*req.QueryStrategy)
		if !ok {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "unknown query_strategy: " + *req.QueryStrategy})
			return
		}
		if err := h.Store.SetConfig(ctx, store.ConfigKeyQueryStrategy, mode.String()); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			return
		}
		if h.Resolver != nil && h.Resolver.Dispatcher != nil {
			h.Resolver.Dispatcher.Mode = mode
		}
	}

	if req.CacheDefaultTTL != nil {
		if err := h.Store.SetConfig(ctx, store.ConfigKeyCacheDefaultTTL, strconv.Itoa(*req.CacheDefaultTTL)); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			return
		}
	}
	if req.CacheMaxEntries != nil {
		if err := h.Store.SetConfig(ctx, store.ConfigKeyCacheMaxEntries, strconv.Itoa(*req.CacheMaxEntries)); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			return
		}
	}
	if (req.CacheDefaultTTL != nil || req.CacheMaxEntries != nil) && h.Resolver != nil && h.Resolver.Cache != nil {
		h.reconfigureCache(ctx)
	}

	if req.LogRetentionDays != nil {
		if err := h.Store.SetConfig(ctx, store.ConfigKeyLogRetentionDays, strconv.Itoa(*req.LogRetentionDays)); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			return
		}
	}
	if req.LogAutoCleanup != nil {
		v := "false"
		if *req.LogAutoCleanup {
			v = "true"
		}
		if err := h.Store.SetConfig(ctx, store.ConfigKeyLogAutoCleanup, v); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			return
		}
	}

	h.GetSettings(c)
}

// GetCacheStats godoc
// @Summary Answer cache occupancy
// @Tags cache
// @Produce json
// @Success 200 {object} models.CacheStatsResponse
// @Security BearerAuth
// @Router /cache/stats [get]
func (h *Handler) GetCacheStats(c *gin.Context) {
	if h.Resolver == nil || h.Resolver.Cache == nil {
		c.JSON(http.StatusOK, models.CacheStatsResponse{})
		return
	}
	stats := h.Resolver.Cache.Stats()
	c.JSON(http.StatusOK, models.CacheStatsResponse{Entries: stats.Entries})
}

// ClearCache godoc
// @Summary Clear the entire answer cache
// @Tags cache
// @Success 204
// @Security BearerAuth
// @Router /cache/clear [post]
func (h *Handler) ClearCache(c *gin.Context) {
	if h.Resolver != nil && h.Resolver.Cache != nil {
		h.Resolver.Cache.Clear()
	}
	c.Status(http.StatusNoContent)
}

// ClearDomainCache godoc
// @Summary Clear cached answers for one domain
// @Tags cache
// @Param domain path string true "domain name"
// @Success 204
// @Security BearerAuth
// @Router /cache/clear/{domain} [post]
func (h *Handler) ClearDomainCache(c *gin.Context) {
	if h.Resolver != nil && h.Resolver.Cache != nil {
		h.Resolver.Cache.ClearDomain(c.Param("domain"))
	}
	c.Status(http.StatusNoContent)
}

// reconfigureCache re-reads cache_default_ttl/cache_max_entries and
// applies them to the running cache without dropping existing entries.
func (h *Handler) reconfigureCache(ctx context.Context) {
	all, err := h.Store.GetAllConfig(ctx)
	if err != nil {
		return
	}
	ttlSeconds := atoiOr(all[store.ConfigKeyCacheDefaultTTL], 0)
	maxEntries := atoiOr(all[store.ConfigKeyCacheMaxEntries], 0)
	h.Resolver.Cache.Reconfigure(cache.Config{
		DefaultTTL: time.Duration(ttlSeconds) * time.Second,
		MaxEntries: maxEntries,
	})
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
