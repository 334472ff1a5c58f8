package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/fluxdns/fluxdns/internal/api/models"
	"github.com/fluxdns/fluxdns/internal/store"
)

// ListRules godoc
// @Summary List rewrite rules
// @Tags rules
// @Produce json
// @Success 200 {array} models.RuleResponse
// @Security BearerAuth
// @Router /rules [get]
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.Store.ListRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]models.RuleResponse, len(rules))
	for i, r := range rules {
		out[i] = ruleToResponse(r)
	}
	c.JSON(http.StatusOK, out)
}

// CreateRule godoc
// @Summary Create a rewrite rule
// @Tags rules
// @Accept json
// @Produce json
// @Param rule body models.RuleRequest true "rule"
// @Success 201 {object} models.RuleResponse
// @Security BearerAuth
// @Router /rules [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req models.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	rule := ruleFromRequest(req)
	id, err := h.Store.CreateRule(c.Request.Context(), rule)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	rule.ID = id
	h.reloadRules(c)
	c.JSON(http.StatusCreated, ruleToResponse(rule))
}

// UpdateRule godoc
// @Summary Update a rewrite rule
// @Tags rules
// @Accept json
// @Produce json
// @Param id path int true "rule id"
// @Param rule body models.RuleRequest true "rule"
// @Success 200 {object} models.RuleResponse
// @Security BearerAuth
// @Router /rules/{id} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid id"})
		return
	}

	var req models.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	rule := ruleFromRequest(req)
	rule.ID = id
	if err := h.Store.UpdateRule(c.Request.Context(), rule); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	h.reloadRules(c)
	c.JSON(http.StatusOK, ruleToResponse(rule))
}

// DeleteRule godoc
// @Summary Delete a rewrite rule
// @Tags rules
// @Param id path int true "rule id"
// @Success 204
// @Security BearerAuth
// @Router /rules/{id} [delete]
func (h *Handler) DeleteRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid id"})
		return
	}

	if err := h.Store.DeleteRule(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	h.reloadRules(c)
	c.Status(http.StatusNoContent)
}

// ReloadRules godoc
// @Summary Force-reload the rewrite engine from storage
// @Tags rules
// @Success 204
// @Security BearerAuth
// @Router /rules/reload [post]
func (h *Handler) ReloadRules(c *gin.Context) {
	if h.Resolver == nil || h.Resolver.Rewrite == nil {
		c.Status(http.StatusNoContent)
		return
	}
	rules, err := h.Store.LoadEngineRules(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	h.Resolver.Rewrite.LoadRules(rules)
	c.Status(http.StatusNoContent)
}

// reloadRules mirrors the store mutation's effect into the
// resolver's in-memory rewrite engine so it takes effect immediately.
// It reloads the full rule list synchronously, before the HTTP response
// is written; a load error leaves the engine unchanged.
func (h *Handler) reloadRules(c *gin.Context) {
	if h.Resolver == nil || h.Resolver.Rewrite == nil {
		return
	}
	rules, err := h.Store.LoadEngineRules(c.Request.Context())
	if err != nil {
		return
	}
	h.Resolver.Rewrite.LoadRules(rules)
}

func ruleToResponse(r store.Rule) models.RuleResponse {
	return models.RuleResponse{
		ID:          r.ID,
		Pattern:     r.Pattern,
		MatchType:   r.MatchType,
		ActionType:  r.ActionType,
		ActionValue: r.ActionValue,
		Priority:    r.Priority,
		Enabled:     r.Enabled,
		Description: r.Description,
	}
}

func ruleFromRequest(req models.RuleRequest) store.Rule {
	return store.Rule{
		Pattern:     req.Pattern,
		MatchType:   req.MatchType,
		ActionType:  req.ActionType,
		ActionValue: req.ActionValue,
		Priority:    req.Priority,
		Enabled:     req.Enabled,
		Description: req.Description,
	}
}
