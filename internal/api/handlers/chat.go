package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fluxdns/fluxdns/internal/api/models"
	"github.com/fluxdns/fluxdns/internal/llmagent"
)

// Chat godoc
// @Summary Chat with the optional LLM admin agent
// @Description Translates a natural-language request into calls against the same repository facade the REST endpoints use. 503 if no LLM is configured.
// @Tags agent
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Chat message"
// @Success 200 {object} models.ChatResponse
// @Failure 503 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /agent/chat [post]
func (h *Handler) Chat(c *gin.Context) {
	if h.Agent == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "llm admin agent is not configured"})
		return
	}

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	history := make([]llmagent.ChatMessage, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, llmagent.ChatMessage{Role: llmagent.Role(m.Role), Content: m.Content})
	}

	reply, updated, err := h.Agent.Chat(c.Request.Context(), history, req.Message)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}

	respHistory := make([]models.ChatMessage, 0, len(updated))
	for _, m := range updated {
		if m.Role != llmagent.RoleUser && m.Role != llmagent.RoleAssistant {
			continue
		}
		respHistory = append(respHistory, models.ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	c.JSON(http.StatusOK, models.ChatResponse{Reply: reply, History: respHistory})
}
