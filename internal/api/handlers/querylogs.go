package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/fluxdns/fluxdns/internal/api/models"
	"github.com/fluxdns/fluxdns/internal/store"
)

// ListQueryLogs godoc
// @Summary List query log entries
// @Description Returns the most recent query_logs rows, newest first, optionally filtered by a substring of the queried name.
// @Tags logs
// @Produce json
// @Param name query string false "filter: substring of query_name"
// @Param limit query int false "max rows (default 100; a value above 1000 also falls back to 100)"
// @Param offset query int false "pagination offset"
// @Success 200 {object} models.QueryLogListResponse
// @Security BearerAuth
// @Router /logs [get]
func (h *Handler) ListQueryLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	filter := store.QueryLogFilter{
		QueryName: c.Query("name"),
		Limit:     limit,
		Offset:    offset,
	}

	rows, err := h.Store.ListQueryLogs(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	logs := make([]models.QueryLogResponse, len(rows))
	for i, r := range rows {
		logs[i] = models.QueryLogResponse{
			ID:             r.ID,
			ClientIP:       r.ClientIP,
			QueryName:      r.QueryName,
			QueryType:      r.QueryType,
			ResponseCode:   r.ResponseCode,
			ResponseTimeMs: r.ResponseTimeMs,
			CacheHit:       r.CacheHit,
			UpstreamUsed:   r.UpstreamUsed,
			CreatedAt:      r.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, models.QueryLogListResponse{Logs: logs, Limit: filter.Limit, Offset: filter.Offset})
}
