package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/fluxdns/fluxdns/internal/api/authsvc"
	"github.com/fluxdns/fluxdns/internal/api/models"
)

// Login godoc
// @Summary Admin login
// @Description Exchanges admin username/password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param login body models.LoginRequest true "credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	token, expiresAt, err := h.Auth.Login(req.Username, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if err != authsvc.ErrInvalidCredentials {
			status = http.StatusInternalServerError
		}
		c.JSON(status, models.ErrorResponse{Error: "invalid username or password"})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		TokenType: "Bearer",
	})
}
