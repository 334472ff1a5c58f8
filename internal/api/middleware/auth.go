// Package middleware provides HTTP middleware for the FluxDNS admin
// REST API: JWT bearer authentication and structured request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/fluxdns/fluxdns/internal/api/authsvc"
	"github.com/fluxdns/fluxdns/internal/api/models"
)

// claimsContextKey is the gin context key the verified claims are
// stored under, for handlers that need the authenticated subject.
const claimsContextKey = "fluxdns.auth.claims"

// RequireBearerToken enforces a valid JWT issued by svc, extracted from
// the "Authorization: Bearer <token>" header (original source's
// extract_token_from_header convention).
func RequireBearerToken(svc *authsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := svc.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid or expired token"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// Subject returns the authenticated username from a request already
// past RequireBearerToken, or "" if absent.
func Subject(c *gin.Context) string {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return ""
	}
	claims, ok := v.(*authsvc.Claims)
	if !ok {
		return ""
	}
	return claims.Subject
}
