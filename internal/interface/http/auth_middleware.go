package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-advisor/internal/domain/auth"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

var errNoBearer = errors.New("no bearer token")

func authMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthenticated, "missing or invalid authorization header", err))
			return
		}
		claims, err := svc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			code := apperrors.CodeInvalidToken
			if !apperrors.IsCode(err, apperrors.CodeInvalidToken) {
				status = http.StatusInternalServerError
				code = apperrors.CodeAuth
			}
			abortWithError(c, NewHTTPError(status, code, apperrors.MessageOf(err), err))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// optionalAuthMiddleware attaches claims when a valid token is present and
// otherwise lets the request through anonymously.
func optionalAuthMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err == nil {
			if claims, err := svc.ValidateToken(c.Request.Context(), token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so the feed endpoint may pass ?token= instead.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := strings.TrimSpace(c.Query("token")); token != "" && isWebsocketUpgrade(c.Request) {
			return token, nil
		}
		return "", errNoBearer
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errNoBearer
	}
	return strings.TrimSpace(parts[1]), nil
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
