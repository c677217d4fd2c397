package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
)

// CreateAlert records a live tracking alert for the caller.
func (h *Handler) CreateAlert(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req livetrack.AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	to := livetrack.Recipient{
		UserID:         userKey(user.ID),
		Email:          user.Email,
		Name:           user.Name,
		TelegramChatID: user.TelegramChatID,
	}
	alert, err := h.trackSvc.Record(c.Request.Context(), to, req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// ListAlerts returns the caller's recent alerts, newest first.
func (h *Handler) ListAlerts(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortNotLoggedIn(c)
		return
	}
	alerts, err := h.trackSvc.List(c.Request.Context(), userKey(claims.UserID))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// ClearAlerts drops the caller's alert history.
func (h *Handler) ClearAlerts(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortNotLoggedIn(c)
		return
	}
	if err := h.trackSvc.Clear(c.Request.Context(), userKey(claims.UserID)); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alerts cleared"})
}

// AlertFeed streams the caller's new alerts over a websocket.
func (h *Handler) AlertFeed(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortNotLoggedIn(c)
		return
	}
	h.feed.serve(c.Writer, c.Request, userKey(claims.UserID))
}
