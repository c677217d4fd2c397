package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-advisor/internal/domain/auth"
)

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	user, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for an access and refresh token.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh issues new tokens for a refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the caller's profile.
func (h *Handler) Me(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile edits the caller's health profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortNotLoggedIn(c)
		return
	}
	var req auth.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	user, err := h.authSvc.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UserCheck reports whether the caller is logged in, with the profile fields
// the advisor uses. It never fails for anonymous callers.
func (h *Handler) UserCheck(c *gin.Context) {
	user, ok, err := h.currentUser(c)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"logged_in": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logged_in":         true,
		"name":              user.Name,
		"city":              user.City,
		"age":               user.Age,
		"gender":            user.Gender,
		"health_conditions": user.HealthConditions,
	})
}
