package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-advisor/internal/domain/advisor"
	"github.com/yanqian/aqi-advisor/internal/domain/auth"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// CityFeed returns the AQI feed for a city, or the nearest station's.
func (h *Handler) CityFeed(c *gin.Context) {
	feed, err := h.airSvc.ByCity(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// GeoFeed returns the AQI feed nearest to ?lat=&lng=.
func (h *Handler) GeoFeed(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(c.Query("lat")), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(c.Query("lng")), 64)
	if latErr != nil || lngErr != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "lat and lng query parameters are required", nil))
		return
	}
	feed, err := h.airSvc.ByGeo(c.Request.Context(), lat, lng)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// StationFeed returns the AQI feed of a station uid.
func (h *Handler) StationFeed(c *gin.Context) {
	feed, err := h.airSvc.ByStation(c.Request.Context(), c.Param("uid"))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// SearchStations lists stations matching a keyword.
func (h *Handler) SearchStations(c *gin.Context) {
	stations, err := h.airSvc.Search(c.Request.Context(), c.Param("keyword"))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stations": stations})
}

// AIRecommendation returns the quick rule based recommendation.
func (h *Handler) AIRecommendation(c *gin.Context) {
	var req advisor.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	resp, err := h.advisorSvc.Recommend(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PersonalizedAdvice answers the advice form of a logged in user. Fields the
// form leaves blank are taken from the stored profile.
func (h *Handler) PersonalizedAdvice(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req advisor.AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Location) == "" && strings.TrimSpace(req.CityName) == "" {
		req.Location = user.City
	}
	if req.Age == 0 && req.AgeGroup == "" {
		req.Age = user.Age
	}
	if req.Gender == "" {
		req.Gender = user.Gender
	}
	if len(req.Conditions) == 0 {
		req.Conditions = user.HealthConditions
	}

	resp, err := h.advisorSvc.PersonalizedAdvice(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PersonalizedRecommendation tailors the recommendation to the stored profile
// when the caller is logged in and answers generically otherwise.
func (h *Handler) PersonalizedRecommendation(c *gin.Context) {
	var req advisor.PersonalizedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	user, ok, err := h.currentUser(c)
	if err != nil {
		h.logger.Warn("profile lookup failed, answering anonymously", "error", err)
	}
	var userCtx *advisor.UserContext
	if ok {
		userCtx = toUserContext(user)
	}
	resp, err := h.advisorSvc.PersonalizedRecommendation(c.Request.Context(), userCtx, req)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func toUserContext(user auth.UserView) *advisor.UserContext {
	return &advisor.UserContext{
		Name:       user.Name,
		Age:        user.Age,
		Gender:     user.Gender,
		City:       user.City,
		Conditions: user.HealthConditions,
	}
}
