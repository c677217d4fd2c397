package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-advisor/internal/domain/advisor"
	"github.com/yanqian/aqi-advisor/internal/domain/airquality"
	"github.com/yanqian/aqi-advisor/internal/domain/auth"
	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	airSvc     airquality.Service
	advisorSvc advisor.Service
	trackSvc   livetrack.Service
	authSvc    auth.Service
	feed       *AlertFeed
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(airSvc airquality.Service, advisorSvc advisor.Service, trackSvc livetrack.Service, authSvc auth.Service, feed *AlertFeed, logger *slog.Logger) *Handler {
	return &Handler{
		airSvc:     airSvc,
		advisorSvc: advisorSvc,
		trackSvc:   trackSvc,
		authSvc:    authSvc,
		feed:       feed,
		logger:     logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// currentUser loads the profile behind the request's claims. ok is false for
// anonymous requests and for tokens whose user no longer exists.
func (h *Handler) currentUser(c *gin.Context) (auth.UserView, bool, error) {
	claims, ok := getClaims(c)
	if !ok {
		return auth.UserView{}, false, nil
	}
	user, err := h.authSvc.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeUserNotFound) {
			return auth.UserView{}, false, nil
		}
		return auth.UserView{}, false, err
	}
	return user, true, nil
}

// requireUser is currentUser for routes behind authMiddleware.
func (h *Handler) requireUser(c *gin.Context) (auth.UserView, bool) {
	user, ok, err := h.currentUser(c)
	if err != nil {
		abortWithDomainError(c, err)
		return auth.UserView{}, false
	}
	if !ok {
		abortNotLoggedIn(c)
		return auth.UserView{}, false
	}
	return user, true
}

func abortNotLoggedIn(c *gin.Context) {
	abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthenticated, "Not logged in", nil))
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
