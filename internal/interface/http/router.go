package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-advisor/internal/domain/auth"
	"github.com/yanqian/aqi-advisor/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)

	requireAuth := authMiddleware(authSvc)
	optionalAuth := optionalAuthMiddleware(authSvc)

	api := router.Group("/api")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger))
	{
		aqi := api.Group("/aqi")
		aqi.GET("/city/:name", handler.CityFeed)
		aqi.GET("/geo", handler.GeoFeed)
		aqi.GET("/station/:uid", handler.StationFeed)
		aqi.GET("/search/:keyword", handler.SearchStations)
		aqi.POST("/ai-recommendation", handler.AIRecommendation)
		aqi.POST("/ai-personalized-advice", requireAuth, handler.PersonalizedAdvice)
		aqi.POST("/personalized-recommendation", optionalAuth, handler.PersonalizedRecommendation)

		api.GET("/user/check", optionalAuth, handler.UserCheck)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/refresh", handler.Refresh)
		authGroup.GET("/me", requireAuth, handler.Me)
		authGroup.PUT("/profile", requireAuth, handler.UpdateProfile)

		tracker := api.Group("/live-tracker", requireAuth)
		tracker.POST("/alert", handler.CreateAlert)
		tracker.GET("/alerts", handler.ListAlerts)
		tracker.POST("/alerts/clear", handler.ClearAlerts)
		tracker.GET("/feed", handler.AlertFeed)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
