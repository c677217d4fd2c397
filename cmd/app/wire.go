//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/aqi-advisor/internal/bootstrap"
	"github.com/yanqian/aqi-advisor/internal/domain/advisor"
	"github.com/yanqian/aqi-advisor/internal/domain/airquality"
	"github.com/yanqian/aqi-advisor/internal/domain/auth"
	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
	"github.com/yanqian/aqi-advisor/internal/infra/config"
	"github.com/yanqian/aqi-advisor/internal/infra/geocode/nominatim"
	"github.com/yanqian/aqi-advisor/internal/infra/waqi"
	httpiface "github.com/yanqian/aqi-advisor/internal/interface/http"
	"github.com/yanqian/aqi-advisor/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAuthConfig,
		provideAirQualityConfig,
		provideAdvisorConfig,
		provideLiveTrackConfig,
		provideWAQIClient,
		provideWeatherSource,
		provideGeocoder,
		provideChatGPTClient,
		provideAdvisorChat,
		provideLiveTrackChat,
		providePostgresPool,
		provideUserRepository,
		provideValkeyClient,
		provideAlertStore,
		provideNotifier,
		airquality.NewService,
		advisor.NewService,
		livetrack.NewService,
		auth.NewService,
		wire.Bind(new(airquality.Source), new(*waqi.Client)),
		wire.Bind(new(advisor.LocationVerifier), new(*nominatim.Client)),
		wire.Bind(new(livetrack.Geocoder), new(*nominatim.Client)),
		wire.Bind(new(livetrack.Publisher), new(*httpiface.AlertFeed)),
		httpiface.NewAlertFeed,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
