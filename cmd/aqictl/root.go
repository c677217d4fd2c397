package main

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/aqi-advisor/internal/infra/aqiapi"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
	"github.com/yanqian/aqi-advisor/pkg/logger"
)

const (
	envAPIURL    = "AQI_API_URL"
	envToken     = "AQI_TOKEN"
	envTokenFile = "AQI_TOKEN_FILE"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	apiURL    string
	token     string
	tokenFile string
	timeout   time.Duration
	logLevel  string
	jsonOut   bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "aqictl",
		Short: "aqictl - air quality lookups, health advice and live tracking",
		Long: `aqictl talks to the AQI advisor backend. It looks up live air quality,
asks for health advice and follows a recorded route raising alerts when
the air quality around you changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.apiURL, "api-url", os.Getenv(envAPIURL), "backend base URL (env "+envAPIURL+")")
	flags.StringVar(&g.token, "token", os.Getenv(envToken), "bearer token (env "+envToken+", defaults to the saved login)")
	flags.StringVar(&g.tokenFile, "token-file", os.Getenv(envTokenFile), "where login saves the token (env "+envTokenFile+")")
	flags.DurationVar(&g.timeout, "timeout", aqiapi.DefaultTimeout, "per request timeout")
	flags.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.BoolVar(&g.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newCheckCmd(g),
		newSearchCmd(g),
		newAdviceCmd(g),
		newLoginCmd(g),
		newLogoutCmd(g),
		newWhoamiCmd(g),
		newTrackCmd(g),
		newAlertsCmd(g),
	)
	return root
}

func (g *globals) logger(cmd *cobra.Command) *slog.Logger {
	return logger.NewConsole(cmd.ErrOrStderr(), g.logLevel).With("service", "aqictl")
}

// client builds a backend client. The explicit token wins over the saved one.
func (g *globals) client() (*aqiapi.Client, error) {
	token := strings.TrimSpace(g.token)
	if token == "" {
		saved, err := loadToken(g.tokenPath())
		if err != nil {
			return nil, err
		}
		token = saved
	}
	return aqiapi.NewClient(g.apiURL, token, g.timeout)
}

func (g *globals) tokenPath() string {
	if p := strings.TrimSpace(g.tokenFile); p != "" {
		return p
	}
	return defaultTokenPath()
}

// userMessage prefers the user facing message of domain errors.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
