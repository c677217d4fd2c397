package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanqian/aqi-advisor/internal/domain/advice"
	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	"github.com/yanqian/aqi-advisor/internal/infra/aqiapi"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

type adviceOptions struct {
	city     string
	station  string
	lat, lon float64
	aqiValue int
	personal bool
	profile  advice.Profile
}

func newAdviceCmd(g *globals) *cobra.Command {
	opts := &adviceOptions{aqiValue: -1}
	cmd := &cobra.Command{
		Use:   "advice",
		Short: "Get health advice for the current air quality",
		Long: `Get health advice for a city, station, coordinate or a raw AQI value.

Any profile flag (--age, --gender, --conditions, --time-outside, --question)
asks for personalized advice, which requires a login.`,
		Example: `  aqictl advice --city Singapore
  aqictl advice --city Delhi --age 67 --conditions asthma,copd
  aqictl advice --aqi 160`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			opts.personal = opts.personal ||
				flags.Changed("age") || flags.Changed("age-group") || flags.Changed("gender") ||
				flags.Changed("time-outside") || flags.Changed("conditions") || flags.Changed("question")
			return g.runAdvice(cmd, opts, flags.Changed("lat") || flags.Changed("lon"))
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.city, "city", "", "city to look up")
	f.StringVar(&opts.station, "station", "", "station uid to look up")
	f.Float64Var(&opts.lat, "lat", 0, "latitude to look up")
	f.Float64Var(&opts.lon, "lon", 0, "longitude to look up")
	f.IntVar(&opts.aqiValue, "aqi", -1, "use this AQI value instead of a lookup")
	f.BoolVar(&opts.personal, "personal", false, "ask for personalized advice using the saved profile")
	f.StringVar(&opts.profile.Location, "location", "", "location sent with personalized advice (defaults to the looked up city)")
	f.IntVar(&opts.profile.Age, "age", 0, "age in years")
	f.StringVar(&opts.profile.AgeGroup, "age-group", "", "age group when the exact age is not given")
	f.StringVar(&opts.profile.Gender, "gender", "", "gender")
	f.StringVar(&opts.profile.TimeOutside, "time-outside", "", "planned time outside, e.g. 1-2h")
	f.StringSliceVar(&opts.profile.Conditions, "conditions", nil, "comma separated health conditions")
	f.StringVar(&opts.profile.Question, "question", "", "a short question for the advisor")
	return cmd
}

func (g *globals) runAdvice(cmd *cobra.Command, opts *adviceOptions, useGeo bool) error {
	client, err := g.client()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	reading, err := lookupReading(ctx, client, opts, useGeo)
	if err != nil {
		return err
	}

	var profile *advice.Profile
	if opts.personal {
		p := opts.profile
		if p.Location == "" {
			p.Location = reading.CityName
		}
		p, err = sessionProfile(ctx, client, p)
		if err != nil {
			return err
		}
		profile = &p
	}

	result, err := advice.NewRecommender(client, g.logger(cmd)).Recommend(ctx, reading, profile)
	if err != nil {
		return err
	}
	if g.jsonOut {
		return printJSON(cmd.OutOrStdout(), result)
	}
	out := cmd.OutOrStdout()
	if reading.CityName != "" {
		fmt.Fprintf(out, "%s, AQI %d (%s)\n\n", reading.CityName, reading.AQI, aqi.Classify(reading.AQI).Label)
	} else {
		fmt.Fprintf(out, "AQI %d (%s)\n\n", reading.AQI, aqi.Classify(reading.AQI).Label)
	}
	fmt.Fprint(out, result.Document.PlainText())
	if result.Source == advice.SourceFallback {
		fmt.Fprintln(out, "\n(general guidance, the advisor is unavailable right now)")
	}
	return nil
}

func lookupReading(ctx context.Context, client *aqiapi.Client, opts *adviceOptions, useGeo bool) (aqi.Reading, error) {
	switch {
	case opts.aqiValue >= 0:
		return aqi.Reading{AQI: opts.aqiValue, Category: aqi.Classify(opts.aqiValue).Category, CityName: opts.city}, nil
	case opts.station != "":
		return client.FetchByStation(ctx, opts.station)
	case useGeo:
		return client.FetchByCoordinates(ctx, opts.lat, opts.lon)
	case opts.city != "":
		return client.FetchByCityName(ctx, opts.city)
	default:
		return aqi.Reading{}, apperrors.Wrap(apperrors.CodeInvalidInput, "pass --city, --station, --lat/--lon or --aqi", nil)
	}
}

// sessionProfile fills the blank profile fields from the logged in user.
func sessionProfile(ctx context.Context, client *aqiapi.Client, p advice.Profile) (advice.Profile, error) {
	info, err := client.CheckSession(ctx)
	if err != nil {
		return p, err
	}
	if !info.LoggedIn {
		return p, apperrors.Wrap(apperrors.CodeUnauthenticated, "Please log in to get personalized advice", nil)
	}
	if p.Location == "" {
		p.Location = info.City
	}
	if p.Age == 0 && p.AgeGroup == "" {
		p.Age = info.Age
	}
	if p.Gender == "" {
		p.Gender = info.Gender
	}
	if len(p.Conditions) == 0 {
		p.Conditions = info.HealthConditions
	}
	return p, nil
}
