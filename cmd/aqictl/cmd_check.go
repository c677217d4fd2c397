package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
)

func newCheckCmd(g *globals) *cobra.Command {
	check := &cobra.Command{
		Use:   "check",
		Short: "Show the current air quality",
	}
	check.AddCommand(
		&cobra.Command{
			Use:   "city <name>",
			Short: "Air quality for a city",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := g.client()
				if err != nil {
					return err
				}
				reading, err := client.FetchByCityName(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return g.showReading(cmd, reading)
			},
		},
		&cobra.Command{
			Use:   "geo <lat> <lon>",
			Short: "Air quality at a coordinate",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				lat, lon, err := parseCoordinates(args[0], args[1])
				if err != nil {
					return err
				}
				client, err := g.client()
				if err != nil {
					return err
				}
				reading, err := client.FetchByCoordinates(cmd.Context(), lat, lon)
				if err != nil {
					return err
				}
				return g.showReading(cmd, reading)
			},
		},
		&cobra.Command{
			Use:   "station <uid>",
			Short: "Air quality reported by one station",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := g.client()
				if err != nil {
					return err
				}
				reading, err := client.FetchByStation(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return g.showReading(cmd, reading)
			},
		},
	)
	return check
}

func newSearchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find monitoring stations by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.client()
			if err != nil {
				return err
			}
			stations, err := client.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(cmd.OutOrStdout(), stations)
			}
			if len(stations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stations found")
				return nil
			}
			printStations(cmd.OutOrStdout(), stations)
			return nil
		},
	}
}

func (g *globals) showReading(cmd *cobra.Command, reading aqi.Reading) error {
	if g.jsonOut {
		return printJSON(cmd.OutOrStdout(), reading)
	}
	printReading(cmd.OutOrStdout(), reading)
	return nil
}

func parseCoordinates(latArg, lonArg string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", latArg)
	}
	lon, err := strconv.ParseFloat(lonArg, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", lonArg)
	}
	return lat, lon, nil
}
