package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/aqi-advisor/internal/domain/geo"
	"github.com/yanqian/aqi-advisor/internal/domain/tracker"
	"github.com/yanqian/aqi-advisor/internal/infra/position"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

type trackOptions struct {
	positions string
	interval  time.Duration
	loop      bool
	lat, lon  float64
	history   bool
}

func newTrackCmd(g *globals) *cobra.Command {
	opts := &trackOptions{}
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Follow a route and raise air quality alerts",
		Long: `Start live tracking. Positions come from a JSON lines file with one
{"lat":..,"lon":..} fix per line, or from a single --lat/--lon fix.
Tracking runs until interrupted or the position source fails.`,
		Example: `  aqictl track --positions commute.jsonl --interval 30s
  aqictl track --lat 1.3521 --lon 103.8198`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var source tracker.PositionSource
			switch {
			case opts.positions != "":
				replayOpts := []position.ReplayOption{}
				if opts.loop {
					replayOpts = append(replayOpts, position.WithLoop())
				}
				source = position.NewReplay(opts.positions, opts.interval, replayOpts...)
			case cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon"):
				source = position.Static{Position: geo.Position{Latitude: opts.lat, Longitude: opts.lon}}
			default:
				return apperrors.Wrap(apperrors.CodeInvalidInput, "pass --positions or --lat/--lon", nil)
			}
			return g.runTrack(cmd, opts, source)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.positions, "positions", "", "JSON lines file of position fixes")
	f.DurationVar(&opts.interval, "interval", 5*time.Second, "delay between replayed fixes")
	f.BoolVar(&opts.loop, "loop", false, "restart the positions file after the last fix")
	f.Float64Var(&opts.lat, "lat", 0, "fixed latitude")
	f.Float64Var(&opts.lon, "lon", 0, "fixed longitude")
	f.BoolVar(&opts.history, "history", false, "print the saved alert history before starting")
	return cmd
}

func (g *globals) runTrack(cmd *cobra.Command, opts *trackOptions, source tracker.PositionSource) error {
	client, err := g.client()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	obs := newConsoleObserver(out)
	engine := tracker.NewEngine(client, source, client, client, g.logger(cmd), tracker.WithObserver(obs))

	ctx := cmd.Context()
	if opts.history {
		if err := engine.SyncHistory(ctx); err != nil {
			return err
		}
		history := engine.History()
		fmt.Fprintf(out, "%d saved alerts\n", len(history))
		for _, a := range history {
			printAlert(out, a)
		}
	}

	if err := engine.Start(ctx); err != nil {
		return trackingError(err)
	}
	fmt.Fprintln(out, "Live tracking started, press Ctrl+C to stop")

	var failure error
	select {
	case <-ctx.Done():
	case failure = <-obs.failed:
	}
	engine.Stop()
	fmt.Fprintf(out, "Live tracking stopped after %d alerts\n", obs.count())
	if failure != nil {
		return trackingError(failure)
	}
	return nil
}

// trackingError turns geolocation failures into their user facing text.
func trackingError(err error) error {
	if strings.HasPrefix(apperrors.CodeOf(err), "geolocation_") {
		return errors.New(tracker.LocationErrorMessage(err))
	}
	return err
}

// consoleObserver prints engine events as they happen.
type consoleObserver struct {
	mu     sync.Mutex
	out    io.Writer
	alerts int
	failed chan error
}

func newConsoleObserver(out io.Writer) *consoleObserver {
	return &consoleObserver{out: out, failed: make(chan error, 1)}
}

func (o *consoleObserver) StateChanged(tracker.State) {}

func (o *consoleObserver) AlertRaised(alert tracker.Alert) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.alerts++
	printAlert(o.out, alert)
}

func (o *consoleObserver) LoginRequired() {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.out, "Live tracking needs a login, run `aqictl login` first")
}

func (o *consoleObserver) AlertFailed(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.out, "Alert could not be sent: %s\n", apperrors.MessageOf(err))
}

func (o *consoleObserver) TrackingError(err error) {
	select {
	case o.failed <- err:
	default:
	}
}

func (o *consoleObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.alerts
}
