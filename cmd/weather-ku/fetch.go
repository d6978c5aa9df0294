package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-ku/internal/store"
	"github.com/i474232898/weather-ku/internal/weather"
	"github.com/i474232898/weather-ku/internal/weather/providers"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		lat, lon float64
		days     int
		out      string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Import a daily forecast from Open-Meteo into a new observation file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("lat") {
				lat = a.cfg.FetchLatitude
			}
			if !cmd.Flags().Changed("lon") {
				lon = a.cfg.FetchLongitude
			}
			if !cmd.Flags().Changed("days") {
				days = a.cfg.FetchDays
			}
			return a.fetch(cmd.Context(), cmd.OutOrStdout(), weather.Location{Latitude: lat, Longitude: lon}, days, out)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude (overrides FETCH_LATITUDE)")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude (overrides FETCH_LONGITUDE)")
	cmd.Flags().IntVar(&days, "days", 7, "forecast days, 1 to 16 (overrides FETCH_DAYS)")
	cmd.Flags().StringVar(&out, "out", "", "file to write; standard output when empty")
	return cmd
}

func (a *app) fetch(ctx context.Context, stdout io.Writer, loc weather.Location, days int, out string) error {
	backoff := providers.DefaultBackoff
	backoff.MaxRetries = a.cfg.OpenMeteoMaxRetries
	provider := providers.NewOpenMeteoProvider(&http.Client{Timeout: a.cfg.HTTPTimeout}, a.cfg.OpenMeteoURL, backoff)

	records, err := provider.FetchDaily(ctx, loc, days)
	if err != nil {
		return err
	}
	table, err := weather.NewTable(records)
	if err != nil {
		return fmt.Errorf("openmeteo returned an unusable forecast: %w", err)
	}
	a.logger.Info("forecast fetched", "provider", provider.Name(), "location", loc.Key(), "records", table.Len())

	if out == "" {
		_, err := io.WriteString(stdout, table.Text())
		return err
	}
	return store.NewFileStore(out).Save(ctx, table.Text())
}
