package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/api"
	"github.com/alexivanou/weatherquery-api/internal/app"
	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var rootCmd = &cobra.Command{
		Use:   "weatherq",
		Short: "Ask weather questions in plain language",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logger, err = zap.NewDevelopment()
				return err
			}
			logger = zap.NewNop()
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log pipeline activity to stderr")
	rootCmd.PersistentFlags().String("migrations", "migrations", "Migrations directory")

	var askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a weather question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
	askCmd.Flags().Float64("lat", 0, "Device latitude, used for \"here\" questions")
	askCmd.Flags().Float64("lon", 0, "Device longitude, used for \"here\" questions")
	askCmd.Flags().IntP("select", "s", -1, "Index of a location offered by a previous disambiguation")
	askCmd.Flags().String("intent-json", "", "Intent returned by a previous disambiguation")
	askCmd.Flags().StringP("units", "u", "imperial", "Units (imperial, metric)")
	askCmd.Flags().StringP("output", "o", "text", "Output format (text, json)")

	var locationsCmd = &cobra.Command{
		Use:   "locations",
		Short: "List resolved locations",
		RunE:  runLocations,
	}
	locationsCmd.Flags().IntP("limit", "n", 20, "Maximum number of locations")

	var tokenCmd = &cobra.Command{
		Use:   "token [subject]",
		Short: "Mint a bearer token for the HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")

	rootCmd.AddCommand(askCmd, locationsCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildStack(cmd *cobra.Command) (*app.Stack, error) {
	dir, _ := cmd.Flags().GetString("migrations")
	return app.Build(cmd.Context(), cfg, dir, logger)
}

func runAsk(cmd *cobra.Command, args []string) error {
	req, err := askRequest(cmd, strings.Join(args, " "))
	if err != nil {
		return err
	}

	stack, err := buildStack(cmd)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	result, err := stack.Service.Lookup(ctx, req)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "json" {
		var body any = result.Answer
		if result.Disambiguation != nil {
			body = result.Disambiguation
		}
		data, _ := json.MarshalIndent(body, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if result.Disambiguation != nil {
		printDisambiguation(result.Disambiguation)
		return nil
	}
	printAnswer(result.Answer)
	return nil
}

func askRequest(cmd *cobra.Command, query string) (model.LookupRequest, error) {
	req := model.LookupRequest{Query: query}

	units, _ := cmd.Flags().GetString("units")
	req.Units = model.Units(units)
	if req.Units != model.UnitsImperial && req.Units != model.UnitsMetric {
		return req, fmt.Errorf("unknown units %q", units)
	}

	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		req.CurrentLocation = &model.Coordinate{Lat: lat, Lon: lon}
	}

	if selected, _ := cmd.Flags().GetInt("select"); selected >= 0 {
		req.SelectedLocationIndex = &selected
	}

	if raw, _ := cmd.Flags().GetString("intent-json"); raw != "" {
		var intent model.Intent
		if err := json.Unmarshal([]byte(raw), &intent); err != nil {
			return req, fmt.Errorf("invalid --intent-json: %w", err)
		}
		req.Intent = &intent
	}

	if req.SelectedLocationIndex != nil && req.Intent == nil {
		return req, fmt.Errorf("--select requires --intent-json from the disambiguation prompt")
	}
	return req, nil
}

func printAnswer(resp *model.LookupResponse) {
	fmt.Println(resp.SummaryText)
	card := resp.Card

	switch {
	case card.Current != nil:
		fmt.Printf("  Feels like %d, humidity %d%%, wind %d\n",
			card.Current.FeelsLike, card.Current.Humidity, card.Current.WindSpeed)
	case card.Day != nil:
		fmt.Printf("  %s: high %d, low %d, %d%% chance of precipitation\n",
			card.Day.Date, card.Day.High, card.Day.Low, card.Day.PrecipChance)
	case card.Hourly != nil:
		for _, h := range card.Hourly.Hours {
			fmt.Printf("  %02d:00  %4d  %-24s %3d%%\n", h.Hour, h.Temperature, h.Condition, h.PrecipChance)
		}
	case card.Range != nil:
		for _, d := range card.Range.Days {
			fmt.Printf("  %s  %4d / %-4d %s\n", d.Date, d.High, d.Low, d.Condition)
		}
	}
}

func printDisambiguation(d *model.DisambiguationResponse) {
	if d.StateName != "" {
		fmt.Printf("%q covers the whole state of %s. Pick a city:\n", d.OriginalQuery, d.StateName)
	} else {
		fmt.Printf("%q matches more than one place:\n", d.OriginalQuery)
	}
	for _, loc := range d.Locations {
		fmt.Printf("  [%d] %s, %s\n", loc.Index, loc.Name, loc.Region)
	}

	intent, _ := json.Marshal(d.Intent)
	fmt.Printf("\nRerun with: weatherq ask %q --select N --intent-json '%s'\n", d.OriginalQuery, intent)
}

func runLocations(cmd *cobra.Command, args []string) error {
	stack, err := buildStack(cmd)
	if err != nil {
		return err
	}
	defer stack.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	locations, err := stack.Service.ListLocations(cmd.Context(), limit)
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("-", 60))
	for _, loc := range locations {
		tz := "-"
		if loc.Timezone != nil {
			tz = *loc.Timezone
		}
		fmt.Printf("%-24s %-16s %9.4f %10.4f  %s\n", loc.Name, loc.Region, loc.Lat, loc.Lon, tz)
	}
	fmt.Printf("%d location(s)\n", len(locations))
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	if !cfg.Auth.Enabled() {
		return fmt.Errorf("AUTH_JWT_SECRET is not set")
	}

	ttl, _ := cmd.Flags().GetDuration("ttl")
	token, err := api.NewTokenAuth(cfg.Auth).GenerateToken(args[0], ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
