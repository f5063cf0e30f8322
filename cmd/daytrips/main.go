package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/planbiir/daytrips/internal/config"
	"github.com/planbiir/daytrips/internal/engine"
	"github.com/planbiir/daytrips/internal/gpx"
	"github.com/planbiir/daytrips/internal/sample"
	"github.com/planbiir/daytrips/internal/store"
	"github.com/planbiir/daytrips/internal/summary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	var (
		dbPath     = flag.String("db", cfg.Database, "SQLite sample database")
		dayFlag    = flag.String("day", "", "Day to compute as YYYY-MM-DD (default: today)")
		numDays    = flag.Int("days", 1, "Number of consecutive days to compute, ending at -day")
		importFile = flag.String("import-gpx", "", "Import GPX track points as location samples before computing")
		outputFile = flag.String("o", "", "Write the finalized trips of the last computed day as GPX")
		statsJSON  = flag.Bool("stats-json", false, "Output results as JSON")
		stayPoints = flag.Bool("stay-points", cfg.StayPoints, "Collapse stationary clusters into stay points")
		simplify   = flag.Bool("simplify", cfg.TripSimplification, "Simplify trip traces with SED")
		logLevel   = flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
		version    = flag.Bool("version", false, "Show version information")
	)

	flag.Usage = func() {
		fmt.Printf("daytrips - Reconcile a day of phone sensor samples into trips\n\n")
		fmt.Printf("usage: daytrips -db samples.sqlite -day 2025-03-01\n\n")
		fmt.Printf("examples:\n")
		fmt.Printf("  daytrips -day 2025-03-01\n")
		fmt.Printf("  daytrips -day 2025-03-07 -days 7 -stats-json\n")
		fmt.Printf("  daytrips -import-gpx ride.gpx -day 2025-03-01 -o trips.gpx\n\n")
		fmt.Printf("environment:\n")
		fmt.Printf("  DAYTRIPS_* variables override tunables, e.g. DAYTRIPS_SHORT_ACTIVITY=90s\n\n")
		fmt.Printf("options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Println("daytrips v0.3.0 - day trip reconciliation")
		os.Exit(0)
	}

	cfg.StayPoints = *stayPoints
	cfg.TripSimplification = *simplify
	logger := config.NewLogger(os.Stderr, *logLevel, cfg.LogJSON)

	last := time.Now()
	if *dayFlag != "" {
		last, err = time.ParseInLocation(time.DateOnly, *dayFlag, time.Local)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -day: %v\n", err)
			os.Exit(2)
		}
	}
	if *numDays < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if *importFile != "" {
		fmt.Printf("📖 Reading GPX file: %s\n", *importFile)
		gpxData, err := gpx.Parse(*importFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading GPX file: %v\n", err)
			os.Exit(1)
		}
		locs := gpxData.Locations()
		if err := db.InsertLocations(ctx, locs); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing locations: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("📥 Imported %d location samples\n", len(locs))
	}

	days := make([]time.Time, *numDays)
	for i := range days {
		days[i] = last.AddDate(0, 0, i-*numDays+1)
	}

	eng := engine.New(db, cfg, engine.WithLogger(logger))
	results, err := eng.ComputeDays(ctx, days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing days: %v\n", err)
		os.Exit(1)
	}

	if *statsJSON {
		jsonData, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling results: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	} else {
		for _, r := range results {
			printDay(r)
		}
	}

	if *outputFile != "" {
		r := results[len(results)-1]
		name := r.Start.Format(time.DateOnly)
		fmt.Printf("💾 Writing trips: %s\n", *outputFile)
		if err := gpx.FromTrips(name, r.Start, r.Trips).Write(*outputFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing GPX file: %v\n", err)
			os.Exit(1)
		}
	}
}

func printDay(r engine.Result) {
	s := r.Summary
	fmt.Printf("\n📅 %s\n", r.Start.Format("Mon 2006-01-02"))
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	for _, t := range r.Trips {
		mark := " "
		if t.Reliable {
			mark = "✓"
		}
		fmt.Printf("%s %s–%s %-11s %6d steps %8.2f km\n", mark,
			time.UnixMilli(t.StartMillis).In(r.Start.Location()).Format("15:04"),
			time.UnixMilli(t.EndMillis).In(r.Start.Location()).Format("15:04"),
			t.Type, t.Steps, summary.RoundKm(t.DistanceMeters/1000))
	}
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("👣 Steps: %d\n", s.StepsTotal)

	classes := make([]sample.ActivityType, 0, len(s.PerActivity))
	for a := range s.PerActivity {
		classes = append(classes, a)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	for _, a := range classes {
		tot := s.PerActivity[a]
		fmt.Printf("   • %-11s %v, %.2f km\n", a,
			(time.Duration(tot.DurationMillis) * time.Millisecond).Round(time.Minute),
			summary.RoundKm(tot.DistanceKm))
	}
	fmt.Printf("🧭 Radius: %.0f m\n", s.RadiusMeters)
	if lo, ok := s.BatteryMin.Get(); ok {
		fmt.Printf("🔋 Battery: %d%% – %s%%\n", lo, s.BatteryMax)
	}
}
