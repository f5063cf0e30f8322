package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/planbiir/daytrips/internal/chart"
	"github.com/planbiir/daytrips/internal/config"
	"github.com/planbiir/daytrips/internal/engine"
	"github.com/planbiir/daytrips/internal/store"
	"github.com/planbiir/daytrips/internal/trip"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbFlag := flag.String("db", cfg.Database, "SQLite sample database")
	dayFlag := flag.String("day", "", "Day to dump as YYYY-MM-DD")
	rawFlag := flag.Bool("raw", false, "Also print the chart before normalization")
	flag.Parse()

	if *dayFlag == "" {
		log.Fatalf("usage: %s -db samples.sqlite -day YYYY-MM-DD", os.Args[0])
	}
	day, err := time.ParseInLocation(time.DateOnly, *dayFlag, time.Local)
	if err != nil {
		log.Fatalf("parse day: %v", err)
	}
	start, end := engine.Day(day)

	db, err := store.Open(*dbFlag)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	var in chart.Input
	if in.Steps, err = db.Steps(ctx, start, end); err != nil {
		log.Fatalf("read steps: %v", err)
	}
	if in.Locations, err = db.Locations(ctx, start, end); err != nil {
		log.Fatalf("read locations: %v", err)
	}
	if in.Activities, err = db.Activities(ctx, start, end); err != nil {
		log.Fatalf("read activities: %v", err)
	}

	fmt.Printf("Day: %s\n", start.Format(time.DateOnly))
	fmt.Printf("Samples: steps=%d locations=%d activities=%d\n", len(in.Steps), len(in.Locations), len(in.Activities))

	elems := chart.Build(in, start.UnixMilli(), end.UnixMilli(), time.Now().UnixMilli())
	if *rawFlag {
		fmt.Printf("\nRaw chart (%d elements):\n", len(elems))
		printChart(elems, nil)
	}

	logger := config.NewLogger(os.Stderr, "debug", false)
	elems = chart.NewNormalizer(cfg.Tunables, logger).Normalize(elems)

	segmented := trip.Segment(elems)
	fmt.Printf("\nNormalized chart (%d elements, %d segments):\n", len(elems), len(segmented))
	printChart(elems, segmented)

	tl := trip.NewTimeline(elems, start.UnixMilli(), cfg.Tunables)
	trip.NewClassifier(cfg.Tunables, cfg.DayFlags, logger).Correct(tl)

	fmt.Printf("\nFinal trips:\n")
	for i, t := range tl.Trips {
		fmt.Printf("  #%d %s [%d..%d] %s – %s (%v)\n", i+1, t.Type, t.Start, t.End,
			time.UnixMilli(t.StartMillis).Format("15:04:05"),
			time.UnixMilli(t.EndMillis).Format("15:04:05"),
			t.Duration().Round(time.Second))
		fmt.Printf("     steps=%d cadence=%.1f distance=%.0fm radius=%.0fm reliable=%t fixes=%d\n",
			t.Steps, t.Cadence(), t.DistanceMeters, t.RadiusMeters, t.Reliable, len(t.Locations))
	}
}

// printChart prints one line per element and marks where segments start.
func printChart(elems []chart.Element, trips []trip.Trip) {
	starts := make(map[int]trip.Trip, len(trips))
	for _, t := range trips {
		starts[t.Start] = t
	}
	for i, e := range elems {
		if t, ok := starts[i]; ok {
			fmt.Printf("  ── %s from #%d\n", t.Type, i)
		}
		fmt.Printf("  %4d %s\n", i, e)
	}
}
