package gpx

import (
	"fmt"
	"time"

	"github.com/planbiir/daytrips/internal/trip"
)

// FromTrips builds a GPX document with one track per trip. Trips without
// locations still get a track so the file lists the whole day.
func FromTrips(name string, day time.Time, trips []trip.Trip) *GPX {
	g := &GPX{
		Metadata: Metadata{Name: name, Time: day.UTC()},
		Tracks:   make([]Track, 0, len(trips)),
	}
	g.setDefaults()

	for _, t := range trips {
		seg := TrackSegment{Points: make([]Point, 0, len(t.Locations))}
		for _, l := range t.Locations {
			seg.Points = append(seg.Points, Point{
				Lat:       l.Lat,
				Lon:       l.Lon,
				Elevation: l.Alt,
				Time:      time.UnixMilli(l.TimeMillis).UTC(),
				Accuracy:  l.Accuracy,
			})
		}

		g.Tracks = append(g.Tracks, Track{
			Name: t.ID.String(),
			Type: t.Type.String(),
			Description: fmt.Sprintf("%s-%s steps=%d distance=%.0fm radius=%.0fm reliable=%t",
				time.UnixMilli(t.StartMillis).UTC().Format("15:04:05"),
				time.UnixMilli(t.EndMillis).UTC().Format("15:04:05"),
				t.Steps, t.DistanceMeters, t.RadiusMeters, t.Reliable),
			Segments: []TrackSegment{seg},
		})
	}
	return g
}
