package gpx

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/planbiir/daytrips/internal/sample"
)

// Parse reads and parses a GPX file
func Parse(filename string) (*GPX, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file)
}

// ParseReader parses GPX from an io.Reader
func ParseReader(r io.Reader) (*GPX, error) {
	var gpxData GPX
	if err := xml.NewDecoder(r).Decode(&gpxData); err != nil {
		return nil, fmt.Errorf("failed to parse GPX: %w", err)
	}
	gpxData.setDefaults()
	return &gpxData, nil
}

func (g *GPX) setDefaults() {
	if g.XMLNS == "" {
		g.XMLNS = "http://www.topografix.com/GPX/1/1"
	}
	if g.Version == "" {
		g.Version = "1.1"
	}
	if g.Creator == "" {
		g.Creator = "daytrips"
	}
}

// Write saves GPX data to a file
func (g *GPX) Write(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return g.WriteToWriter(file)
}

// WriteToWriter writes GPX data to an io.Writer
func (g *GPX) WriteToWriter(w io.Writer) error {
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")

	if err := encoder.Encode(g); err != nil {
		return fmt.Errorf("failed to encode GPX: %w", err)
	}
	return nil
}

// FlattenPoints returns all points from all tracks and segments in order
func (g *GPX) FlattenPoints() []Point {
	var points []Point
	for _, track := range g.Tracks {
		for _, segment := range track.Segments {
			points = append(points, segment.Points...)
		}
	}
	return points
}

// Locations converts every timestamped point into a location sample,
// ordered by time. Points without a timestamp cannot be placed on a
// chart and are skipped.
func (g *GPX) Locations() []sample.Location {
	points := g.FlattenPoints()
	locs := make([]sample.Location, 0, len(points))
	for _, p := range points {
		if p.Time.IsZero() {
			continue
		}
		locs = append(locs, sample.Location{
			TimeMillis: p.Time.UnixMilli(),
			Lat:        p.Lat,
			Lon:        p.Lon,
			Alt:        p.Elevation,
			Accuracy:   p.Accuracy,
		})
	}
	sort.SliceStable(locs, func(i, j int) bool {
		return locs[i].TimeMillis < locs[j].TimeMillis
	})
	return locs
}
