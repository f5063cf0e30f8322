package gpx

import (
	"encoding/xml"
	"time"
)

// Point represents a GPX track point
type Point struct {
	Lat       float64   `xml:"lat,attr"`
	Lon       float64   `xml:"lon,attr"`
	Elevation float64   `xml:"ele,omitempty"`
	Time      time.Time `xml:"time,omitempty"`

	// Horizontal accuracy in meters, written as a daytrips extension
	Accuracy float64 `xml:"extensions>accuracy,omitempty"`
}

// Track represents a GPX track; daytrips writes one per trip
type Track struct {
	Name        string         `xml:"name,omitempty"`
	Description string         `xml:"desc,omitempty"`
	Type        string         `xml:"type,omitempty"`
	Segments    []TrackSegment `xml:"trkseg"`
}

// TrackSegment represents a track segment
type TrackSegment struct {
	Points []Point `xml:"trkpt"`
}

// GPX represents the full GPX file structure
type GPX struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`

	XMLNS    string `xml:"xmlns,attr,omitempty"`
	XMLNSXSI string `xml:"xmlns:xsi,attr,omitempty"`
	XSI      string `xml:"xsi:schemaLocation,attr,omitempty"`

	Metadata Metadata `xml:"metadata,omitempty"`
	Tracks   []Track  `xml:"trk"`
}

// Metadata represents GPX metadata
type Metadata struct {
	Name        string    `xml:"name,omitempty"`
	Description string    `xml:"desc,omitempty"`
	Time        time.Time `xml:"time,omitempty"`
}
