package importer

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// ParsedRace is a race record extracted from an uploaded file, not yet
// bound to an athlete.
type ParsedRace struct {
	Name       string
	Sport      string
	Date       time.Time
	DistanceM  float64
	FinishTime *time.Duration
}

type gpxFile struct {
	XMLName  xml.Name    `xml:"gpx"`
	Metadata gpxMetadata `xml:"metadata"`
	Tracks   []gpxTrack  `xml:"trk"`
}

type gpxMetadata struct {
	Name string    `xml:"name"`
	Time time.Time `xml:"time"`
}

type gpxTrack struct {
	Name     string       `xml:"name"`
	Type     string       `xml:"type"`
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64   `xml:"lat,attr"`
	Lon  float64   `xml:"lon,attr"`
	Time time.Time `xml:"time"`
}

// ParseGPX extracts one race from a GPX track: name from track or metadata,
// distance summed over track points, finish time and date from the point
// timestamps when present.
func ParseGPX(r io.Reader) (*ParsedRace, error) {
	var file gpxFile
	if err := xml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: invalid GPX document: %v", ErrInvalidFile, err)
	}
	if len(file.Tracks) == 0 {
		return nil, fmt.Errorf("%w: GPX document contains no track", ErrInvalidFile)
	}

	track := file.Tracks[0]

	var points []gpxPoint
	for _, seg := range track.Segments {
		points = append(points, seg.Points...)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: GPX track has fewer than two points", ErrInvalidFile)
	}

	distance := 0.0
	for i := 1; i < len(points); i++ {
		distance += haversineMeters(points[i-1], points[i])
	}

	race := &ParsedRace{
		Name:      firstNonEmpty(track.Name, file.Metadata.Name, "Imported race"),
		Sport:     normalizeSport(track.Type),
		DistanceM: math.Round(distance),
	}

	first, last := points[0].Time, points[len(points)-1].Time
	switch {
	case !first.IsZero():
		race.Date = first
	case !file.Metadata.Time.IsZero():
		race.Date = file.Metadata.Time
	default:
		return nil, fmt.Errorf("%w: GPX track has no timestamps", ErrInvalidFile)
	}

	if !first.IsZero() && last.After(first) {
		elapsed := last.Sub(first)
		race.FinishTime = &elapsed
	}

	return race, nil
}

const earthRadiusM = 6371000.0

func haversineMeters(a, b gpxPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func normalizeSport(raw string) string {
	sport := strings.ToLower(strings.TrimSpace(raw))
	if sport == "" {
		return "running"
	}
	return sport
}
