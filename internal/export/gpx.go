package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/pawtrack/walks-backend-go/internal/models"
)

// gpxPoint is one <trkpt> element.
type gpxPoint struct {
	Lat  float64   `xml:"lat,attr"`
	Lon  float64   `xml:"lon,attr"`
	Time time.Time `xml:"time"`
}

// gpxSegment is one <trkseg> element.
type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

// gpxTrack is one <trk> element.
type gpxTrack struct {
	Name     string       `xml:"name,omitempty"`
	Segments []gpxSegment `xml:"trkseg"`
}

// gpxDoc is the full GPX document.
type gpxDoc struct {
	XMLName xml.Name   `xml:"gpx"`
	Version string     `xml:"version,attr"`
	Creator string     `xml:"creator,attr"`
	XMLNS   string     `xml:"xmlns,attr"`
	Tracks  []gpxTrack `xml:"trk"`
}

// WriteGPX renders a walk's ordered track points as a GPX 1.1 document.
func WriteGPX(w io.Writer, walk *models.Walk, points []models.TrackPoint) error {
	seg := gpxSegment{Points: make([]gpxPoint, len(points))}
	for i, p := range points {
		seg.Points[i] = gpxPoint{Lat: p.Lat, Lon: p.Lon, Time: p.TS.UTC()}
	}

	doc := gpxDoc{
		Version: "1.1",
		Creator: "walks-backend-go",
		XMLNS:   "http://www.topografix.com/GPX/1/1",
		Tracks: []gpxTrack{{
			Name:     fmt.Sprintf("Walk %s", walk.StartedAt.Format("2006-01-02 15:04")),
			Segments: []gpxSegment{seg},
		}},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write GPX header: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode GPX: %w", err)
	}
	return enc.Close()
}
