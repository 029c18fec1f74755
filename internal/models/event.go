package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Source tags identify which upstream produced an event.
const (
	SourceEventbrite   = "eventbrite"
	SourceTicketmaster = "ticketmaster"
	SourceRealTime     = "realtime"
)

// Price represents an event ticket price range
type Price struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// Event is the provider-independent event record returned to clients
type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	Location    string `json:"location"`
	Venue       string `json:"venue,omitempty"`
	URL         string `json:"url,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Price       *Price `json:"price,omitempty"`
	Category    string `json:"category,omitempty"`
	Source      string `json:"source"`
}

// Coordinates is a point with an optional search radius
type Coordinates struct {
	Lat    float64  `json:"lat"`
	Lon    float64  `json:"lon"`
	Radius *float64 `json:"radius,omitempty"`
}

// LatLon formats the point as "lat,lon".
func (c Coordinates) LatLon() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// Location is either a free-text address or a set of coordinates.
// It encodes to JSON as a string or as an object respectively.
type Location struct {
	Text   string
	Coords *Coordinates
}

// TextLocation builds a free-text location.
func TextLocation(text string) Location {
	return Location{Text: text}
}

// PointLocation builds a coordinate location.
func PointLocation(lat, lon float64) Location {
	return Location{Coords: &Coordinates{Lat: lat, Lon: lon}}
}

// IsZero reports whether no location was supplied.
func (l Location) IsZero() bool {
	return l.Coords == nil && strings.TrimSpace(l.Text) == ""
}

// String renders the location the way upstream query parameters expect it.
func (l Location) String() string {
	if l.Coords != nil {
		return l.Coords.LatLon()
	}
	return l.Text
}

func (l Location) MarshalJSON() ([]byte, error) {
	if l.Coords != nil {
		return json.Marshal(l.Coords)
	}
	return json.Marshal(l.Text)
}

func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = Location{}
		return nil
	}
	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("invalid location string: %w", err)
		}
		*l = Location{Text: text}
		return nil
	case '{':
		var coords Coordinates
		if err := json.Unmarshal(data, &coords); err != nil {
			return fmt.Errorf("invalid location coordinates: %w", err)
		}
		*l = Location{Coords: &coords}
		return nil
	default:
		return fmt.Errorf("location must be a string or an object with lat and lon")
	}
}

// SearchRequest is the client query fanned out to every event provider
type SearchRequest struct {
	Query      string   `json:"query"`
	Location   Location `json:"location"`
	Date       string   `json:"date,omitempty"`
	Categories []string `json:"categories,omitempty"`
}
