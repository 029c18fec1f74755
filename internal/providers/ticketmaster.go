package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/models"
)

const (
	ticketmasterPageSize      = "20"
	defaultSearchRadius       = 50.0
	ticketmasterWideImageMinW = 1000
)

// Ticketmaster searches the Ticketmaster Discovery v2 API
type Ticketmaster struct {
	base
}

func NewTicketmaster(cfg config.Provider, deps Deps) *Ticketmaster {
	return &Ticketmaster{base: newBase(config.Ticketmaster, cfg, deps)}
}

type ticketmasterDate struct {
	DateTime  string `json:"dateTime"`
	LocalDate string `json:"localDate"`
}

type ticketmasterVenue struct {
	Name       string `json:"name"`
	PostalCode string `json:"postalCode"`
	Address    *struct {
		Line1 string `json:"line1"`
	} `json:"address"`
	City *struct {
		Name string `json:"name"`
	} `json:"city"`
	State *struct {
		StateCode string `json:"stateCode"`
	} `json:"state"`
}

type ticketmasterEvent struct {
	ID          flexString `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Info        string     `json:"info"`
	URL         string     `json:"url"`
	Dates       struct {
		Start *ticketmasterDate `json:"start"`
		End   *ticketmasterDate `json:"end"`
	} `json:"dates"`
	Images []struct {
		URL   string `json:"url"`
		Ratio string `json:"ratio"`
		Width int    `json:"width"`
	} `json:"images"`
	PriceRanges []struct {
		Min      *float64 `json:"min"`
		Max      *float64 `json:"max"`
		Currency string   `json:"currency"`
	} `json:"priceRanges"`
	Classifications []struct {
		Segment *struct {
			Name string `json:"name"`
		} `json:"segment"`
	} `json:"classifications"`
	Embedded *struct {
		Venues []ticketmasterVenue `json:"venues"`
	} `json:"_embedded"`
}

type ticketmasterResponse struct {
	Embedded *struct {
		Events []json.RawMessage `json:"events"`
	} `json:"_embedded"`
}

func (t *Ticketmaster) SearchEvents(ctx context.Context, req models.SearchRequest) ([]models.Event, error) {
	if !t.available {
		t.skip(ctx, OpSearchEvents)
		return []models.Event{}, nil
	}

	events, err := call(ctx, &t.base, OpSearchEvents, req, func(ctx context.Context) ([]models.Event, error) {
		var resp ticketmasterResponse
		if err := t.getJSON(ctx, "/events.json", t.query(req), nil, &resp); err != nil {
			return nil, err
		}
		if resp.Embedded == nil {
			return []models.Event{}, nil
		}
		return t.transform(resp.Embedded.Events), nil
	})
	if err != nil {
		return []models.Event{}, err
	}
	t.deps.Metrics.RecordEvents(ctx, t.name, len(events))
	return events, nil
}

func (t *Ticketmaster) query(req models.SearchRequest) url.Values {
	q := url.Values{}
	q.Set("apikey", t.cfg.APIKey)
	q.Set("keyword", req.Query)
	if c := req.Location.Coords; c != nil {
		q.Set("latlong", c.LatLon())
		radius := defaultSearchRadius
		if c.Radius != nil {
			radius = *c.Radius
		}
		q.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))
		q.Set("unit", "miles")
	} else {
		q.Set("city", req.Location.Text)
	}
	if req.Date != "" {
		q.Set("startDateTime", ticketmasterDateTime(req.Date))
	}
	if len(req.Categories) > 0 {
		q.Set("classificationName", strings.Join(req.Categories, ","))
	}
	q.Set("sort", "date,asc")
	q.Set("size", ticketmasterPageSize)
	return q
}

// ticketmasterDateTime expands a bare date to the timestamp format the API requires.
func ticketmasterDateTime(date string) string {
	if d, err := time.Parse("2006-01-02", date); err == nil {
		return d.Format("2006-01-02T15:04:05Z")
	}
	return date
}

func (t *Ticketmaster) transform(raw []json.RawMessage) []models.Event {
	records := decodeRecords[ticketmasterEvent](raw, t.logger)
	events := make([]models.Event, 0, len(records))
	for _, r := range records {
		var start string
		if r.Dates.Start != nil {
			start = firstNonEmpty(r.Dates.Start.DateTime, r.Dates.Start.LocalDate)
		}
		if r.Name == "" || start == "" {
			continue
		}
		ev := models.Event{
			ID:          string(r.ID),
			Name:        r.Name,
			Description: firstNonEmpty(r.Description, r.Info),
			Start:       start,
			URL:         r.URL,
			ImageURL:    t.pickImage(r),
			Source:      models.SourceTicketmaster,
		}
		if r.Dates.End != nil {
			ev.End = firstNonEmpty(r.Dates.End.DateTime, r.Dates.End.LocalDate)
		}
		if r.Embedded != nil && len(r.Embedded.Venues) > 0 {
			v := r.Embedded.Venues[0]
			ev.Venue = v.Name
			ev.Location = venueAddress(v)
		}
		if len(r.PriceRanges) > 0 {
			p := r.PriceRanges[0]
			ev.Price = &models.Price{Min: p.Min, Max: p.Max, Currency: p.Currency}
		}
		if len(r.Classifications) > 0 && r.Classifications[0].Segment != nil {
			ev.Category = r.Classifications[0].Segment.Name
		}
		events = append(events, ev)
	}
	return events
}

// pickImage prefers a wide 16:9 image and falls back to the first one.
func (t *Ticketmaster) pickImage(r ticketmasterEvent) string {
	for _, img := range r.Images {
		if img.Ratio == "16_9" && img.Width > ticketmasterWideImageMinW {
			return img.URL
		}
	}
	if len(r.Images) > 0 {
		return r.Images[0].URL
	}
	return ""
}

func venueAddress(v ticketmasterVenue) string {
	var parts []string
	if v.Address != nil && v.Address.Line1 != "" {
		parts = append(parts, v.Address.Line1)
	}
	if v.City != nil && v.City.Name != "" {
		parts = append(parts, v.City.Name)
	}
	if v.State != nil && v.State.StateCode != "" {
		parts = append(parts, v.State.StateCode)
	}
	if v.PostalCode != "" {
		parts = append(parts, v.PostalCode)
	}
	return strings.Join(parts, ", ")
}
