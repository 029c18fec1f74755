package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/models"
)

const realTimeHost = "real-time-events-search.p.rapidapi.com"

// RealTime searches the Real-Time Events Search API on RapidAPI
type RealTime struct {
	base
}

func NewRealTime(cfg config.Provider, deps Deps) *RealTime {
	return &RealTime{base: newBase(config.RealTime, cfg, deps)}
}

type realTimeEvent struct {
	ID              flexString `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	StartTime       string     `json:"start_time"`
	Date            string     `json:"date"`
	EndTime         string     `json:"end_time"`
	TicketURL       string     `json:"ticket_url"`
	RegistrationURL string     `json:"registration_url"`
	ImageURL        string     `json:"image_url"`
	CoverImage      string     `json:"cover_image"`
	Category        string     `json:"category"`
	Type            string     `json:"type"`
	Venue           *struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"venue"`
	Price *struct {
		Min      flexFloat `json:"min"`
		Max      flexFloat `json:"max"`
		Currency string    `json:"currency"`
	} `json:"price"`
}

type realTimeResponse struct {
	Events json.RawMessage `json:"events"`
}

func (r *RealTime) SearchEvents(ctx context.Context, req models.SearchRequest) ([]models.Event, error) {
	if !r.available {
		r.skip(ctx, OpSearchEvents)
		return []models.Event{}, nil
	}

	events, err := call(ctx, &r.base, OpSearchEvents, req, func(ctx context.Context) ([]models.Event, error) {
		var resp realTimeResponse
		headers := map[string]string{
			"X-RapidAPI-Key":  r.cfg.APIKey,
			"X-RapidAPI-Host": realTimeHost,
		}
		if err := r.getJSON(ctx, "/events", r.query(req), headers, &resp); err != nil {
			return nil, err
		}
		var raw []json.RawMessage
		if err := json.Unmarshal(resp.Events, &raw); err != nil {
			r.logger.Warn("response has no events array", zap.Error(err))
			return []models.Event{}, nil
		}
		return r.transform(raw), nil
	})
	if err != nil {
		return []models.Event{}, err
	}
	r.deps.Metrics.RecordEvents(ctx, r.name, len(events))
	return events, nil
}

func (r *RealTime) query(req models.SearchRequest) url.Values {
	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("location", req.Location.String())
	radius := defaultSearchRadius
	if c := req.Location.Coords; c != nil {
		q.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))
		if c.Radius != nil {
			radius = *c.Radius
		}
	}
	q.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))
	if req.Date != "" {
		q.Set("date_range", req.Date)
	} else {
		q.Set("date_range", "upcoming")
	}
	q.Set("sort", "relevance")
	q.Set("limit", "20")
	if len(req.Categories) > 0 {
		q.Set("category", strings.Join(req.Categories, ","))
	}
	return q
}

func (r *RealTime) transform(raw []json.RawMessage) []models.Event {
	records := decodeRecords[realTimeEvent](raw, r.logger)
	events := make([]models.Event, 0, len(records))
	for _, rec := range records {
		start := firstNonEmpty(rec.StartTime, rec.Date)
		if rec.ID == "" || rec.Title == "" || start == "" {
			r.logger.Debug("skipping invalid event", zap.String("id", string(rec.ID)))
			continue
		}
		ev := models.Event{
			ID:          string(rec.ID),
			Name:        rec.Title,
			Description: rec.Description,
			Start:       start,
			End:         rec.EndTime,
			URL:         firstNonEmpty(rec.TicketURL, rec.RegistrationURL),
			ImageURL:    firstNonEmpty(rec.ImageURL, rec.CoverImage),
			Category:    firstNonEmpty(rec.Category, rec.Type),
			Source:      models.SourceRealTime,
		}
		if rec.Venue != nil {
			ev.Venue = rec.Venue.Name
			ev.Location = rec.Venue.Address
		}
		if rec.Price != nil {
			currency := rec.Price.Currency
			if currency == "" {
				currency = "USD"
			}
			ev.Price = &models.Price{
				Min:      rec.Price.Min.ptr(),
				Max:      rec.Price.Max.ptr(),
				Currency: currency,
			}
		}
		events = append(events, ev)
	}
	return events
}
