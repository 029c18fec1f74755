package providers

import (
	"context"
	"encoding/json"
	"net/url"

	"go.uber.org/zap"

	"github.com/bizmatters/dateai/orchestrator/internal/config"
	"github.com/bizmatters/dateai/orchestrator/internal/models"
)

// Eventbrite searches the Eventbrite v3 API
type Eventbrite struct {
	base
}

func NewEventbrite(cfg config.Provider, deps Deps) *Eventbrite {
	return &Eventbrite{base: newBase(config.Eventbrite, cfg, deps)}
}

type eventbriteText struct {
	Text string `json:"text"`
}

type eventbriteTime struct {
	UTC string `json:"utc"`
}

type eventbritePrice struct {
	Value    flexFloat `json:"value"`
	Currency string    `json:"currency"`
}

type eventbriteEvent struct {
	ID          flexString      `json:"id"`
	Name        *eventbriteText `json:"name"`
	Description *eventbriteText `json:"description"`
	Start       *eventbriteTime `json:"start"`
	End         *eventbriteTime `json:"end"`
	URL         string          `json:"url"`
	Venue       *struct {
		Name    string `json:"name"`
		Address *struct {
			LocalizedAddressDisplay string `json:"localized_address_display"`
		} `json:"address"`
	} `json:"venue"`
	Logo *struct {
		URL string `json:"url"`
	} `json:"logo"`
	Category *struct {
		Name string `json:"name"`
	} `json:"category"`
	TicketAvailability *struct {
		MinimumTicketPrice *eventbritePrice `json:"minimum_ticket_price"`
		MaximumTicketPrice *eventbritePrice `json:"maximum_ticket_price"`
	} `json:"ticket_availability"`
}

type eventbriteResponse struct {
	Events []json.RawMessage `json:"events"`
}

func (e *Eventbrite) SearchEvents(ctx context.Context, req models.SearchRequest) ([]models.Event, error) {
	if !e.available {
		e.skip(ctx, OpSearchEvents)
		return []models.Event{}, nil
	}

	events, err := call(ctx, &e.base, OpSearchEvents, req, func(ctx context.Context) ([]models.Event, error) {
		var resp eventbriteResponse
		headers := map[string]string{"Authorization": "Bearer " + e.cfg.APIKey}
		if err := e.getJSON(ctx, "/events/search", e.query(req), headers, &resp); err != nil {
			return nil, err
		}
		return e.transform(resp.Events), nil
	})
	if err != nil {
		return []models.Event{}, err
	}
	e.deps.Metrics.RecordEvents(ctx, e.name, len(events))
	return events, nil
}

func (e *Eventbrite) query(req models.SearchRequest) url.Values {
	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("location.address", req.Location.String())
	q.Set("location.within", "10km")
	q.Set("expand", "venue,ticket_availability,category")
	if len(req.Categories) > 0 {
		q.Set("categories", req.Categories[0])
	}
	if req.Date != "" {
		q.Set("start_date.range_start", req.Date)
	}
	return q
}

func (e *Eventbrite) transform(raw []json.RawMessage) []models.Event {
	records := decodeRecords[eventbriteEvent](raw, e.logger)
	events := make([]models.Event, 0, len(records))
	for _, r := range records {
		if r.Name == nil || r.Name.Text == "" || r.Start == nil || r.Start.UTC == "" {
			e.logger.Debug("skipping event without name or start", zap.String("id", string(r.ID)))
			continue
		}
		ev := models.Event{
			ID:     string(r.ID),
			Name:   r.Name.Text,
			Start:  r.Start.UTC,
			URL:    r.URL,
			Source: models.SourceEventbrite,
		}
		if r.Description != nil {
			ev.Description = r.Description.Text
		}
		if r.End != nil {
			ev.End = r.End.UTC
		}
		if r.Venue != nil {
			ev.Venue = r.Venue.Name
			if r.Venue.Address != nil {
				ev.Location = r.Venue.Address.LocalizedAddressDisplay
			}
		}
		if r.Logo != nil {
			ev.ImageURL = r.Logo.URL
		}
		if r.Category != nil {
			ev.Category = r.Category.Name
		}
		if ta := r.TicketAvailability; ta != nil && ta.MinimumTicketPrice != nil {
			ev.Price = &models.Price{
				Min:      ta.MinimumTicketPrice.Value.ptr(),
				Currency: ta.MinimumTicketPrice.Currency,
			}
			if ta.MaximumTicketPrice != nil {
				ev.Price.Max = ta.MaximumTicketPrice.Value.ptr()
			}
		}
		events = append(events, ev)
	}
	return events
}
