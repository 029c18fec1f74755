package orchestration

import (
	"sort"
	"strings"
	"time"

	"github.com/bizmatters/dateai/orchestrator/internal/models"
)

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// parseEventTime accepts the timestamp shapes the event providers emit.
func parseEventTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// mergeEvents flattens provider results in adapter order, drops duplicates and sorts by start.
func mergeEvents(groups [][]models.Event) []models.Event {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	all := make([]models.Event, 0, total)
	for _, g := range groups {
		all = append(all, g...)
	}
	return sortEventsByStart(dedupeEvents(all))
}

// dedupeEvents keeps the first event for each lower-cased name and raw start.
func dedupeEvents(events []models.Event) []models.Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		key := strings.ToLower(ev.Name) + "-" + ev.Start
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}
	return out
}

// sortEventsByStart orders events by start time. Unparseable starts go last,
// and equal keys keep their input order.
func sortEventsByStart(events []models.Event) []models.Event {
	type keyed struct {
		at time.Time
		ok bool
	}
	keys := make([]keyed, len(events))
	for i, ev := range events {
		t, ok := parseEventTime(ev.Start)
		keys[i] = keyed{at: t, ok: ok}
	}

	idx := make([]int, len(events))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.ok != kb.ok {
			return ka.ok
		}
		if !ka.ok {
			return false
		}
		return ka.at.Before(kb.at)
	})

	out := make([]models.Event, len(events))
	for i, j := range idx {
		out[i] = events[j]
	}
	return out
}
