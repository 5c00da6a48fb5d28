// Package timeline merges atomic calendar records with surviving aggregate
// activities into one canonical ordered event list and partitions it per
// displayed day.
package timeline

import (
	"sort"
	"time"

	"github.com/traceworks/traceback/internal/aggregate"
	"github.com/traceworks/traceback/internal/classify"
	"github.com/traceworks/traceback/internal/event"
)

// Assemble produces the unified event list for a window. Each calendar record
// yields exactly one event carrying itself as its single member; each
// aggregate yields exactly one event carrying all its members as provenance.
// Output order is deterministic: span start ascending, event ID as tie-break.
func Assemble(calendarRecords []event.Record, aggregates []aggregate.Activity) []event.TimelineEvent {
	events := make([]event.TimelineEvent, 0, len(calendarRecords)+len(aggregates))

	for _, r := range calendarRecords {
		events = append(events, event.TimelineEvent{
			ID:        r.ID,
			Kind:      event.KindCalendar,
			Title:     r.Title,
			Span:      event.Span{Start: r.StartAt, End: r.EndAt},
			ProjectID: r.ProjectID,
			IsAllDay:  r.IsAllDay(),
			Members:   []event.Record{r},
		})
	}

	for _, a := range aggregates {
		events = append(events, event.TimelineEvent{
			ID:        a.ID,
			Kind:      kindForBucket(a.Bucket),
			Title:     activityTitle(a),
			Span:      a.Span,
			ProjectID: a.ProjectID,
			Members:   a.Members,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Span.Start.Equal(events[j].Span.Start) {
			return events[i].Span.Start.Before(events[j].Span.Start)
		}
		return events[i].ID.String() < events[j].ID.String()
	})
	return events
}

// DayEvents is the per-day partition of the unified list.
type DayEvents struct {
	AllDay []event.TimelineEvent
	Timed  []event.TimelineEvent
}

// Partition selects the events belonging to the local calendar day containing
// day. Membership is a half-open interval intersection against the local
// midnight boundaries, so an event spanning midnight belongs to both days.
func Partition(events []event.TimelineEvent, day time.Time, loc *time.Location) DayEvents {
	dayStart := startOfDay(day, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var out DayEvents
	for _, e := range events {
		if !e.Span.Overlaps(dayStart, dayEnd) {
			continue
		}
		if e.IsAllDay {
			out.AllDay = append(out.AllDay, e)
		} else {
			out.Timed = append(out.Timed, e)
		}
	}
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// kindForBucket maps a classification bucket onto the timeline event union.
// Collaborative documents and project tools both render as document events.
func kindForBucket(b classify.Bucket) event.Kind {
	switch b {
	case classify.BucketRepository:
		return event.KindRepository
	case classify.BucketCollaborativeDoc, classify.BucketProjectTool:
		return event.KindDocument
	case classify.BucketResearch:
		return event.KindResearch
	}
	return event.KindDocument
}

// activityTitle picks a display title for an aggregate. Repository
// aggregates prefer the source-reported repository name when one member
// carries it.
func activityTitle(a aggregate.Activity) string {
	if a.Bucket == classify.BucketRepository {
		for _, m := range a.Members {
			if p := m.VersionControl(); p != nil && p.RepositoryName != "" {
				return p.RepositoryName
			}
		}
	}
	return a.GroupingKey
}
