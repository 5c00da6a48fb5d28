package event

import "github.com/google/uuid"

// Kind discriminates the variants of a unified timeline event. Every consumer
// switching on Kind must handle all four variants.
type Kind string

const (
	KindCalendar   Kind = "calendar"
	KindRepository Kind = "repository"
	KindDocument   Kind = "document"
	KindResearch   Kind = "research"
)

// TimelineEvent is the canonical output of the aggregation pipeline: either a
// single calendar record or one aggregate activity. Members carries the raw
// records the event represents, so downstream project tagging can address
// them individually.
type TimelineEvent struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Span      Span      `json:"span"`
	ProjectID *int64    `json:"project_id,omitempty"`
	IsAllDay  bool      `json:"is_all_day"`
	Members   []Record  `json:"members"`
}
