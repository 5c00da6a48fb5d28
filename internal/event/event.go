package event

import (
	"time"

	"github.com/google/uuid"
)

// SourceKind identifies the ingestion source of a raw activity record.
type SourceKind string

const (
	SourceCalendar       SourceKind = "calendar"
	SourceVersionControl SourceKind = "version_control"
	SourceBrowsing       SourceKind = "browsing"
)

// Known reports whether k is a source kind this pipeline understands.
// Records with unknown kinds are dropped from the output rather than
// aborting the pipeline.
func (k SourceKind) Known() bool {
	switch k {
	case SourceCalendar, SourceVersionControl, SourceBrowsing:
		return true
	}
	return false
}

// Span is a half-open time interval [Start, End).
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the span.
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether the span intersects [start, end). An end that
// exactly equals a start does not count as overlap.
func (s Span) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && s.End.After(start)
}

// Record is an immutable raw activity fact supplied by the ingestion
// collaborator. Payload is decoded exactly once at the ingestion boundary;
// the pipeline never re-parses serialized data.
type Record struct {
	ID           uuid.UUID  `json:"id"`
	Kind         SourceKind `json:"source_kind"`
	Title        string     `json:"title"`
	StartAt      time.Time  `json:"start_at"`
	EndAt        time.Time  `json:"end_at"`
	ExternalLink string     `json:"external_link,omitempty"`
	ProjectID    *int64     `json:"project_id,omitempty"`
	Payload      Payload    `json:"payload,omitempty"`
}

// CalendarPayload carries the calendar-specific fields of a record.
type CalendarPayload struct {
	Location  string   `json:"location,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	IsAllDay  bool     `json:"is_all_day"`
	Organizer string   `json:"organizer,omitempty"`
	Attendees []string `json:"attendees,omitempty"`
}

// VersionControlPayload carries the version-control-specific fields of a
// record. RepositoryPath is the canonical org/repo path when the remote is a
// recognized hosting platform.
type VersionControlPayload struct {
	RepositoryID   string `json:"repository_id"`
	RepositoryName string `json:"repository_name"`
	ActivityType   string `json:"activity_type"`
	RefName        string `json:"ref_name,omitempty"`
	CommitHash     string `json:"commit_hash,omitempty"`
	RepositoryPath string `json:"repository_path,omitempty"`
	OriginURL      string `json:"origin_url,omitempty"`
}

// BrowsingPayload carries the browsing-specific fields of a record.
// RepositoryPath is set when the visited URL points into a code repository.
type BrowsingPayload struct {
	URL            string `json:"url"`
	Domain         string `json:"domain"`
	PageTitle      string `json:"page_title,omitempty"`
	VisitCount     int    `json:"visit_count"`
	RepositoryPath string `json:"repository_path,omitempty"`
}

// ActivityCommit is the version-control activity type that triggers the
// pre-commit span extension heuristic.
const ActivityCommit = "commit"

// Calendar returns the decoded calendar payload, or nil when the record does
// not carry one.
func (r Record) Calendar() *CalendarPayload {
	if p, ok := r.Payload.(*CalendarPayload); ok {
		return p
	}
	return nil
}

// VersionControl returns the decoded version-control payload, or nil.
func (r Record) VersionControl() *VersionControlPayload {
	if p, ok := r.Payload.(*VersionControlPayload); ok {
		return p
	}
	return nil
}

// Browsing returns the decoded browsing payload, or nil.
func (r Record) Browsing() *BrowsingPayload {
	if p, ok := r.Payload.(*BrowsingPayload); ok {
		return p
	}
	return nil
}

// RepositoryPath returns the canonical org/repo path carried by the record's
// payload, or "" when the record carries none. Both version-control and
// browsing records can reference a repository; calendar records never do.
func (r Record) RepositoryPath() string {
	switch p := r.Payload.(type) {
	case *VersionControlPayload:
		return p.RepositoryPath
	case *BrowsingPayload:
		return p.RepositoryPath
	}
	return ""
}

// IsAllDay reports whether the record is an all-day calendar entry. Records
// without a calendar payload are never all-day.
func (r Record) IsAllDay() bool {
	if p := r.Calendar(); p != nil {
		return p.IsAllDay
	}
	return false
}
