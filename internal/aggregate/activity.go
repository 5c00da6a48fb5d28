package aggregate

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/traceworks/traceback/internal/classify"
	"github.com/traceworks/traceback/internal/event"
)

// activityNamespace seeds deterministic aggregate IDs. Rebuilding the same
// window must yield the same IDs so the rendering side can diff stably.
var activityNamespace = uuid.MustParse("6b1c9a52-8f0e-4d3a-9c57-2e4f8b91d0a3")

// Activity is a derived cluster of raw records representing one block of
// engagement. Never persisted; recomputed from records on every query.
type Activity struct {
	ID          uuid.UUID       `json:"aggregate_id"`
	Bucket      classify.Bucket `json:"bucket"`
	GroupingKey string          `json:"grouping_key"`
	Domain      string          `json:"domain,omitempty"`
	// RepositoryPath is the canonical org/repo path this activity covers,
	// when it covers one. Drives cross-source unification and coverage
	// suppression.
	RepositoryPath string         `json:"repository_path,omitempty"`
	Day            string         `json:"day"`
	Span           event.Span     `json:"span"`
	Members        []event.Record `json:"members"`
	ProjectID      *int64         `json:"project_id,omitempty"`
}

// finalize sorts members deterministically, recomputes the span and domain
// from them, inherits the project assignment from the first member, and
// derives the aggregate ID from identity rather than input order.
func (a *Activity) finalize() {
	sortMembers(a.Members)
	a.Span = memberSpan(a.Members)
	a.Domain = memberDomain(a.Members)
	a.ProjectID = a.Members[0].ProjectID
	a.ID = uuid.NewSHA1(activityNamespace, []byte(a.Day+"|"+string(a.Bucket)+"|"+a.GroupingKey))
}

func sortMembers(members []event.Record) {
	sort.Slice(members, func(i, j int) bool {
		if !members[i].StartAt.Equal(members[j].StartAt) {
			return members[i].StartAt.Before(members[j].StartAt)
		}
		return members[i].ID.String() < members[j].ID.String()
	})
}

// memberDomain takes the domain of the earliest member carrying one, so the
// aggregate's domain never depends on input order.
func memberDomain(members []event.Record) string {
	for _, m := range members {
		if p := m.Browsing(); p != nil && p.Domain != "" {
			return p.Domain
		}
	}
	return ""
}

func memberSpan(members []event.Record) event.Span {
	span := event.Span{Start: members[0].StartAt, End: members[0].EndAt}
	for _, m := range members[1:] {
		if m.StartAt.Before(span.Start) {
			span.Start = m.StartAt
		}
		if m.EndAt.After(span.End) {
			span.End = m.EndAt
		}
	}
	return span
}

// dayKey truncates a timestamp to its local calendar day in loc.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
