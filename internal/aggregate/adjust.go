package aggregate

import (
	"time"

	"github.com/traceworks/traceback/internal/classify"
	"github.com/traceworks/traceback/internal/event"
)

// Span extension policy. Raw timestamps under-report engagement: a commit is
// the end of work, not the start of it, and a single page visit says nothing
// about how long the page stayed open. These constants are policy values a
// future configuration layer may override; the aggregation logic never embeds
// the literals.
const (
	// CommitBackfill models work that preceded a commit but left no record.
	CommitBackfill = 30 * time.Minute
	// DocPreBuffer models reading and thinking time before the first
	// captured edit of a collaborative document.
	DocPreBuffer = 15 * time.Minute
	// PostBuffer models continued engagement after the last captured event.
	PostBuffer = 15 * time.Minute
	// MinSpan is the floor every adjusted activity is stretched to meet.
	MinSpan = 30 * time.Minute
)

// Adjust applies the span extension heuristics to a freshly built activity.
// Called once per activity, before coverage resolution.
func Adjust(a Activity) Activity {
	if m := firstVersionControlMember(a.Members); m != nil {
		if p := m.VersionControl(); p != nil && p.ActivityType == event.ActivityCommit {
			a.Span.Start = a.Span.Start.Add(-CommitBackfill)
		}
	}
	if a.Bucket == classify.BucketCollaborativeDoc {
		a.Span.Start = a.Span.Start.Add(-DocPreBuffer)
	}
	a.Span.End = a.Span.End.Add(PostBuffer)
	if a.Span.Duration() < MinSpan {
		a.Span.End = a.Span.Start.Add(MinSpan)
	}
	return a
}

// AdjustAll adjusts every activity in place-order, returning a new slice.
func AdjustAll(activities []Activity) []Activity {
	out := make([]Activity, len(activities))
	for i, a := range activities {
		out[i] = Adjust(a)
	}
	return out
}

// firstVersionControlMember returns the chronologically first member that
// came from version control. Members are already sorted by start time.
func firstVersionControlMember(members []event.Record) *event.Record {
	for i := range members {
		if members[i].Kind == event.SourceVersionControl {
			return &members[i]
		}
	}
	return nil
}
