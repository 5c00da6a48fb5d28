package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/traceworks/traceback/internal/event"
	"github.com/traceworks/traceback/internal/hermes"
)

type syncUpdate struct {
	lastSync   *time.Time
	inProgress bool
}

type fakeStorage struct {
	records     []event.Record
	orgs        []string
	windowStart time.Time
	windowEnd   time.Time
	syncUpdates []syncUpdate
}

func (f *fakeStorage) ListRecords(_ context.Context, start, end time.Time) ([]event.Record, error) {
	f.windowStart, f.windowEnd = start, end
	var out []event.Record
	for _, r := range f.records {
		if r.StartAt.Before(end) && !r.EndAt.Before(start) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStorage) ListTrustedOrgs(context.Context) ([]string, error) {
	return f.orgs, nil
}

func (f *fakeStorage) UpdateSyncStatus(_ context.Context, lastSync *time.Time, inProgress bool) error {
	f.syncUpdates = append(f.syncUpdates, syncUpdate{lastSync, inProgress})
	return nil
}

type fakeBus struct {
	published []struct {
		subject string
		data    any
	}
}

func (f *fakeBus) Publish(subject string, data any) error {
	f.published = append(f.published, struct {
		subject string
		data    any
	}{subject, data})
	return nil
}

func at(day, hour, min int) time.Time {
	return time.Date(2026, 3, day, hour, min, 0, 0, time.UTC)
}

func testRecords() []event.Record {
	var calID, vcID uuid.UUID
	calID[15], vcID[15] = 1, 2
	return []event.Record{
		{
			ID:      calID,
			Kind:    event.SourceCalendar,
			Title:   "Standup",
			StartAt: at(10, 9, 0),
			EndAt:   at(10, 9, 15),
			Payload: &event.CalendarPayload{},
		},
		{
			ID:      vcID,
			Kind:    event.SourceVersionControl,
			Title:   "fix bug",
			StartAt: at(10, 10, 0),
			EndAt:   at(10, 10, 0),
			Payload: &event.VersionControlPayload{
				RepositoryID:   "repo-1",
				RepositoryName: "widgets",
				ActivityType:   "commit",
				RepositoryPath: "acme/widgets",
			},
		},
	}
}

func TestTimelineWindow(t *testing.T) {
	svc := New(&fakeStorage{records: testRecords(), orgs: []string{"acme"}}, nil, time.UTC, 90, slog.Default())

	events, err := svc.TimelineWindow(context.Background(), at(10, 0, 0), at(11, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected calendar event and repository aggregate, got %d events", len(events))
	}
}

func TestDayView(t *testing.T) {
	svc := New(&fakeStorage{records: testRecords(), orgs: []string{"acme"}}, nil, time.UTC, 90, slog.Default())

	parts, blocks, err := svc.DayView(context.Background(), at(10, 12, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts.Timed) != 2 {
		t.Errorf("expected 2 timed events, got %d", len(parts.Timed))
	}
	if len(blocks) != len(parts.Timed) {
		t.Errorf("expected one block per timed event")
	}
}

func TestHandleRecordsStored_PublishesPerDay(t *testing.T) {
	bus := &fakeBus{}
	svc := New(&fakeStorage{}, bus, time.UTC, 90, slog.Default())

	data, _ := json.Marshal(hermes.RecordsStored{
		Source:      "browsing",
		Count:       3,
		WindowStart: at(10, 23, 0),
		WindowEnd:   at(12, 1, 0),
	})
	svc.HandleRecordsStored(hermes.SubjectRecordsStored, data)

	if len(bus.published) != 3 {
		t.Fatalf("expected updates for 3 local days, got %d", len(bus.published))
	}
	wantDays := []string{"2026-03-10", "2026-03-11", "2026-03-12"}
	for i, p := range bus.published {
		if p.subject != hermes.SubjectTimelineUpdated {
			t.Errorf("unexpected subject %s", p.subject)
		}
		upd, ok := p.data.(hermes.TimelineUpdated)
		if !ok || upd.Day != wantDays[i] {
			t.Errorf("publication %d: expected day %s, got %+v", i, wantDays[i], p.data)
		}
	}
}

func TestHandleRecordsStored_MalformedIgnored(t *testing.T) {
	bus := &fakeBus{}
	svc := New(&fakeStorage{}, bus, time.UTC, 90, slog.Default())

	svc.HandleRecordsStored(hermes.SubjectRecordsStored, []byte(`{not json`))
	if len(bus.published) != 0 {
		t.Errorf("malformed event must not publish updates")
	}
}

func TestDayView_NextDayCommitBackfillsIntoView(t *testing.T) {
	var vcID uuid.UUID
	vcID[15] = 3
	// Commit just after midnight on day 11; the 30 minute backfill pulls
	// its adjusted span into day 10, so day 10's view must load it.
	rec := event.Record{
		ID:      vcID,
		Kind:    event.SourceVersionControl,
		Title:   "late fix",
		StartAt: at(11, 0, 0),
		EndAt:   at(11, 0, 5),
		Payload: &event.VersionControlPayload{
			RepositoryID:   "repo-1",
			RepositoryName: "widgets",
			ActivityType:   "commit",
			RepositoryPath: "acme/widgets",
		},
	}
	svc := New(&fakeStorage{records: []event.Record{rec}}, nil, time.UTC, 90, slog.Default())

	parts, blocks, err := svc.DayView(context.Background(), at(10, 12, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts.Timed) != 1 {
		t.Fatalf("expected the backfilled aggregate on day 10, got %d timed events", len(parts.Timed))
	}
	if len(blocks) != 1 {
		t.Errorf("expected 1 layout block, got %d", len(blocks))
	}
}

func TestRecentTimeline_UsesConfiguredWindow(t *testing.T) {
	db := &fakeStorage{}
	svc := New(db, nil, time.UTC, 90, slog.Default())

	if _, err := svc.RecentTimeline(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := db.windowEnd.Sub(db.windowStart); got != 90*24*time.Hour {
		t.Errorf("expected a 90 day window, got %v", got)
	}
	if time.Since(db.windowEnd) > time.Minute {
		t.Errorf("expected the window to end now, got %v", db.windowEnd)
	}
}

func TestHandleSyncLifecycle(t *testing.T) {
	db := &fakeStorage{}
	svc := New(db, nil, time.UTC, 90, slog.Default())

	started, _ := json.Marshal(hermes.SyncProgress{Source: "calendar", Status: "started"})
	svc.HandleSyncLifecycle(hermes.SubjectSyncStarted, started)

	completed, _ := json.Marshal(hermes.SyncProgress{TotalNew: 12})
	svc.HandleSyncLifecycle(hermes.SubjectSyncCompleted, completed)

	failed, _ := json.Marshal(hermes.SyncProgress{Error: "token expired"})
	svc.HandleSyncLifecycle(hermes.SubjectSyncFailed, failed)

	if len(db.syncUpdates) != 3 {
		t.Fatalf("expected 3 status updates, got %d", len(db.syncUpdates))
	}
	if !db.syncUpdates[0].inProgress || db.syncUpdates[0].lastSync != nil {
		t.Errorf("started must set in-progress without touching last sync")
	}
	if db.syncUpdates[1].inProgress || db.syncUpdates[1].lastSync == nil {
		t.Errorf("completed must clear in-progress and stamp last sync")
	}
	if db.syncUpdates[2].inProgress || db.syncUpdates[2].lastSync != nil {
		t.Errorf("failed must clear in-progress without stamping last sync")
	}
}

func TestHandleSyncLifecycle_MalformedIgnored(t *testing.T) {
	db := &fakeStorage{}
	svc := New(db, nil, time.UTC, 90, slog.Default())

	svc.HandleSyncLifecycle(hermes.SubjectSyncStarted, []byte(`{not json`))
	if len(db.syncUpdates) != 0 {
		t.Errorf("malformed event must not update sync status")
	}
}
