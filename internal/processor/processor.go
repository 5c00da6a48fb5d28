package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/traceworks/traceback/internal/event"
	"github.com/traceworks/traceback/internal/hermes"
	"github.com/traceworks/traceback/internal/layout"
	"github.com/traceworks/traceback/internal/pipeline"
	"github.com/traceworks/traceback/internal/timeline"
)

// Storage is the slice of the store the processor reads. The pipeline's
// inputs — raw records and the trusted-org allowlist — are resolved here and
// passed in by value; the core holds no connection to storage.
type Storage interface {
	ListRecords(ctx context.Context, start, end time.Time) ([]event.Record, error)
	ListTrustedOrgs(ctx context.Context) ([]string, error)
	UpdateSyncStatus(ctx context.Context, lastSync *time.Time, inProgress bool) error
}

// Publisher is the slice of the bus the processor writes to.
type Publisher interface {
	Publish(subject string, data any) error
}

// Service runs the aggregation pipeline over stored records on demand and
// announces timeline changes on the bus.
type Service struct {
	store      Storage
	pipe       *pipeline.Pipeline
	bus        Publisher
	loc        *time.Location
	windowDays int
	logger     *slog.Logger
}

// New builds the service. windowDays bounds the default query window for
// RecentTimeline. bus may be nil; change announcements are then skipped.
func New(store Storage, bus Publisher, loc *time.Location, windowDays int, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		pipe:       pipeline.New(),
		bus:        bus,
		loc:        loc,
		windowDays: windowDays,
		logger:     logger,
	}
}

// TimelineWindow computes the unified timeline for [start, end).
func (s *Service) TimelineWindow(ctx context.Context, start, end time.Time) ([]event.TimelineEvent, error) {
	records, err := s.store.ListRecords(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	orgs, err := s.store.ListTrustedOrgs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trusted orgs: %w", err)
	}
	return s.pipe.Events(records, orgs, s.loc), nil
}

// RecentTimeline computes the unified timeline for the trailing sync window
// ending now. Serves timeline queries that name no explicit range.
func (s *Service) RecentTimeline(ctx context.Context) ([]event.TimelineEvent, error) {
	now := time.Now().In(s.loc)
	return s.TimelineWindow(ctx, now.AddDate(0, 0, -s.windowDays), now)
}

// DayView computes the partitioned events and layout blocks for one
// displayed day. The record window reaches one day either side so aggregates
// whose adjusted spans cross midnight in either direction still surface.
func (s *Service) DayView(ctx context.Context, day time.Time) (timeline.DayEvents, []layout.Block, error) {
	local := day.In(s.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	events, err := s.TimelineWindow(ctx, dayStart.AddDate(0, 0, -1), dayEnd.AddDate(0, 0, 1))
	if err != nil {
		return timeline.DayEvents{}, nil, err
	}
	parts, blocks := s.pipe.Day(events, dayStart, s.loc)
	return parts, blocks, nil
}

// DayViewDate is DayView for a YYYY-MM-DD date string, interpreted in the
// service's location.
func (s *Service) DayViewDate(ctx context.Context, date string) (timeline.DayEvents, []layout.Block, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return timeline.DayEvents{}, nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	return s.DayView(ctx, day)
}

// HandleRecordsStored is the bus handler for hermes.SubjectRecordsStored:
// whenever an ingestion collaborator lands a batch, every local day touched
// by the batch window gets a timeline-updated announcement.
func (s *Service) HandleRecordsStored(subject string, data []byte) {
	var evt hermes.RecordsStored
	if err := json.Unmarshal(data, &evt); err != nil {
		s.logger.Warn("failed to parse records-stored event", "error", err)
		return
	}
	if evt.WindowEnd.Before(evt.WindowStart) {
		s.logger.Warn("records-stored window is inverted", "start", evt.WindowStart, "end", evt.WindowEnd)
		return
	}

	s.logger.Info("records stored",
		"source", evt.Source,
		"count", evt.Count,
		"window_start", evt.WindowStart,
		"window_end", evt.WindowEnd,
	)

	if s.bus == nil {
		return
	}
	for _, day := range localDays(evt.WindowStart, evt.WindowEnd, s.loc) {
		if err := s.bus.Publish(hermes.SubjectTimelineUpdated, hermes.TimelineUpdated{Day: day}); err != nil {
			s.logger.Warn("failed to publish timeline update", "day", day, "error", err)
		}
	}
}

// HandleSyncLifecycle is the bus handler for the sync lifecycle subjects.
// Syncing happens in a separate collaborator; mirroring its started and
// finished events into the sync status row keeps the status endpoint
// truthful without a direct dependency.
func (s *Service) HandleSyncLifecycle(subject string, data []byte) {
	var evt hermes.SyncProgress
	if err := json.Unmarshal(data, &evt); err != nil {
		s.logger.Warn("failed to parse sync lifecycle event", "subject", subject, "error", err)
		return
	}

	ctx := context.Background()
	var err error
	switch subject {
	case hermes.SubjectSyncStarted:
		err = s.store.UpdateSyncStatus(ctx, nil, true)
	case hermes.SubjectSyncCompleted:
		now := time.Now().UTC()
		err = s.store.UpdateSyncStatus(ctx, &now, false)
	case hermes.SubjectSyncFailed:
		s.logger.Warn("sync failed", "source", evt.Source, "error", evt.Error)
		err = s.store.UpdateSyncStatus(ctx, nil, false)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("failed to update sync status", "subject", subject, "error", err)
	}
}

// localDays lists the local calendar days intersecting [start, end].
func localDays(start, end time.Time, loc *time.Location) []string {
	first := start.In(loc)
	cursor := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)

	var days []string
	for !cursor.After(end.In(loc)) {
		days = append(days, cursor.Format("2006-01-02"))
		cursor = cursor.AddDate(0, 0, 1)
	}
	return days
}
