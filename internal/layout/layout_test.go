package layout

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/traceworks/traceback/internal/event"
)

func rid(n byte) uuid.UUID {
	var u uuid.UUID
	u[15] = n
	return u
}

var dayStart = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func timed(id byte, startHour, startMin, endHour, endMin int) event.TimelineEvent {
	return event.TimelineEvent{
		ID:   rid(id),
		Kind: event.KindCalendar,
		Span: event.Span{
			Start: dayStart.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
			End:   dayStart.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
		},
	}
}

func TestDay_GreedyPacking(t *testing.T) {
	// A[9:00-10:00] column 0, B[9:30-10:30] column 1, C[10:00-11:00] back
	// in column 0 because its start equals A's end. Two columns total,
	// applied uniformly.
	a := timed(1, 9, 0, 10, 0)
	b := timed(2, 9, 30, 10, 30)
	c := timed(3, 10, 0, 11, 0)

	blocks := Day([]event.TimelineEvent{a, b, c}, dayStart)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}

	wantColumns := map[byte]int{1: 0, 2: 1, 3: 0}
	for _, blk := range blocks {
		id := blk.Event.ID[15]
		if blk.Column != wantColumns[id] {
			t.Errorf("event %d: expected column %d, got %d", id, wantColumns[id], blk.Column)
		}
		if blk.TotalColumns != 2 {
			t.Errorf("event %d: expected total_columns 2, got %d", id, blk.TotalColumns)
		}
	}
}

func TestDay_TotalColumnsIsDayWide(t *testing.T) {
	// The afternoon event has no neighbors but still reports the day's
	// final column count.
	morning1 := timed(1, 9, 0, 10, 0)
	morning2 := timed(2, 9, 0, 10, 0)
	afternoon := timed(3, 15, 0, 16, 0)

	blocks := Day([]event.TimelineEvent{morning1, morning2, afternoon}, dayStart)
	for _, blk := range blocks {
		if blk.TotalColumns != 2 {
			t.Errorf("expected uniform total_columns 2, got %d", blk.TotalColumns)
		}
	}
}

func TestDay_Geometry(t *testing.T) {
	blocks := Day([]event.TimelineEvent{timed(1, 9, 30, 11, 0)}, dayStart)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	blk := blocks[0]
	if blk.Top != 9.5*HourHeight {
		t.Errorf("expected top %v, got %v", 9.5*HourHeight, blk.Top)
	}
	if blk.Height != 1.5*HourHeight {
		t.Errorf("expected height %v, got %v", 1.5*HourHeight, blk.Height)
	}
	if blk.LeftPercent != 0 || blk.WidthPercent != 100 {
		t.Errorf("single column: expected full width, got left %v width %v", blk.LeftPercent, blk.WidthPercent)
	}
}

func TestDay_MinimumHeight(t *testing.T) {
	blocks := Day([]event.TimelineEvent{timed(1, 9, 0, 9, 5)}, dayStart)
	if blocks[0].Height != MinBlockHeight {
		t.Errorf("expected minimum height %v, got %v", MinBlockHeight, blocks[0].Height)
	}
}

func TestDay_ClampsCrossMidnightSpans(t *testing.T) {
	ev := event.TimelineEvent{
		ID:   rid(1),
		Kind: event.KindCalendar,
		Span: event.Span{
			Start: dayStart.Add(-30 * time.Minute),
			End:   dayStart.Add(30 * time.Minute),
		},
	}
	blocks := Day([]event.TimelineEvent{ev}, dayStart)
	if blocks[0].Top != 0 {
		t.Errorf("expected clamped top 0, got %v", blocks[0].Top)
	}
	if blocks[0].Height != 0.5*HourHeight {
		t.Errorf("expected height for visible half hour, got %v", blocks[0].Height)
	}
}

func TestDay_Deterministic(t *testing.T) {
	evs := []event.TimelineEvent{
		timed(2, 9, 0, 10, 0),
		timed(1, 9, 0, 10, 0),
		timed(3, 9, 30, 10, 30),
	}
	first := Day(evs, dayStart)
	second := Day([]event.TimelineEvent{evs[2], evs[0], evs[1]}, dayStart)

	if len(first) != len(second) {
		t.Fatalf("block count differs")
	}
	for i := range first {
		if first[i].Event.ID != second[i].Event.ID || first[i].Column != second[i].Column {
			t.Errorf("block %d differs across input order", i)
		}
	}
}

func TestDay_Empty(t *testing.T) {
	if blocks := Day(nil, dayStart); len(blocks) != 0 {
		t.Errorf("expected no blocks for empty day, got %d", len(blocks))
	}
}
