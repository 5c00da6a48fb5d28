// Package layout assigns non-overlapping column geometry to one day's timed
// events. The greedy first-fit packing is intentionally not a minimal
// coloring: its output is a compatibility surface the rendering side has been
// built around, and changing it would visibly reshuffle existing timelines.
package layout

import (
	"sort"
	"time"

	"github.com/traceworks/traceback/internal/event"
)

// Rendering geometry policy, in abstract units per hour.
const (
	// HourHeight is the vertical size of one hour on the day canvas.
	HourHeight = 60.0
	// MinBlockHeight keeps very short events clickable.
	MinBlockHeight = 20.0
)

// Block is the rendering geometry computed for one event on one day. Pure
// output, recomputed on every render, never persisted.
type Block struct {
	Event event.TimelineEvent `json:"event"`
	// Column and TotalColumns position the block horizontally.
	// TotalColumns is the final column count for the whole day, applied
	// uniformly: an event without direct neighbors still narrows when
	// other events elsewhere in the day forced extra columns open.
	Column       int     `json:"column"`
	TotalColumns int     `json:"total_columns"`
	Top          float64 `json:"top_offset"`
	Height       float64 `json:"height"`
	LeftPercent  float64 `json:"left_percent"`
	WidthPercent float64 `json:"width_percent"`
}

// Day lays out the timed events of the day starting at dayStart. Events
// reaching across the day boundary are clamped to the day window before
// packing and geometry. Results are deterministic for identical inputs.
func Day(events []event.TimelineEvent, dayStart time.Time) []Block {
	dayEnd := dayStart.AddDate(0, 0, 1)

	type placed struct {
		ev         event.TimelineEvent
		start, end time.Time
		column     int
	}

	items := make([]placed, 0, len(events))
	for _, e := range events {
		start, end := e.Span.Start, e.Span.End
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		items = append(items, placed{ev: e, start: start, end: end})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].start.Equal(items[j].start) {
			return items[i].start.Before(items[j].start)
		}
		return items[i].ev.ID.String() < items[j].ev.ID.String()
	})

	// First-fit scan: each column remembers only the end of its most
	// recently placed event. An end exactly equal to a start packs into
	// the same column.
	var columnEnds []time.Time
	for i := range items {
		placedAt := -1
		for col, endAt := range columnEnds {
			if !endAt.After(items[i].start) {
				placedAt = col
				break
			}
		}
		if placedAt == -1 {
			placedAt = len(columnEnds)
			columnEnds = append(columnEnds, time.Time{})
		}
		columnEnds[placedAt] = items[i].end
		items[i].column = placedAt
	}

	total := len(columnEnds)
	if total == 0 {
		return nil
	}

	blocks := make([]Block, len(items))
	for i, it := range items {
		top := it.start.Sub(dayStart).Hours() * HourHeight
		height := it.end.Sub(it.start).Hours() * HourHeight
		if height < MinBlockHeight {
			height = MinBlockHeight
		}
		blocks[i] = Block{
			Event:        it.ev,
			Column:       it.column,
			TotalColumns: total,
			Top:          top,
			Height:       height,
			LeftPercent:  float64(it.column) / float64(total) * 100,
			WidthPercent: 1 / float64(total) * 100,
		}
	}
	return blocks
}
