package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/traceworks/traceback/internal/event"
	"github.com/traceworks/traceback/internal/layout"
)

// TimelineResponse is the payload for GET /api/v1/timeline.
type TimelineResponse struct {
	Events []event.TimelineEvent `json:"events"`
	Count  int                   `json:"count"`
}

// DayLayoutResponse is the payload for GET /api/v1/timeline/{date}/layout.
type DayLayoutResponse struct {
	Date   string                `json:"date"`
	AllDay []event.TimelineEvent `json:"all_day"`
	Blocks []layout.Block        `json:"blocks"`
}

func (s *Server) timelineWindow(w http.ResponseWriter, r *http.Request) {
	// No explicit range queries the configured trailing sync window.
	if r.URL.Query().Get("start") == "" && r.URL.Query().Get("end") == "" {
		events, err := s.timeline.RecentTimeline(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if events == nil {
			events = []event.TimelineEvent{}
		}
		writeJSON(w, http.StatusOK, TimelineResponse{Events: events, Count: len(events)})
		return
	}

	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid start: %w", err))
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid end: %w", err))
		return
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("end must be after start"))
		return
	}

	events, err := s.timeline.TimelineWindow(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []event.TimelineEvent{}
	}
	writeJSON(w, http.StatusOK, TimelineResponse{Events: events, Count: len(events)})
}

func (s *Server) dayLayout(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid date: %w", err))
		return
	}

	day, blocks, err := s.timeline.DayViewDate(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if day.AllDay == nil {
		day.AllDay = []event.TimelineEvent{}
	}
	if blocks == nil {
		blocks = []layout.Block{}
	}
	writeJSON(w, http.StatusOK, DayLayoutResponse{Date: date, AllDay: day.AllDay, Blocks: blocks})
}
