package monitor

import (
	"time"

	"potwatch/internal/pipeline"

	"github.com/google/uuid"
)

// ReadingEvent is published for every processed frame.
type ReadingEvent struct {
	ID          uuid.UUID `json:"id"`
	Time        time.Time `json:"time"`
	PanelFound  bool      `json:"panel_found"`
	Reading     string    `json:"reading,omitempty"`
	Valid       bool      `json:"valid"`
	GoodMatches int       `json:"good_matches"`
	Inliers     int       `json:"inliers"`
}

func newEvent(id uuid.UUID, at time.Time, r pipeline.Reading) ReadingEvent {
	return ReadingEvent{
		ID:          id,
		Time:        at.UTC(),
		PanelFound:  r.PanelFound,
		Reading:     r.Text,
		Valid:       r.Valid,
		GoodMatches: r.GoodMatches,
		Inliers:     r.Inliers,
	}
}
