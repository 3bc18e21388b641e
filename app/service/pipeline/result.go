package pipeline

import (
	"moovzmatch/app/client/mongodb"
	"moovzmatch/app/util/media"
	"time"
)

// Reason is the failure code carried by a terminal result.
type Reason string

const (
	ReasonRejected  Reason = "rejected"
	ReasonTimeout   Reason = "timeout"
	ReasonCancelled Reason = "cancelled"
	ReasonError     Reason = "error"
)

// MediaResult is the flattened media record sent with a successful
// identification.
type MediaResult struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	PosterURL    string    `json:"posterUrl,omitempty"`
	Year         string    `json:"year,omitempty"`
	Genre        string    `json:"genre,omitempty"`
	Description  string    `json:"description,omitempty"`
	TmdbRating   float64   `json:"tmdbRating,omitempty"`
	Duration     int       `json:"duration,omitempty"`
	IdentifiedAt time.Time `json:"identifiedAt"`
}

// Result is the single terminal payload of one identification run.
type Result struct {
	Success    bool          `json:"success"`
	SessionID  string        `json:"sessionId"`
	Kind       media.Kind    `json:"mediaType,omitempty"`
	Media      *MediaResult  `json:"result,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Elapsed    time.Duration `json:"-"`
	Reason     Reason        `json:"error,omitempty"`
}

// Update statuses for progress notifications.
const (
	StatusSearching    = "searching"
	StatusNoCandidates = "no_candidates"
)

// Update is a lightweight "still searching" notification, sent when the top
// candidate or its score moved noticeably.
type Update struct {
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"`
	Key       media.Key `json:"-"`
	Score     float64   `json:"score,omitempty"`
}

func mediaResultFromSummary(key media.Key, summary *mongodb.Summary) *MediaResult {
	result := &MediaResult{
		ID:           key.ID,
		IdentifiedAt: time.Now().UTC(),
	}

	if summary != nil {
		result.Title = summary.DisplayTitle()
		result.PosterURL = summary.PosterPath
		result.Year = summary.Year()
		result.Genre = summary.Genres
		result.Description = summary.Overview
		result.TmdbRating = summary.VoteAverage
		result.Duration = summary.Runtime
	}

	return result
}
