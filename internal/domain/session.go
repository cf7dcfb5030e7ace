package domain

import (
	"time"
)

// Capacity bounds enforced on session create/update.
const (
	MinCapacity int32 = 1
	MaxCapacity int32 = 100000
)

// SessionDate is one contiguous date range of a session.
type SessionDate struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Start     time.Time `json:"start"`
	Finish    time.Time `json:"finish"`
}

// Session is a single bookable offering of an activity. A session whose
// dates are not yet known is waitlist-only: no signup may hold BOOKED
// while DatesKnown is false.
type Session struct {
	ID                 int64         `json:"id"`
	ActivityID         int64         `json:"activity_id"`
	Capacity           int32         `json:"capacity"`
	DatesKnown         bool          `json:"dates_known"`
	AllowOverbook      bool          `json:"allow_overbook"`
	AllowCancellations bool          `json:"allow_cancellations"`
	Details            string        `json:"details"`
	Dates              []SessionDate `json:"dates"`
	CreatedOn          time.Time     `json:"created_on"`
	UpdatedOn          time.Time     `json:"updated_on"`
}

// ClampCapacity forces a capacity into [MinCapacity, MaxCapacity].
func ClampCapacity(capacity int32) int32 {
	if capacity < MinCapacity {
		return MinCapacity
	}
	if capacity > MaxCapacity {
		return MaxCapacity
	}
	return capacity
}

// HasStarted reports whether any date of the session lies in the past.
// Sessions without known dates never count as started.
func (s *Session) HasStarted(now time.Time) bool {
	if !s.DatesKnown {
		return false
	}
	for _, d := range s.Dates {
		if d.Start.Before(now) {
			return true
		}
	}
	return false
}

// InProgress reports whether the session has started but not yet finished.
func (s *Session) InProgress(now time.Time) bool {
	if !s.DatesKnown {
		return false
	}
	for _, d := range s.Dates {
		if d.Start.Before(now) && d.Finish.After(now) {
			return true
		}
	}
	return false
}

// Validate checks the session invariants prior to persistence.
func (s *Session) Validate() error {
	if s.ActivityID == 0 {
		return &ValidationError{Field: "activity_id", Reason: "required"}
	}
	if s.Capacity < MinCapacity || s.Capacity > MaxCapacity {
		return &ValidationError{Field: "capacity", Reason: "out of range"}
	}
	if s.DatesKnown && len(s.Dates) == 0 {
		return &ValidationError{Field: "dates", Reason: "required when dates are known"}
	}
	for _, d := range s.Dates {
		if !d.Finish.After(d.Start) {
			return &ValidationError{Field: "dates", Reason: "finish must be after start"}
		}
	}
	return nil
}
