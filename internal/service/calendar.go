package service

import (
	"context"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/logger"
)

// loggingCalendarService stands in for a real calendar integration. It
// records the sync points so operators can see what a connected calendar
// backend would have received.
type loggingCalendarService struct{}

func NewLoggingCalendarService() CalendarService {
	return &loggingCalendarService{}
}

func (c *loggingCalendarService) AddSessionEntry(ctx context.Context, session *domain.Session, activity *domain.Activity, userID int64, description string) error {
	logger.Info("calendar entry added",
		"session_id", session.ID, "activity_id", activity.ID, "user_id", userID, "description", description)
	return nil
}

func (c *loggingCalendarService) RemoveSessionEntry(ctx context.Context, session *domain.Session, userID int64) error {
	logger.Info("calendar entry removed", "session_id", session.ID, "user_id", userID)
	return nil
}
