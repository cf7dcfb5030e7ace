package service

import (
	"context"
	"sync"
	"time"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/logger"
)

// sessionLocks serialises the read-decide-write spans of signup, cancel
// and reconcile per session. Operations on different sessions proceed in
// parallel. Entries are reference counted so the map does not grow with
// the number of sessions ever touched.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[int64]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[int64]*sessionLock)}
}

// Lock acquires the lock for the session and returns its release func.
func (l *sessionLocks) Lock(sessionID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[sessionID]
	if !ok {
		entry = &sessionLock{}
		l.locks[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}
}

// ReconcileCapacity rebalances the session after direct capacity or date
// edits. Signup and cancellation call the unlocked variant themselves.
func (s *bookingService) ReconcileCapacity(ctx context.Context, sessionID int64) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	activity, err := s.activityRepo.GetByID(ctx, sess.ActivityID)
	if err != nil {
		return err
	}
	return s.reconcile(ctx, sess, activity)
}

// reconcile recomputes the BOOKED/WAITLISTED partition of the session's
// roster. Caller holds the session lock.
//
// Without known dates every booked registrant is demoted to the waitlist.
// Otherwise waitlisted registrants are promoted in fairness order until
// capacity is met. Booked registrants are never demoted by a capacity
// change. Running it twice with no intervening change appends nothing on
// the second pass.
func (s *bookingService) reconcile(ctx context.Context, sess *domain.Session, activity *domain.Activity) error {
	attendees, err := s.signupRepo.Attendees(ctx, sess.ID)
	if err != nil {
		return err
	}

	if !sess.DatesKnown {
		for i := range attendees {
			a := &attendees[i]
			if a.Status != domain.StatusBooked {
				continue
			}
			if err := s.transition(ctx, sess, activity, a, domain.StatusWaitlisted); err != nil {
				return err
			}
		}
		return nil
	}

	booked := int32(0)
	for i := range attendees {
		if attendees[i].Status == domain.StatusBooked {
			booked++
		}
	}
	for i := range attendees {
		if booked >= sess.Capacity {
			break
		}
		a := &attendees[i]
		if a.Status != domain.StatusWaitlisted {
			continue
		}
		if err := s.transition(ctx, sess, activity, a, domain.StatusBooked); err != nil {
			return err
		}
		booked++
	}
	return nil
}

// transition applies one promotion or demotion: the status append is
// authoritative, calendar sync and the notice are best effort.
func (s *bookingService) transition(ctx context.Context, sess *domain.Session, activity *domain.Activity, a *domain.Attendee, target domain.Status) error {
	rec := &domain.StatusRecord{
		SignupID:  a.Signup.ID,
		Status:    target,
		CreatedBy: a.User.ID,
	}
	if err := s.statusRepo.Append(ctx, rec); err != nil {
		return err
	}

	if activity.UserCalendar {
		if err := s.calendarSvc.AddSessionEntry(ctx, sess, activity, a.User.ID, ""); err != nil {
			logger.Error("calendar sync failed", "session_id", sess.ID, "user_id", a.User.ID, "error", err)
		}
	}

	if sess.HasStarted(time.Now()) {
		return nil
	}
	waitlisted := target == domain.StatusWaitlisted
	if err := s.emailSvc.SendBookingConfirmation(ctx, &a.User, activity, sess, waitlisted, a.Signup.NotificationType); err != nil {
		logger.Error("roster change notice failed",
			"session_id", sess.ID, "user_id", a.User.ID, "status", target.String(), "error", err)
	}
	return nil
}
