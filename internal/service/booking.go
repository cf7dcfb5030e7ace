package service

import (
	"context"
	"strings"
	"time"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/logger"
	"bookingdesk-backend/internal/repository"
)

type bookingService struct {
	sessionRepo  repository.SessionRepository
	activityRepo repository.ActivityRepository
	signupRepo   repository.SignupRepository
	statusRepo   repository.StatusHistoryRepository
	userRepo     repository.UserRepository
	emailSvc     EmailService
	calendarSvc  CalendarService
	locks        *sessionLocks
}

func NewBookingService(
	sessionRepo repository.SessionRepository,
	activityRepo repository.ActivityRepository,
	signupRepo repository.SignupRepository,
	statusRepo repository.StatusHistoryRepository,
	userRepo repository.UserRepository,
	emailSvc EmailService,
	calendarSvc CalendarService,
) BookingService {
	return &bookingService{
		sessionRepo:  sessionRepo,
		activityRepo: activityRepo,
		signupRepo:   signupRepo,
		statusRepo:   statusRepo,
		userRepo:     userRepo,
		emailSvc:     emailSvc,
		calendarSvc:  calendarSvc,
		locks:        newSessionLocks(),
	}
}

func (s *bookingService) Signup(ctx context.Context, sessionID, userID int64, discountCode string, notify domain.NotificationType) (*SignupResult, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	activity, err := s.activityRepo.GetByID(ctx, sess.ActivityID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// One session per user per activity. An existing signup on this
	// session is reused; one on a sibling session blocks the attempt.
	bookings, err := s.signupRepo.UserBookings(ctx, activity.ID, userID, false)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if b.SessionID != sessionID {
			return nil, domain.ErrAlreadySignedUp
		}
	}

	requested, err := s.entryStatus(ctx, sess)
	if err != nil {
		return nil, err
	}
	if activity.ManagerNeeded() && user.ManagerEmail == "" {
		return nil, domain.ErrManagerEmailRequired
	}

	return s.signUp(ctx, sess, activity, user, discountCode, notify, requested, userID)
}

// entryStatus decides the status a new registrant would get from the
// session's current capacity: BOOKED while seats remain, WAITLISTED when
// dates are unknown or overbooking is allowed, ErrSessionFull otherwise.
// Nothing is written before this check.
func (s *bookingService) entryStatus(ctx context.Context, sess *domain.Session) (domain.Status, error) {
	if !sess.DatesKnown {
		return domain.StatusWaitlisted, nil
	}
	booked, err := s.signupRepo.CountByStatus(ctx, sess.ID, domain.StatusBooked)
	if err != nil {
		return 0, err
	}
	if booked < sess.Capacity {
		return domain.StatusBooked, nil
	}
	if sess.AllowOverbook {
		return domain.StatusWaitlisted, nil
	}
	return 0, domain.ErrSessionFull
}

// signUp runs the registration itself: signup upsert, target status
// resolution (approval path), status append, calendar entry and notices.
// Caller holds the session lock and has validated preconditions.
func (s *bookingService) signUp(ctx context.Context, sess *domain.Session, activity *domain.Activity,
	user *domain.User, discountCode string, notify domain.NotificationType,
	requested domain.Status, actorID int64) (*SignupResult, error) {

	notify = notify.Normalize()

	su, err := s.signupRepo.FindBySessionAndUser(ctx, sess.ID, user.ID)
	if err != nil {
		return nil, err
	}
	isNew := su == nil
	if isNew {
		su = &domain.Signup{SessionID: sess.ID, UserID: user.ID}
	}
	su.NotificationType = notify
	su.MailedReminder = nil
	if code := strings.ToUpper(strings.TrimSpace(discountCode)); code != "" {
		su.DiscountCode = &code
	} else {
		su.DiscountCode = nil
	}

	target := requested
	if activity.ApprovalRequired {
		var current *domain.StatusRecord
		if !isNew {
			current, err = s.statusRepo.Current(ctx, su.ID)
			if err != nil {
				return nil, err
			}
		}
		switch {
		case current != nil && current.Status == domain.StatusApproved:
			target = requested
		case sess.DatesKnown:
			target = domain.StatusRequested
		default:
			target = domain.StatusWaitlisted
		}
	}

	rec := &domain.StatusRecord{SignupID: su.ID, Status: target, CreatedBy: actorID}
	if isNew {
		err = s.signupRepo.Register(ctx, su, rec)
	} else {
		if err = s.signupRepo.Update(ctx, su); err == nil {
			err = s.statusRepo.Append(ctx, rec)
		}
	}
	if err != nil {
		return nil, err
	}

	if activity.UserCalendar && (target == domain.StatusBooked || target == domain.StatusWaitlisted) {
		if err := s.calendarSvc.AddSessionEntry(ctx, sess, activity, user.ID, ""); err != nil {
			logger.Error("calendar sync failed", "session_id", sess.ID, "user_id", user.ID, "error", err)
		}
		if user.Trainer {
			// Trainers get the attendee named on their entry.
			if err := s.calendarSvc.AddSessionEntry(ctx, sess, activity, user.ID, "Attendee: "+user.Name); err != nil {
				logger.Error("calendar sync failed", "session_id", sess.ID, "user_id", user.ID, "error", err)
			}
		}
	}

	result := &SignupResult{Signup: su, Status: target}
	if sess.HasStarted(time.Now()) {
		return result, nil
	}

	switch target {
	case domain.StatusBooked, domain.StatusWaitlisted:
		waitlisted := target == domain.StatusWaitlisted
		if err := s.emailSvc.SendBookingConfirmation(ctx, user, activity, sess, waitlisted, notify); err != nil {
			result.NotificationErr = &domain.NotificationError{Notice: "confirmation", Err: err}
			logger.Error("confirmation notice failed", "session_id", sess.ID, "user_id", user.ID, "error", err)
		}
	case domain.StatusRequested:
		// Without this notice the approval step never triggers, so a
		// send failure is the error of the whole call. The REQUESTED
		// record stays committed.
		if err := s.emailSvc.SendRequestNotice(ctx, user, activity, sess); err != nil {
			return result, &domain.NotificationError{Notice: "request", Err: err}
		}
	}
	return result, nil
}

func (s *bookingService) Cancel(ctx context.Context, sessionID, userID int64, reason string) error {
	return s.cancel(ctx, sessionID, userID, false, reason, true)
}

func (s *bookingService) cancel(ctx context.Context, sessionID, userID int64, forced bool, reason string, notify bool) error {
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
	if !forced {
		if !sess.AllowCancellations {
			return domain.ErrCancellationNotAllowed
		}
		if sess.HasStarted(time.Now()) {
			return domain.ErrSessionAlreadyStarted
		}
	}

	su, err := s.signupRepo.FindBySessionAndUser(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if su == nil {
		return nil // not signed up, nothing to do
	}

	rec := &domain.StatusRecord{
		SignupID:  su.ID,
		Status:    domain.StatusUserCancelled,
		CreatedBy: userID,
		Note:      reason,
	}
	if err := s.statusRepo.Append(ctx, rec); err != nil {
		return err
	}

	if err := s.calendarSvc.RemoveSessionEntry(ctx, sess, userID); err != nil {
		logger.Error("calendar sync failed", "session_id", sess.ID, "user_id", userID, "error", err)
	}

	if err := s.reconcile(ctx, sess, activity); err != nil {
		return err
	}

	if notify {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			logger.Error("cancellation notice skipped", "user_id", userID, "error", err)
			return nil
		}
		if err := s.emailSvc.SendCancellationNotice(ctx, user, activity, sess, reason, su.NotificationType|domain.NotifyCancel); err != nil {
			logger.Error("cancellation notice failed", "session_id", sess.ID, "user_id", userID, "error", err)
		}
	}
	return nil
}

func (s *bookingService) Approve(ctx context.Context, sessionID, signupID, actorID int64) (*SignupResult, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	activity, err := s.activityRepo.GetByID(ctx, sess.ActivityID)
	if err != nil {
		return nil, err
	}
	su, err := s.signupRepo.GetByID(ctx, signupID)
	if err != nil {
		return nil, err
	}
	if su.SessionID != sessionID {
		return nil, &domain.ValidationError{Field: "signup_id", Reason: "not a signup of this session"}
	}

	rec := &domain.StatusRecord{SignupID: su.ID, Status: domain.StatusApproved, CreatedBy: actorID}
	if err := s.statusRepo.Append(ctx, rec); err != nil {
		return nil, err
	}

	// Place the approved registrant with whatever capacity is left now.
	// A full session without overbook leaves them APPROVED and reports
	// the condition to the operator.
	requested, err := s.entryStatus(ctx, sess)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, su.UserID)
	if err != nil {
		return nil, err
	}
	discount := ""
	if su.DiscountCode != nil {
		discount = *su.DiscountCode
	}
	return s.signUp(ctx, sess, activity, user, discount, su.NotificationType, requested, actorID)
}

func (s *bookingService) Decline(ctx context.Context, sessionID, signupID, actorID int64) error {
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
	su, err := s.signupRepo.GetByID(ctx, signupID)
	if err != nil {
		return err
	}
	if su.SessionID != sessionID {
		return &domain.ValidationError{Field: "signup_id", Reason: "not a signup of this session"}
	}

	rec := &domain.StatusRecord{SignupID: su.ID, Status: domain.StatusDeclined, CreatedBy: actorID}
	if err := s.statusRepo.Append(ctx, rec); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, su.UserID)
	if err != nil {
		logger.Error("decline notice skipped", "user_id", su.UserID, "error", err)
		return nil
	}
	if err := s.emailSvc.SendCancellationNotice(ctx, user, activity, sess, "", su.NotificationType|domain.NotifyCancel); err != nil {
		logger.Error("decline notice failed", "session_id", sess.ID, "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *bookingService) CreateSession(ctx context.Context, session *domain.Session) error {
	session.Capacity = domain.ClampCapacity(session.Capacity)
	if err := session.Validate(); err != nil {
		return err
	}
	return s.sessionRepo.Create(ctx, session)
}

// UpdateSession persists a capacity/date edit and rebalances the roster
// against the new values.
func (s *bookingService) UpdateSession(ctx context.Context, session *domain.Session) error {
	unlock := s.locks.Lock(session.ID)
	defer unlock()

	session.Capacity = domain.ClampCapacity(session.Capacity)
	if err := session.Validate(); err != nil {
		return err
	}
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return err
	}
	activity, err := s.activityRepo.GetByID(ctx, session.ActivityID)
	if err != nil {
		return err
	}
	return s.reconcile(ctx, session, activity)
}

// DeleteSession force-cancels all active signups in one transaction,
// notifies the registrants, then removes the session with its signups
// and status records. A failed cancellation batch aborts the deletion
// untouched; a failed notice does not.
func (s *bookingService) DeleteSession(ctx context.Context, sessionID, actorID int64) error {
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
	active, err := s.signupRepo.ActiveSignups(ctx, sessionID)
	if err != nil {
		return err
	}

	if _, err := s.signupRepo.CancelAllActive(ctx, sessionID, actorID, "session cancelled"); err != nil {
		return err
	}

	for i := range active {
		a := &active[i]
		if err := s.calendarSvc.RemoveSessionEntry(ctx, sess, a.User.ID); err != nil {
			logger.Error("calendar sync failed", "session_id", sess.ID, "user_id", a.User.ID, "error", err)
		}
		nt := a.Signup.NotificationType | domain.NotifyCancel
		if err := s.emailSvc.SendCancellationNotice(ctx, &a.User, activity, sess, "session cancelled", nt); err != nil {
			logger.Error("cancellation notice failed", "session_id", sess.ID, "user_id", a.User.ID, "error", err)
		}
	}

	return s.sessionRepo.DeleteCascade(ctx, sessionID)
}

func (s *bookingService) ListAttendees(ctx context.Context, sessionID int64) ([]domain.Attendee, error) {
	return s.signupRepo.Attendees(ctx, sessionID)
}

func (s *bookingService) ListWaitlist(ctx context.Context, sessionID int64) ([]domain.Attendee, error) {
	attendees, err := s.signupRepo.Attendees(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var waitlist []domain.Attendee
	for _, a := range attendees {
		if a.Status == domain.StatusWaitlisted {
			waitlist = append(waitlist, a)
		}
	}
	return waitlist, nil
}

func (s *bookingService) ListCancellations(ctx context.Context, sessionID int64) ([]domain.Cancellation, error) {
	return s.signupRepo.Cancellations(ctx, sessionID)
}

func (s *bookingService) ListRequests(ctx context.Context, sessionID int64) ([]domain.Request, error) {
	return s.signupRepo.Requests(ctx, sessionID)
}

func (s *bookingService) ListDeclined(ctx context.Context, sessionID int64) ([]domain.Request, error) {
	return s.signupRepo.Declined(ctx, sessionID)
}

func (s *bookingService) UserBookings(ctx context.Context, activityID, userID int64, includeCancelled bool) ([]domain.UserBooking, error) {
	return s.signupRepo.UserBookings(ctx, activityID, userID, includeCancelled)
}

func (s *bookingService) StatusHistory(ctx context.Context, signupID int64) ([]domain.StatusRecord, error) {
	return s.statusRepo.History(ctx, signupID)
}
