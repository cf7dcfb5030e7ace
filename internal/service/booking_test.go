package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/service"
)

type bookingFixture struct {
	sessions   *MockSessionRepo
	activities *MockActivityRepo
	signups    *MockSignupRepo
	statuses   *MockStatusRepo
	users      *MockUserRepo
	email      *MockEmailService
	calendar   *MockCalendarService
	svc        service.BookingService
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		sessions:   new(MockSessionRepo),
		activities: new(MockActivityRepo),
		signups:    new(MockSignupRepo),
		statuses:   new(MockStatusRepo),
		users:      new(MockUserRepo),
		email:      new(MockEmailService),
		calendar:   new(MockCalendarService),
	}
	f.svc = service.NewBookingService(
		f.sessions, f.activities, f.signups, f.statuses, f.users, f.email, f.calendar,
	)
	return f
}

func futureSession(id, activityID int64, capacity int32) *domain.Session {
	start := time.Now().Add(48 * time.Hour)
	return &domain.Session{
		ID:                 id,
		ActivityID:         activityID,
		Capacity:           capacity,
		DatesKnown:         true,
		AllowCancellations: true,
		Dates: []domain.SessionDate{
			{SessionID: id, Start: start, Finish: start.Add(2 * time.Hour)},
		},
	}
}

func TestBookingService_Signup_Booked(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	sess := futureSession(1, 5, 2)
	activity := &domain.Activity{ID: 5, Name: "First Aid"}
	user := &domain.User{ID: 9, Name: "Pat", Email: "pat@test.com"}

	f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
	f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
	f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
	f.signups.On("UserBookings", ctx, int64(5), int64(9), false).Return([]domain.UserBooking{}, nil)
	f.signups.On("CountByStatus", ctx, int64(1), domain.StatusBooked).Return(int32(0), nil)
	f.signups.On("FindBySessionAndUser", ctx, int64(1), int64(9)).Return(nil, nil)
	f.signups.On("Register", ctx, mock.MatchedBy(func(su *domain.Signup) bool {
		return su.SessionID == 1 && su.UserID == 9 &&
			su.DiscountCode != nil && *su.DiscountCode == "EARLY" &&
			su.NotificationType == domain.NotifyBoth
	}), mock.MatchedBy(func(rec *domain.StatusRecord) bool {
		return rec.Status == domain.StatusBooked && rec.CreatedBy == 9
	})).Return(nil)
	f.email.On("SendBookingConfirmation", ctx, user, activity, sess, false, domain.NotifyBoth).Return(nil)

	result, err := f.svc.Signup(ctx, 1, 9, " early ", domain.NotifyBoth)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusBooked, result.Status)
	assert.NoError(t, result.NotificationErr)
	f.signups.AssertExpectations(t)
	f.email.AssertExpectations(t)
}

func TestBookingService_Signup_WaitlistedWhenOverbooked(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	sess := futureSession(1, 5, 2)
	sess.AllowOverbook = true
	activity := &domain.Activity{ID: 5, Name: "First Aid"}
	user := &domain.User{ID: 9, Email: "pat@test.com"}

	f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
	f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
	f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
	f.signups.On("UserBookings", ctx, int64(5), int64(9), false).Return([]domain.UserBooking{}, nil)
	f.signups.On("CountByStatus", ctx, int64(1), domain.StatusBooked).Return(int32(2), nil)
	f.signups.On("FindBySessionAndUser", ctx, int64(1), int64(9)).Return(nil, nil)
	f.signups.On("Register", ctx, mock.Anything, mock.MatchedBy(func(rec *domain.StatusRecord) bool {
		return rec.Status == domain.StatusWaitlisted
	})).Return(nil)
	f.email.On("SendBookingConfirmation", ctx, user, activity, sess, true, domain.NotifyText).Return(nil)

	result, err := f.svc.Signup(ctx, 1, 9, "", 0)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusWaitlisted, result.Status)
	f.email.AssertExpectations(t)
}

func TestBookingService_Signup_SessionFullWritesNothing(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	sess := futureSession(1, 5, 2)
	activity := &domain.Activity{ID: 5}
	user := &domain.User{ID: 9}

	f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
	f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
	f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
	f.signups.On("UserBookings", ctx, int64(5), int64(9), false).Return([]domain.UserBooking{}, nil)
	f.signups.On("CountByStatus", ctx, int64(1), domain.StatusBooked).Return(int32(2), nil)

	_, err := f.svc.Signup(ctx, 1, 9, "", 0)
	assert.ErrorIs(t, err, domain.ErrSessionFull)
	f.signups.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
	f.statuses.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestBookingService_Signup_AlreadySignedUpOnSiblingSession(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	sess := futureSession(1, 5, 2)
	activity := &domain.Activity{ID: 5}
	user := &domain.User{ID: 9}

	f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
	f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
	f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
	f.signups.On("UserBookings", ctx, int64(5), int64(9), false).Return([]domain.UserBooking{
		{SignupID: 3, SessionID: 2, Status: domain.StatusBooked},
	}, nil)

	_, err := f.svc.Signup(ctx, 1, 9, "", 0)
	assert.ErrorIs(t, err, domain.ErrAlreadySignedUp)
	f.signups.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Signup_ApprovalRequired(t *testing.T) {
	ctx := context.Background()

	t.Run("requested with manager", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		activity := &domain.Activity{ID: 5, ApprovalRequired: true}
		user := &domain.User{ID: 9, Email: "pat@test.com", ManagerEmail: "boss@test.com"}

		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
		f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
		f.signups.On("UserBookings", ctx, int64(5), int64(9), false).Return([]domain.UserBooking{}, nil)
		f.signups.On("CountByStatus", ctx, int64(1), domain.StatusBooked).Return(int32(0), nil)
		f.signups.On("FindBySessionAndUser", ctx, int64(1), int64(9)).Return(nil, nil)
		f.signups.On("Register", ctx, mock.Anything, mock.MatchedBy(func(rec *domain.StatusRecord) bool {
			return rec.Status == domain.StatusRequested
		})).Return(nil)
		f.email.On("SendRequestNotice", ctx, user, activity, sess).Return(nil)

		result, err := f.svc.Signup(ctx, 1, 9, "", 0)
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusRequested, result.Status)
		f.email.AssertExpectations(t)
	})

	t.Run("missing manager email", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		activity := &domain.Activity{ID: 5, ApprovalRequired: true}
		user := &domain.User{ID: 9, Email: "pat@test.com"}

		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
		f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
		f.signups.On("UserBookings", ctx, int64(5), int64(9), false).Return([]domain.UserBooking{}, nil)
		f.signups.On("CountByStatus", ctx, int64(1), domain.StatusBooked).Return(int32(0), nil)

		_, err := f.svc.Signup(ctx, 1, 9, "", 0)
		assert.ErrorIs(t, err, domain.ErrManagerEmailRequired)
		f.signups.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("request notice failure surfaces after commit", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		activity := &domain.Activity{ID: 5, ApprovalRequired: true}
		user := &domain.User{ID: 9, Email: "pat@test.com", ManagerEmail: "boss@test.com"}

		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
		f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
		f.signups.On("UserBookings", ctx, int64(5), int64(9), false).Return([]domain.UserBooking{}, nil)
		f.signups.On("CountByStatus", ctx, int64(1), domain.StatusBooked).Return(int32(0), nil)
		f.signups.On("FindBySessionAndUser", ctx, int64(1), int64(9)).Return(nil, nil)
		f.signups.On("Register", ctx, mock.Anything, mock.Anything).Return(nil)
		f.email.On("SendRequestNotice", ctx, user, activity, sess).Return(errors.New("smtp down"))

		result, err := f.svc.Signup(ctx, 1, 9, "", 0)
		assert.Error(t, err)
		var notifErr *domain.NotificationError
		assert.ErrorAs(t, err, &notifErr)
		assert.NotNil(t, result)
		assert.Equal(t, domain.StatusRequested, result.Status)
		f.signups.AssertCalled(t, "Register", ctx, mock.Anything, mock.Anything)
	})
}

func TestBookingService_Signup_ConfirmationFailureIsNotFatal(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	sess := futureSession(1, 5, 2)
	activity := &domain.Activity{ID: 5}
	user := &domain.User{ID: 9, Email: "pat@test.com"}

	f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
	f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
	f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
	f.signups.On("UserBookings", ctx, int64(5), int64(9), false).Return([]domain.UserBooking{}, nil)
	f.signups.On("CountByStatus", ctx, int64(1), domain.StatusBooked).Return(int32(0), nil)
	f.signups.On("FindBySessionAndUser", ctx, int64(1), int64(9)).Return(nil, nil)
	f.signups.On("Register", ctx, mock.Anything, mock.Anything).Return(nil)
	f.email.On("SendBookingConfirmation", ctx, user, activity, sess, false, domain.NotifyText).Return(errors.New("smtp down"))

	result, err := f.svc.Signup(ctx, 1, 9, "", 0)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusBooked, result.Status)
	assert.Error(t, result.NotificationErr)
}

func TestBookingService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels and backfills", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		activity := &domain.Activity{ID: 5}
		user := &domain.User{ID: 9, Email: "pat@test.com"}
		su := &domain.Signup{ID: 7, SessionID: 1, UserID: 9, NotificationType: domain.NotifyText}

		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
		f.signups.On("FindBySessionAndUser", ctx, int64(1), int64(9)).Return(su, nil)
		f.statuses.On("Append", ctx, mock.MatchedBy(func(rec *domain.StatusRecord) bool {
			return rec.SignupID == 7 && rec.Status == domain.StatusUserCancelled &&
				rec.CreatedBy == 9 && rec.Note == "schedule conflict"
		})).Return(nil)
		f.calendar.On("RemoveSessionEntry", ctx, sess, int64(9)).Return(nil)
		f.signups.On("Attendees", ctx, int64(1)).Return([]domain.Attendee{}, nil)
		f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
		f.email.On("SendCancellationNotice", ctx, user, activity, sess, "schedule conflict",
			domain.NotifyText|domain.NotifyCancel).Return(nil)

		err := f.svc.Cancel(ctx, 1, 9, "schedule conflict")
		assert.NoError(t, err)
		f.statuses.AssertExpectations(t)
		f.email.AssertExpectations(t)
	})

	t.Run("missing signup is a no-op", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(&domain.Activity{ID: 5}, nil)
		f.signups.On("FindBySessionAndUser", ctx, int64(1), int64(9)).Return(nil, nil)

		err := f.svc.Cancel(ctx, 1, 9, "")
		assert.NoError(t, err)
		f.statuses.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("cancellations disabled", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		sess.AllowCancellations = false
		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(&domain.Activity{ID: 5}, nil)

		err := f.svc.Cancel(ctx, 1, 9, "")
		assert.ErrorIs(t, err, domain.ErrCancellationNotAllowed)
	})

	t.Run("session already started", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		sess.Dates[0].Start = time.Now().Add(-time.Hour)
		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(&domain.Activity{ID: 5}, nil)

		err := f.svc.Cancel(ctx, 1, 9, "")
		assert.ErrorIs(t, err, domain.ErrSessionAlreadyStarted)
	})
}

func TestBookingService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("places approved registrant", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		activity := &domain.Activity{ID: 5, ApprovalRequired: true}
		user := &domain.User{ID: 9, Email: "pat@test.com", ManagerEmail: "boss@test.com"}
		su := &domain.Signup{ID: 7, SessionID: 1, UserID: 9, NotificationType: domain.NotifyText}

		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
		f.signups.On("GetByID", ctx, int64(7)).Return(su, nil)
		f.statuses.On("Append", ctx, mock.MatchedBy(func(rec *domain.StatusRecord) bool {
			return rec.SignupID == 7 && rec.Status == domain.StatusApproved && rec.CreatedBy == 2
		})).Return(nil).Once()
		f.signups.On("CountByStatus", ctx, int64(1), domain.StatusBooked).Return(int32(0), nil)
		f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
		f.signups.On("FindBySessionAndUser", ctx, int64(1), int64(9)).Return(su, nil)
		// Re-entry sees the APPROVED record and books.
		f.statuses.On("Current", ctx, int64(7)).Return(&domain.StatusRecord{
			SignupID: 7, Status: domain.StatusApproved,
		}, nil)
		f.signups.On("Update", ctx, su).Return(nil)
		f.statuses.On("Append", ctx, mock.MatchedBy(func(rec *domain.StatusRecord) bool {
			return rec.SignupID == 7 && rec.Status == domain.StatusBooked
		})).Return(nil).Once()
		f.email.On("SendBookingConfirmation", ctx, user, activity, sess, false, domain.NotifyText).Return(nil)

		result, err := f.svc.Approve(ctx, 1, 7, 2)
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusBooked, result.Status)
		f.statuses.AssertExpectations(t)
	})

	t.Run("full session keeps approved and reports", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		activity := &domain.Activity{ID: 5, ApprovalRequired: true}
		su := &domain.Signup{ID: 7, SessionID: 1, UserID: 9}

		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
		f.signups.On("GetByID", ctx, int64(7)).Return(su, nil)
		f.statuses.On("Append", ctx, mock.MatchedBy(func(rec *domain.StatusRecord) bool {
			return rec.Status == domain.StatusApproved
		})).Return(nil).Once()
		f.signups.On("CountByStatus", ctx, int64(1), domain.StatusBooked).Return(int32(2), nil)

		_, err := f.svc.Approve(ctx, 1, 7, 2)
		assert.ErrorIs(t, err, domain.ErrSessionFull)
		f.statuses.AssertExpectations(t)
	})

	t.Run("signup of another session", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(&domain.Activity{ID: 5}, nil)
		f.signups.On("GetByID", ctx, int64(7)).Return(&domain.Signup{ID: 7, SessionID: 3}, nil)

		_, err := f.svc.Approve(ctx, 1, 7, 2)
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestBookingService_Decline(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	sess := futureSession(1, 5, 2)
	activity := &domain.Activity{ID: 5, ApprovalRequired: true}
	user := &domain.User{ID: 9, Email: "pat@test.com"}
	su := &domain.Signup{ID: 7, SessionID: 1, UserID: 9, NotificationType: domain.NotifyText}

	f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
	f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
	f.signups.On("GetByID", ctx, int64(7)).Return(su, nil)
	f.statuses.On("Append", ctx, mock.MatchedBy(func(rec *domain.StatusRecord) bool {
		return rec.SignupID == 7 && rec.Status == domain.StatusDeclined && rec.CreatedBy == 2
	})).Return(nil)
	f.users.On("GetByID", ctx, int64(9)).Return(user, nil)
	f.email.On("SendCancellationNotice", ctx, user, activity, sess, "",
		domain.NotifyText|domain.NotifyCancel).Return(nil)

	err := f.svc.Decline(ctx, 1, 7, 2)
	assert.NoError(t, err)
	// A declined request never held a seat, so no rebalance runs.
	f.signups.AssertNotCalled(t, "Attendees", mock.Anything, mock.Anything)
	f.statuses.AssertExpectations(t)
}

func TestBookingService_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps capacity", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(0, 5, 1)
		sess.Capacity = 9999999
		f.sessions.On("Create", ctx, mock.MatchedBy(func(s *domain.Session) bool {
			return s.Capacity == domain.MaxCapacity
		})).Return(nil)

		err := f.svc.CreateSession(ctx, sess)
		assert.NoError(t, err)
		f.sessions.AssertExpectations(t)
	})

	t.Run("rejects known dates without dates", func(t *testing.T) {
		f := newBookingFixture()
		sess := &domain.Session{ActivityID: 5, Capacity: 10, DatesKnown: true}

		err := f.svc.CreateSession(ctx, sess)
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestBookingService_UpdateSession_Rebalances(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	sess := futureSession(1, 5, 2)
	activity := &domain.Activity{ID: 5}

	f.sessions.On("Update", ctx, sess).Return(nil)
	f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
	f.signups.On("Attendees", ctx, int64(1)).Return([]domain.Attendee{}, nil)

	err := f.svc.UpdateSession(ctx, sess)
	assert.NoError(t, err)
	f.signups.AssertCalled(t, "Attendees", ctx, int64(1))
}

func TestBookingService_DeleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels, notifies, deletes", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		activity := &domain.Activity{ID: 5}
		active := []domain.Attendee{
			{
				User:   domain.User{ID: 9, Email: "pat@test.com"},
				Signup: domain.Signup{ID: 7, SessionID: 1, UserID: 9, NotificationType: domain.NotifyText},
				Status: domain.StatusBooked,
			},
		}

		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(activity, nil)
		f.signups.On("ActiveSignups", ctx, int64(1)).Return(active, nil)
		f.signups.On("CancelAllActive", ctx, int64(1), int64(2), "session cancelled").Return([]int64{7}, nil)
		f.calendar.On("RemoveSessionEntry", ctx, sess, int64(9)).Return(nil)
		f.email.On("SendCancellationNotice", ctx, &active[0].User, activity, sess, "session cancelled",
			domain.NotifyText|domain.NotifyCancel).Return(nil)
		f.sessions.On("DeleteCascade", ctx, int64(1)).Return(nil)

		err := f.svc.DeleteSession(ctx, 1, 2)
		assert.NoError(t, err)
		f.sessions.AssertExpectations(t)
		f.email.AssertExpectations(t)
	})

	t.Run("failed cancellation batch aborts the deletion", func(t *testing.T) {
		f := newBookingFixture()
		sess := futureSession(1, 5, 2)
		f.sessions.On("GetByID", ctx, int64(1)).Return(sess, nil)
		f.activities.On("GetByID", ctx, int64(5)).Return(&domain.Activity{ID: 5}, nil)
		f.signups.On("ActiveSignups", ctx, int64(1)).Return([]domain.Attendee{}, nil)
		f.signups.On("CancelAllActive", ctx, int64(1), int64(2), "session cancelled").
			Return(nil, errors.New("tx failed"))

		err := f.svc.DeleteSession(ctx, 1, 2)
		assert.Error(t, err)
		f.sessions.AssertNotCalled(t, "DeleteCascade", mock.Anything, mock.Anything)
	})
}
