package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"bookingdesk-backend/internal/domain"
)

// MockSessionRepo
type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
func (m *MockSessionRepo) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}
func (m *MockSessionRepo) Update(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
func (m *MockSessionRepo) DeleteCascade(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockSessionRepo) ListByActivity(ctx context.Context, activityID int64) ([]domain.Session, error) {
	args := m.Called(ctx, activityID)
	return args.Get(0).([]domain.Session), args.Error(1)
}
func (m *MockSessionRepo) ListUpcoming(ctx context.Context, activityID int64, after time.Time) ([]domain.Session, error) {
	args := m.Called(ctx, activityID, after)
	return args.Get(0).([]domain.Session), args.Error(1)
}

// MockActivityRepo
type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Create(ctx context.Context, activity *domain.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}
func (m *MockActivityRepo) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Activity), args.Error(1)
}
func (m *MockActivityRepo) Update(ctx context.Context, activity *domain.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockSignupRepo
type MockSignupRepo struct {
	mock.Mock
}

func (m *MockSignupRepo) GetByID(ctx context.Context, id int64) (*domain.Signup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Signup), args.Error(1)
}
func (m *MockSignupRepo) FindBySessionAndUser(ctx context.Context, sessionID, userID int64) (*domain.Signup, error) {
	args := m.Called(ctx, sessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Signup), args.Error(1)
}
func (m *MockSignupRepo) Register(ctx context.Context, signup *domain.Signup, record *domain.StatusRecord) error {
	args := m.Called(ctx, signup, record)
	return args.Error(0)
}
func (m *MockSignupRepo) Update(ctx context.Context, signup *domain.Signup) error {
	args := m.Called(ctx, signup)
	return args.Error(0)
}
func (m *MockSignupRepo) MarkReminderMailed(ctx context.Context, signupID int64, mailedAt time.Time) error {
	args := m.Called(ctx, signupID, mailedAt)
	return args.Error(0)
}
func (m *MockSignupRepo) Attendees(ctx context.Context, sessionID int64) ([]domain.Attendee, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.Attendee), args.Error(1)
}
func (m *MockSignupRepo) ActiveSignups(ctx context.Context, sessionID int64) ([]domain.Attendee, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.Attendee), args.Error(1)
}
func (m *MockSignupRepo) CountByStatus(ctx context.Context, sessionID int64, min domain.Status) (int32, error) {
	args := m.Called(ctx, sessionID, min)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockSignupRepo) Cancellations(ctx context.Context, sessionID int64) ([]domain.Cancellation, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.Cancellation), args.Error(1)
}
func (m *MockSignupRepo) Requests(ctx context.Context, sessionID int64) ([]domain.Request, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.Request), args.Error(1)
}
func (m *MockSignupRepo) Declined(ctx context.Context, sessionID int64) ([]domain.Request, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.Request), args.Error(1)
}
func (m *MockSignupRepo) UserBookings(ctx context.Context, activityID, userID int64, includeCancelled bool) ([]domain.UserBooking, error) {
	args := m.Called(ctx, activityID, userID, includeCancelled)
	return args.Get(0).([]domain.UserBooking), args.Error(1)
}
func (m *MockSignupRepo) CancelAllActive(ctx context.Context, sessionID, actorID int64, reason string) ([]int64, error) {
	args := m.Called(ctx, sessionID, actorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockStatusRepo
type MockStatusRepo struct {
	mock.Mock
}

func (m *MockStatusRepo) Append(ctx context.Context, record *domain.StatusRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
func (m *MockStatusRepo) Current(ctx context.Context, signupID int64) (*domain.StatusRecord, error) {
	args := m.Called(ctx, signupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatusRecord), args.Error(1)
}
func (m *MockStatusRepo) History(ctx context.Context, signupID int64) ([]domain.StatusRecord, error) {
	args := m.Called(ctx, signupID)
	return args.Get(0).([]domain.StatusRecord), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendBookingConfirmation(ctx context.Context, user *domain.User, activity *domain.Activity, session *domain.Session, waitlisted bool, notify domain.NotificationType) error {
	args := m.Called(ctx, user, activity, session, waitlisted, notify)
	return args.Error(0)
}
func (m *MockEmailService) SendRequestNotice(ctx context.Context, user *domain.User, activity *domain.Activity, session *domain.Session) error {
	args := m.Called(ctx, user, activity, session)
	return args.Error(0)
}
func (m *MockEmailService) SendCancellationNotice(ctx context.Context, user *domain.User, activity *domain.Activity, session *domain.Session, reason string, notify domain.NotificationType) error {
	args := m.Called(ctx, user, activity, session, reason, notify)
	return args.Error(0)
}
func (m *MockEmailService) SendBookingReminder(ctx context.Context, user *domain.User, activity *domain.Activity, session *domain.Session) error {
	args := m.Called(ctx, user, activity, session)
	return args.Error(0)
}
func (m *MockEmailService) SendNoShowNotice(ctx context.Context, user *domain.User, activity *domain.Activity, upcoming []domain.Session) error {
	args := m.Called(ctx, user, activity, upcoming)
	return args.Error(0)
}

// MockCalendarService
type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) AddSessionEntry(ctx context.Context, session *domain.Session, activity *domain.Activity, userID int64, description string) error {
	args := m.Called(ctx, session, activity, userID, description)
	return args.Error(0)
}
func (m *MockCalendarService) RemoveSessionEntry(ctx context.Context, session *domain.Session, userID int64) error {
	args := m.Called(ctx, session, userID)
	return args.Error(0)
}

// MockGradeSink
type MockGradeSink struct {
	mock.Mock
}

func (m *MockGradeSink) PostGrade(ctx context.Context, activityID, userID int64, grade float64) error {
	args := m.Called(ctx, activityID, userID, grade)
	return args.Error(0)
}
