package service

import (
	"context"
	"sort"
	"time"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/logger"
	"bookingdesk-backend/internal/repository"
)

type attendanceService struct {
	sessionRepo  repository.SessionRepository
	activityRepo repository.ActivityRepository
	signupRepo   repository.SignupRepository
	statusRepo   repository.StatusHistoryRepository
	emailSvc     EmailService
	gradeSink    GradeSink
}

func NewAttendanceService(
	sessionRepo repository.SessionRepository,
	activityRepo repository.ActivityRepository,
	signupRepo repository.SignupRepository,
	statusRepo repository.StatusHistoryRepository,
	emailSvc EmailService,
	gradeSink GradeSink,
) AttendanceService {
	return &attendanceService{
		sessionRepo:  sessionRepo,
		activityRepo: activityRepo,
		signupRepo:   signupRepo,
		statusRepo:   statusRepo,
		emailSvc:     emailSvc,
		gradeSink:    gradeSink,
	}
}

// TakeAttendance records the given marks against the session roster.
// Marks commit one at a time, in signup id order: a failure mid-batch
// leaves the earlier marks of the same call in place. Roster entries
// absent from marks are left untouched.
func (s *attendanceService) TakeAttendance(ctx context.Context, sessionID int64, marks map[int64]domain.Status, actorID int64) error {
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.DatesKnown && !sess.HasStarted(time.Now()) {
		return domain.ErrSessionNotStarted
	}
	activity, err := s.activityRepo.GetByID(ctx, sess.ActivityID)
	if err != nil {
		return err
	}

	attendees, err := s.signupRepo.Attendees(ctx, sessionID)
	if err != nil {
		return err
	}
	roster := make(map[int64]*domain.Attendee, len(attendees))
	for i := range attendees {
		roster[attendees[i].Signup.ID] = &attendees[i]
	}

	signupIDs := make([]int64, 0, len(marks))
	for id := range marks {
		signupIDs = append(signupIDs, id)
	}
	sort.Slice(signupIDs, func(i, j int) bool { return signupIDs[i] < signupIDs[j] })

	for _, signupID := range signupIDs {
		mark := marks[signupID]
		grade, ok := domain.AttendanceGrade(mark)
		if !ok {
			return &domain.ValidationError{Field: "marks", Reason: "status is not an attendance outcome"}
		}
		attendee, ok := roster[signupID]
		if !ok {
			return &domain.ValidationError{Field: "marks", Reason: "signup is not on the session roster"}
		}

		rec := &domain.StatusRecord{
			SignupID:  signupID,
			Status:    mark,
			CreatedBy: actorID,
			Grade:     &grade,
		}
		if err := s.statusRepo.Append(ctx, rec); err != nil {
			return err
		}
		if err := s.gradeSink.PostGrade(ctx, activity.ID, attendee.User.ID, grade); err != nil {
			return err
		}

		if mark == domain.StatusNoShow {
			s.sendNoShowNotice(ctx, activity, &attendee.User)
		}
	}
	return nil
}

// sendNoShowNotice mails the registrant the upcoming sessions they can
// rebook onto. Best effort.
func (s *attendanceService) sendNoShowNotice(ctx context.Context, activity *domain.Activity, user *domain.User) {
	upcoming, err := s.sessionRepo.ListUpcoming(ctx, activity.ID, time.Now())
	if err != nil {
		logger.Error("no-show notice skipped", "user_id", user.ID, "error", err)
		return
	}
	if err := s.emailSvc.SendNoShowNotice(ctx, user, activity, upcoming); err != nil {
		logger.Error("no-show notice failed", "user_id", user.ID, "error", err)
	}
}
