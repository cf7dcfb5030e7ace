package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"bookingdesk-backend/internal/domain"
)

// sendgridEmailService delivers registrant notices through SendGrid.
// Template text comes from the activity; [name], [activity] and
// [sessiondates] placeholders are substituted. iCalendar attachments are
// produced by an external builder, so only the TEXT/CANCEL bits of the
// notification type matter here.
type sendgridEmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendgridEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &sendgridEmailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendgridEmailService) send(ctx context.Context, toName, toEmail, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func substitute(template string, user *domain.User, activity *domain.Activity, session *domain.Session) string {
	out := strings.ReplaceAll(template, "[name]", user.Name)
	out = strings.ReplaceAll(out, "[activity]", activity.Name)
	var dates []string
	if session != nil {
		for _, d := range session.Dates {
			dates = append(dates, fmt.Sprintf("%s - %s",
				d.Start.Format("2 Jan 2006 15:04"), d.Finish.Format("15:04")))
		}
	}
	if len(dates) == 0 {
		dates = []string{"(dates to be announced)"}
	}
	return strings.ReplaceAll(out, "[sessiondates]", strings.Join(dates, "\n"))
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

// notice sends the notice to the user, their manager (manager copy text
// prepended) and any third-party recipients. The first delivery failure
// is returned.
func (s *sendgridEmailService) notice(ctx context.Context, user *domain.User, activity *domain.Activity,
	session *domain.Session, subject, body, managerCopy string, thirdParty bool) error {

	if err := s.send(ctx, user.Name, user.Email, subject, body); err != nil {
		return err
	}
	if managerCopy != "" && user.ManagerEmail != "" {
		copyBody := substitute(managerCopy, user, activity, session) + "\n\n" + body
		if err := s.send(ctx, user.Name, user.ManagerEmail, subject, copyBody); err != nil {
			return err
		}
	}
	if thirdParty && activity.ThirdPartyRecipients != "" {
		for _, addr := range strings.Split(activity.ThirdPartyRecipients, ",") {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			if err := s.send(ctx, "", addr, subject, body); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *sendgridEmailService) SendBookingConfirmation(ctx context.Context, user *domain.User, activity *domain.Activity,
	session *domain.Session, waitlisted bool, notify domain.NotificationType) error {

	subject := fallback(activity.ConfirmationSubject, "Booking confirmation: [activity]")
	body := fallback(activity.ConfirmationMessage, "Hello [name],\n\nYour booking for [activity] is confirmed.\n\n[sessiondates]")
	if waitlisted {
		subject = fallback(activity.WaitlistedSubject, "Waitlist notice: [activity]")
		body = fallback(activity.WaitlistedMessage, "Hello [name],\n\nYou have been added to the waitlist for [activity].")
	}
	subject = substitute(subject, user, activity, session)
	body = substitute(body, user, activity, session)

	thirdParty := !waitlisted || activity.ThirdPartyWaitlist
	return s.notice(ctx, user, activity, session, subject, body, activity.ConfirmationManagerCopy, thirdParty)
}

// SendRequestNotice delivers the approval request to the user and their
// manager. Both sends must succeed; the approval step is driven by the
// manager's copy.
func (s *sendgridEmailService) SendRequestNotice(ctx context.Context, user *domain.User, activity *domain.Activity, session *domain.Session) error {
	if user.ManagerEmail == "" {
		return domain.ErrManagerEmailRequired
	}

	subject := substitute(fallback(activity.RequestSubject, "Booking request: [activity]"), user, activity, session)
	body := substitute(fallback(activity.RequestMessage, "Hello [name],\n\nYour request to book [activity] has been sent for approval."), user, activity, session)

	if err := s.send(ctx, user.Name, user.Email, subject, body); err != nil {
		return err
	}
	managerBody := body
	if activity.RequestManagerCopy != "" {
		managerBody = substitute(activity.RequestManagerCopy, user, activity, session) + "\n\n" + body
	}
	return s.send(ctx, user.Name, user.ManagerEmail, subject, managerBody)
}

func (s *sendgridEmailService) SendCancellationNotice(ctx context.Context, user *domain.User, activity *domain.Activity,
	session *domain.Session, reason string, notify domain.NotificationType) error {

	subject := substitute(fallback(activity.CancellationSubject, "Booking cancelled: [activity]"), user, activity, session)
	body := substitute(fallback(activity.CancellationMessage, "Hello [name],\n\nYour booking for [activity] has been cancelled."), user, activity, session)
	if reason != "" {
		body += "\n\nReason: " + reason
	}
	return s.notice(ctx, user, activity, session, subject, body, activity.CancellationManagerCopy, activity.ThirdPartyWaitlist)
}

func (s *sendgridEmailService) SendBookingReminder(ctx context.Context, user *domain.User, activity *domain.Activity, session *domain.Session) error {
	subject := substitute(fallback(activity.ReminderSubject, "Reminder: [activity]"), user, activity, session)
	body := substitute(fallback(activity.ReminderMessage, "Hello [name],\n\nThis is a reminder of your upcoming booking for [activity].\n\n[sessiondates]"), user, activity, session)
	return s.notice(ctx, user, activity, session, subject, body, activity.ReminderManagerCopy, false)
}

func (s *sendgridEmailService) SendNoShowNotice(ctx context.Context, user *domain.User, activity *domain.Activity, upcoming []domain.Session) error {
	subject := substitute("Missed session: [activity]", user, activity, nil)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nYou missed your booked session for %s.", user.Name, activity.Name)
	if len(upcoming) > 0 {
		b.WriteString(" The next available sessions are:\n\n")
		for _, sess := range upcoming {
			for _, d := range sess.Dates {
				fmt.Fprintf(&b, "%s - %s\n", d.Start.Format("2 Jan 2006 15:04"), d.Finish.Format("15:04"))
			}
		}
	}
	return s.send(ctx, user.Name, user.Email, subject, b.String())
}
