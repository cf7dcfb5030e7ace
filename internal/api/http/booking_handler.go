package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"bookingdesk-backend/internal/domain"
	"bookingdesk-backend/internal/service"
)

// BookingHandler exposes the booking workflows over JSON.
type BookingHandler struct {
	bookings   service.BookingService
	attendance service.AttendanceService
}

func NewBookingHandler(bookings service.BookingService, attendance service.AttendanceService) *BookingHandler {
	return &BookingHandler{
		bookings:   bookings,
		attendance: attendance,
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return id, nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "invalid JSON"}
	}
	return nil
}

type sessionRequest struct {
	ActivityID         int64  `json:"activity_id"`
	Capacity           int32  `json:"capacity"`
	DatesKnown         bool   `json:"dates_known"`
	AllowOverbook      bool   `json:"allow_overbook"`
	AllowCancellations bool   `json:"allow_cancellations"`
	Details            string `json:"details"`
	Dates              []struct {
		Start  string `json:"start"`
		Finish string `json:"finish"`
	} `json:"dates"`
}

func (req *sessionRequest) toDomain() (*domain.Session, error) {
	sess := &domain.Session{
		ActivityID:         req.ActivityID,
		Capacity:           req.Capacity,
		DatesKnown:         req.DatesKnown,
		AllowOverbook:      req.AllowOverbook,
		AllowCancellations: req.AllowCancellations,
		Details:            req.Details,
	}
	for _, d := range req.Dates {
		sd, err := parseDate(d.Start, d.Finish)
		if err != nil {
			return nil, err
		}
		sess.Dates = append(sess.Dates, sd)
	}
	return sess, nil
}

func (h *BookingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, err := req.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.bookings.CreateSession(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *BookingHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, err := req.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}
	sess.ID = sessionID
	if err := h.bookings.UpdateSession(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *BookingHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	actorID := actorFrom(r)
	if err := h.bookings.DeleteSession(r.Context(), sessionID, actorID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type signupRequest struct {
	UserID           int64  `json:"user_id"`
	DiscountCode     string `json:"discount_code"`
	NotificationType int32  `json:"notification_type"`
}

func (h *BookingHandler) Signup(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.bookings.Signup(r.Context(), sessionID, req.UserID,
		req.DiscountCode, domain.NotificationType(req.NotificationType))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, signupResponse(result))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req cancelRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := h.bookings.Cancel(r.Context(), sessionID, userID, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	signupID, err := pathID(r, "signup_id")
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.bookings.Approve(r.Context(), sessionID, signupID, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signupResponse(result))
}

func (h *BookingHandler) Decline(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	signupID, err := pathID(r, "signup_id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.bookings.Decline(r.Context(), sessionID, signupID, actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *BookingHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.bookings.ReconcileCapacity(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *BookingHandler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	h.listAttendeeLike(w, r, h.bookings.ListAttendees)
}

func (h *BookingHandler) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	h.listAttendeeLike(w, r, h.bookings.ListWaitlist)
}

func (h *BookingHandler) ListCancellations(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.bookings.ListCancellations(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *BookingHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequestLike(w, r, h.bookings.ListRequests)
}

func (h *BookingHandler) ListDeclined(w http.ResponseWriter, r *http.Request) {
	h.listRequestLike(w, r, h.bookings.ListDeclined)
}

func (h *BookingHandler) UserBookings(w http.ResponseWriter, r *http.Request) {
	activityID, err := pathID(r, "activity_id")
	if err != nil {
		writeError(w, err)
		return
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, err)
		return
	}
	includeCancelled := r.URL.Query().Get("include_cancelled") == "true"
	rows, err := h.bookings.UserBookings(r.Context(), activityID, userID, includeCancelled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *BookingHandler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	signupID, err := pathID(r, "signup_id")
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.bookings.StatusHistory(r.Context(), signupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type attendanceRequest struct {
	Marks map[string]int32 `json:"marks"` // signup id -> status code
}

func (h *BookingHandler) TakeAttendance(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req attendanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	marks := make(map[int64]domain.Status, len(req.Marks))
	for key, code := range req.Marks {
		signupID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "marks", Reason: "keys must be signup ids"})
			return
		}
		marks[signupID] = domain.Status(code)
	}

	if err := h.attendance.TakeAttendance(r.Context(), sessionID, marks, actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *BookingHandler) listAttendeeLike(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, sessionID int64) ([]domain.Attendee, error)) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := list(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *BookingHandler) listRequestLike(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, sessionID int64) ([]domain.Request, error)) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := list(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// actorFrom resolves the acting user from the X-User-ID header set by the
// authenticating proxy. Zero when absent.
func actorFrom(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	return id
}

func parseDate(start, finish string) (domain.SessionDate, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return domain.SessionDate{}, &domain.ValidationError{Field: "dates", Reason: "start must be RFC 3339"}
	}
	f, err := time.Parse(time.RFC3339, finish)
	if err != nil {
		return domain.SessionDate{}, &domain.ValidationError{Field: "dates", Reason: "finish must be RFC 3339"}
	}
	return domain.SessionDate{Start: s, Finish: f}, nil
}

type signupPayload struct {
	Signup          *domain.Signup `json:"signup"`
	Status          domain.Status  `json:"status"`
	StatusName      string         `json:"status_name"`
	NotificationErr string         `json:"notification_error,omitempty"`
}

func signupResponse(result *service.SignupResult) signupPayload {
	payload := signupPayload{
		Signup:     result.Signup,
		Status:     result.Status,
		StatusName: result.Status.String(),
	}
	if result.NotificationErr != nil {
		payload.NotificationErr = result.NotificationErr.Error()
	}
	return payload
}

// RegisterRoutes attaches the booking endpoints to the router.
func (h *BookingHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/sessions", h.CreateSession).Methods("POST")
	api.HandleFunc("/sessions/{session_id}", h.UpdateSession).Methods("PUT")
	api.HandleFunc("/sessions/{session_id}", h.DeleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{session_id}/reconcile", h.Reconcile).Methods("POST")

	api.HandleFunc("/sessions/{session_id}/signups", h.Signup).Methods("POST")
	api.HandleFunc("/sessions/{session_id}/signups/{user_id}", h.Cancel).Methods("DELETE")
	api.HandleFunc("/sessions/{session_id}/signups/{signup_id}/approve", h.Approve).Methods("POST")
	api.HandleFunc("/sessions/{session_id}/signups/{signup_id}/decline", h.Decline).Methods("POST")

	api.HandleFunc("/sessions/{session_id}/attendees", h.ListAttendees).Methods("GET")
	api.HandleFunc("/sessions/{session_id}/waitlist", h.ListWaitlist).Methods("GET")
	api.HandleFunc("/sessions/{session_id}/cancellations", h.ListCancellations).Methods("GET")
	api.HandleFunc("/sessions/{session_id}/requests", h.ListRequests).Methods("GET")
	api.HandleFunc("/sessions/{session_id}/declined", h.ListDeclined).Methods("GET")
	api.HandleFunc("/sessions/{session_id}/attendance", h.TakeAttendance).Methods("POST")

	api.HandleFunc("/activities/{activity_id}/users/{user_id}/bookings", h.UserBookings).Methods("GET")
	api.HandleFunc("/signups/{signup_id}/history", h.StatusHistory).Methods("GET")
}
