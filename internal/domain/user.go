package domain

type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ManagerEmail string `json:"manager_email,omitempty"`
	// Trainer marks users with session-editing capability; their bookings
	// get an extra attendee annotation on the calendar entry.
	Trainer bool `json:"trainer"`
}
