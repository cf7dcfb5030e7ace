package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bookingdesk-backend/internal/domain"
)

func TestSubstitute(t *testing.T) {
	user := &domain.User{Name: "Pat"}
	activity := &domain.Activity{Name: "First Aid"}
	start := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	session := &domain.Session{Dates: []domain.SessionDate{
		{Start: start, Finish: start.Add(3 * time.Hour)},
	}}

	out := substitute("Hello [name], [activity] runs:\n[sessiondates]", user, activity, session)
	assert.Contains(t, out, "Hello Pat")
	assert.Contains(t, out, "First Aid runs:")
	assert.Contains(t, out, "14 Sep 2026 09:00 - 12:00")
}

func TestSubstitute_NoDates(t *testing.T) {
	user := &domain.User{Name: "Pat"}
	activity := &domain.Activity{Name: "First Aid"}

	out := substitute("[sessiondates]", user, activity, nil)
	assert.Equal(t, "(dates to be announced)", out)

	out = substitute("[sessiondates]", user, activity, &domain.Session{})
	assert.Equal(t, "(dates to be announced)", out)
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "custom", fallback("custom", "default"))
	assert.Equal(t, "default", fallback("", "default"))
}
