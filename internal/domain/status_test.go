package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOrdering(t *testing.T) {
	// Workflow checks rely on >= comparisons against the cutoffs.
	assert.True(t, StatusRequested >= StatusActiveCutoff)
	assert.True(t, StatusBooked >= StatusRosterCutoff)
	assert.True(t, StatusWaitlisted >= StatusRosterCutoff)
	assert.False(t, StatusDeclined >= StatusActiveCutoff)
	assert.False(t, StatusUserCancelled >= StatusActiveCutoff)
	assert.False(t, StatusRequested >= StatusRosterCutoff)
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusBooked.Valid())
	assert.True(t, StatusUserCancelled.Valid())
	assert.False(t, Status(0).Valid())
	assert.False(t, Status(55).Valid())
}

func TestStatusIsAttendance(t *testing.T) {
	assert.True(t, StatusNoShow.IsAttendance())
	assert.True(t, StatusPartiallyAttended.IsAttendance())
	assert.True(t, StatusFullyAttended.IsAttendance())
	assert.False(t, StatusBooked.IsAttendance())
}

func TestAttendanceGrade(t *testing.T) {
	grade, ok := AttendanceGrade(StatusNoShow)
	assert.True(t, ok)
	assert.Equal(t, float64(0), grade)

	grade, ok = AttendanceGrade(StatusPartiallyAttended)
	assert.True(t, ok)
	assert.Equal(t, float64(50), grade)

	grade, ok = AttendanceGrade(StatusFullyAttended)
	assert.True(t, ok)
	assert.Equal(t, float64(100), grade)

	_, ok = AttendanceGrade(StatusBooked)
	assert.False(t, ok)
}

func TestNotificationTypeNormalize(t *testing.T) {
	assert.Equal(t, NotifyText, NotificationType(0).Normalize())
	assert.Equal(t, NotifyICal, NotifyICal.Normalize())
	assert.Equal(t, NotifyBoth, NotifyBoth.Normalize())
	// A bare modifier still gets a delivery channel.
	assert.Equal(t, NotifyCancel|NotifyText, NotifyCancel.Normalize())
}
