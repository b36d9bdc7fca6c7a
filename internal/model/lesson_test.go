package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	for _, to := range []LessonStatus{
		LessonStatusApproved,
		LessonStatusRejected,
		LessonStatusCompleted,
		LessonStatusCancelled,
	} {
		assert.True(t, CanTransition(LessonStatusPending, to), "pending -> %s", to)
	}

	// Every non-pending status is terminal, including re-issuing the same
	// status.
	terminal := []LessonStatus{
		LessonStatusApproved,
		LessonStatusRejected,
		LessonStatusCompleted,
		LessonStatusCancelled,
	}
	for _, from := range terminal {
		for _, to := range AllLessonStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransition(LessonStatusPending, LessonStatusPending))
}

func TestLessonHours(t *testing.T) {
	tests := []struct {
		minutes int
		hours   float64
	}{
		{60, 1},
		{90, 1.5},
		{45, 0.75},
		{50, 0.83},
		{100, 1.67},
		{0, 0},
	}
	for _, tt := range tests {
		lesson := Lesson{DurationMin: tt.minutes}
		assert.Equal(t, tt.hours, lesson.Hours(), "%d minutes", tt.minutes)
	}
}

func TestLessonCanMutate(t *testing.T) {
	lesson := Lesson{Status: LessonStatusPending}
	assert.True(t, lesson.CanMutate())

	for _, status := range []LessonStatus{
		LessonStatusApproved, LessonStatusRejected,
		LessonStatusCompleted, LessonStatusCancelled,
	} {
		lesson.Status = status
		assert.False(t, lesson.CanMutate(), string(status))
	}
}
