package model

import "time"

type LessonStatus string

const (
	LessonStatusPending   LessonStatus = "pending"   // waiting for admin review
	LessonStatusApproved  LessonStatus = "approved"  // counted towards billing
	LessonStatusRejected  LessonStatus = "rejected"  // declined by admin
	LessonStatusCompleted LessonStatus = "completed" // marked done by the teacher
	LessonStatusCancelled LessonStatus = "cancelled" // soft delete
)

// AllLessonStatuses lists every valid status, in lifecycle order.
var AllLessonStatuses = []LessonStatus{
	LessonStatusPending,
	LessonStatusApproved,
	LessonStatusRejected,
	LessonStatusCompleted,
	LessonStatusCancelled,
}

func (s LessonStatus) Valid() bool {
	switch s {
	case LessonStatusPending, LessonStatusApproved, LessonStatusRejected,
		LessonStatusCompleted, LessonStatusCancelled:
		return true
	}
	return false
}

// lessonTransitions is the full transition table. Anything not listed here
// is an invalid transition; pending is the only non-terminal state.
var lessonTransitions = map[LessonStatus][]LessonStatus{
	LessonStatusPending: {
		LessonStatusApproved,
		LessonStatusRejected,
		LessonStatusCompleted,
		LessonStatusCancelled,
	},
	LessonStatusApproved:  {},
	LessonStatusRejected:  {},
	LessonStatusCompleted: {},
	LessonStatusCancelled: {},
}

// CanTransition reports whether the status change from -> to is allowed.
func CanTransition(from, to LessonStatus) bool {
	for _, next := range lessonTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type LessonType string

const (
	LessonTypeIndividual LessonType = "individual"
	LessonTypeGroup      LessonType = "group"
)

func (t LessonType) Valid() bool {
	return t == LessonTypeIndividual || t == LessonTypeGroup
}

// Participant is a student entry attached to a lesson. StudentID is filled in
// at creation time when the name resolves to exactly one active student; the
// name itself stays authoritative for legacy matching.
type Participant struct {
	StudentName string `json:"student_name" validate:"required"`
	StudentID   string `json:"student_id,omitempty"`
	Contact     string `json:"contact,omitempty"`
}

type Lesson struct {
	ID             string         `json:"id"`
	TeacherID      string         `json:"teacher_id"`
	TeacherName    string         `json:"teacher_name"`
	Subject        string         `json:"subject"`
	EducationLevel EducationLevel `json:"education_level"`
	LessonType     LessonType     `json:"lesson_type"`
	ScheduledAt    time.Time      `json:"scheduled_at"`
	DurationMin    int            `json:"duration_minutes"`
	MaxStudents    *int           `json:"max_students,omitempty"`
	Status         LessonStatus   `json:"status"`
	Participants   []Participant  `json:"participants"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// Hours returns the lesson duration in hours, rounded to 2 decimals.
func (l *Lesson) Hours() float64 {
	return Round2(float64(l.DurationMin) / 60)
}

// CanMutate reports whether lesson fields may still be edited.
func (l *Lesson) CanMutate() bool {
	return l.Status == LessonStatusPending
}

func (l *Lesson) IsOwnedBy(teacherID string) bool {
	return l.TeacherID == teacherID
}
