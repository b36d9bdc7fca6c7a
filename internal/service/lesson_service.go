package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LessonService struct {
	lessons  LessonStore
	students StudentStore
	users    UserStore
	logger   *zap.Logger
}

func NewLessonService(lessons LessonStore, students StudentStore, users UserStore, logger *zap.Logger) *LessonService {
	return &LessonService{
		lessons:  lessons,
		students: students,
		users:    users,
		logger:   logger,
	}
}

type ParticipantInput struct {
	StudentName string `validate:"required"`
	Contact     string
}

type SubmitLessonInput struct {
	Subject        string `validate:"required"`
	EducationLevel string `validate:"required"`
	LessonType     string `validate:"required"`
	ScheduledAt    time.Time
	DurationMin    int `validate:"gt=0"`
	MaxStudents    *int
	Participants   []ParticipantInput `validate:"min=1,dive"`
}

// Submit registers a new lesson for the acting teacher. The lesson always
// starts out pending; approval is a separate admin step.
func (s *LessonService) Submit(ctx context.Context, actor model.Actor, input SubmitLessonInput) (*model.Lesson, error) {
	if !actor.IsTeacher() {
		return nil, &model.ForbiddenError{Action: "submit lesson", Reason: "teacher account required"}
	}
	if err := checkInput(input); err != nil {
		return nil, err
	}
	level, lessonType, err := parseLessonKind(input.EducationLevel, input.LessonType)
	if err != nil {
		return nil, err
	}
	if input.ScheduledAt.IsZero() {
		return nil, &model.ValidationError{Field: "scheduled_at", Reason: "required"}
	}

	teacher, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, &model.NotFoundError{Entity: "user", ID: actor.UserID}
	}

	participants, err := s.resolveParticipants(ctx, input.Participants)
	if err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		ID:             uuid.NewString(),
		TeacherID:      teacher.ID,
		TeacherName:    teacher.FullName(),
		Subject:        model.NormalizeSubject(input.Subject),
		EducationLevel: level,
		LessonType:     lessonType,
		ScheduledAt:    input.ScheduledAt,
		DurationMin:    input.DurationMin,
		MaxStudents:    input.MaxStudents,
		Status:         model.LessonStatusPending,
		Participants:   participants,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, err
	}

	s.logger.Info("Lesson submitted",
		zap.String("lesson_id", lesson.ID),
		zap.String("teacher_id", lesson.TeacherID),
		zap.String("subject", lesson.Subject))

	return lesson, nil
}

type UpdateLessonInput struct {
	Subject        *string
	EducationLevel *string
	LessonType     *string
	ScheduledAt    *time.Time
	DurationMin    *int `validate:"omitempty,gt=0"`
	MaxStudents    *int
	Participants   []ParticipantInput `validate:"omitempty,min=1,dive"`
}

// Update edits mutable fields of a lesson. Only the owning teacher may edit,
// and only while the lesson is still pending.
func (s *LessonService) Update(ctx context.Context, actor model.Actor, id string, input UpdateLessonInput) (*model.Lesson, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}
	lesson, err := s.ownedLesson(ctx, actor, id, "update lesson")
	if err != nil {
		return nil, err
	}
	if !lesson.CanMutate() {
		return nil, &model.InvalidStateError{
			Entity:  "lesson",
			ID:      id,
			Current: string(lesson.Status),
			Action:  "update",
		}
	}

	if input.Subject != nil {
		lesson.Subject = model.NormalizeSubject(*input.Subject)
	}
	if input.EducationLevel != nil {
		level, ok := model.ParseLevel(*input.EducationLevel)
		if !ok {
			return nil, &model.ValidationError{Field: "education_level", Reason: "unknown level " + *input.EducationLevel}
		}
		lesson.EducationLevel = level
	}
	if input.LessonType != nil {
		lessonType := model.LessonType(*input.LessonType)
		if !lessonType.Valid() {
			return nil, &model.ValidationError{Field: "lesson_type", Reason: "unknown type " + *input.LessonType}
		}
		lesson.LessonType = lessonType
	}
	if input.ScheduledAt != nil {
		lesson.ScheduledAt = *input.ScheduledAt
	}
	if input.DurationMin != nil {
		lesson.DurationMin = *input.DurationMin
	}
	if input.MaxStudents != nil {
		lesson.MaxStudents = input.MaxStudents
	}
	if input.Participants != nil {
		participants, err := s.resolveParticipants(ctx, input.Participants)
		if err != nil {
			return nil, err
		}
		lesson.Participants = participants
	}

	if err := s.lessons.UpdateDetails(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// Approve moves a pending lesson into the approved state. Admin only.
func (s *LessonService) Approve(ctx context.Context, actor model.Actor, id string) error {
	return s.adminTransition(ctx, actor, id, model.LessonStatusApproved)
}

// Reject declines a pending lesson. Admin only.
func (s *LessonService) Reject(ctx context.Context, actor model.Actor, id string) error {
	return s.adminTransition(ctx, actor, id, model.LessonStatusRejected)
}

// Complete marks a pending lesson as held and stamps completed_at.
func (s *LessonService) Complete(ctx context.Context, actor model.Actor, id string) error {
	lesson, err := s.ownedLesson(ctx, actor, id, "complete lesson")
	if err != nil {
		return err
	}
	if !model.CanTransition(lesson.Status, model.LessonStatusCompleted) {
		return &model.InvalidStateError{
			Entity:  "lesson",
			ID:      id,
			Current: string(lesson.Status),
			Action:  "complete",
		}
	}
	now := time.Now().UTC()
	if err := s.lessons.UpdateStatus(ctx, id, model.LessonStatusCompleted, &now); err != nil {
		return err
	}
	s.logger.Info("Lesson completed", zap.String("lesson_id", id))
	return nil
}

// Cancel is the soft delete for pending lessons.
func (s *LessonService) Cancel(ctx context.Context, actor model.Actor, id string) error {
	lesson, err := s.ownedLesson(ctx, actor, id, "cancel lesson")
	if err != nil {
		return err
	}
	if !model.CanTransition(lesson.Status, model.LessonStatusCancelled) {
		return &model.InvalidStateError{
			Entity:  "lesson",
			ID:      id,
			Current: string(lesson.Status),
			Action:  "cancel",
		}
	}
	if err := s.lessons.UpdateStatus(ctx, id, model.LessonStatusCancelled, nil); err != nil {
		return err
	}
	s.logger.Info("Lesson cancelled", zap.String("lesson_id", id))
	return nil
}

// Get returns a lesson visible to the actor: admins see everything, teachers
// only their own lessons.
func (s *LessonService) Get(ctx context.Context, actor model.Actor, id string) (*model.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, &model.NotFoundError{Entity: "lesson", ID: id}
	}
	if !actor.IsAdmin() && !lesson.IsOwnedBy(actor.UserID) {
		return nil, &model.ForbiddenError{Action: "view lesson", Reason: "not the lesson owner"}
	}
	return lesson, nil
}

type ListLessonsInput struct {
	Statuses        []model.LessonStatus
	LessonType      string
	ParticipantName string
	Window          model.Window
	Skip            int
	Limit           int
}

// LessonPage is a filtered lesson listing with filter-wide totals; the hour
// sums cover every matching lesson, not just the returned page.
type LessonPage struct {
	Lessons         []*model.Lesson `json:"lessons"`
	Total           int64           `json:"total"`
	TotalHours      float64         `json:"total_hours"`
	IndividualHours float64         `json:"individual_hours"`
	GroupHours      float64         `json:"group_hours"`
}

// List returns the acting teacher's own lessons.
func (s *LessonService) List(ctx context.Context, actor model.Actor, input ListLessonsInput) (*LessonPage, error) {
	return s.page(ctx, actor.UserID, input)
}

// AdminList returns lessons across all teachers. Admin only.
func (s *LessonService) AdminList(ctx context.Context, actor model.Actor, input ListLessonsInput) (*LessonPage, error) {
	if !actor.IsAdmin() {
		return nil, &model.ForbiddenError{Action: "list all lessons", Reason: "admin access required"}
	}
	return s.page(ctx, "", input)
}

func (s *LessonService) page(ctx context.Context, teacherID string, input ListLessonsInput) (*LessonPage, error) {
	filter, err := buildLessonListFilter(teacherID, input)
	if err != nil {
		return nil, err
	}

	lessons, err := s.lessons.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Totals ignore pagination on purpose.
	totals := filter
	totals.Skip, totals.Limit = 0, 0

	total, err := s.lessons.Count(ctx, totals)
	if err != nil {
		return nil, err
	}

	page := &LessonPage{Lessons: lessons, Total: total}
	for _, lessonType := range []model.LessonType{model.LessonTypeIndividual, model.LessonTypeGroup} {
		byType := totals
		byType.LessonType = lessonType
		minutes, err := s.lessons.SumDurationMinutes(ctx, byType)
		if err != nil {
			return nil, err
		}
		hours := model.Round2(float64(minutes) / 60)
		if lessonType == model.LessonTypeIndividual {
			page.IndividualHours = hours
		} else {
			page.GroupHours = hours
		}
	}
	page.TotalHours = model.Round2(page.IndividualHours + page.GroupHours)
	return page, nil
}

// LessonSummaryRow aggregates one (subject, type) pair of a teacher's lessons.
type LessonSummaryRow struct {
	Subject    string                       `json:"subject"`
	LessonType model.LessonType             `json:"lesson_type"`
	ByStatus   map[model.LessonStatus]int64 `json:"by_status"`
	Total      int64                        `json:"total"`
	Hours      float64                      `json:"hours"`
}

// TeacherSummary rolls the acting teacher's lessons up by subject and type,
// with per-status counts. Rows are sorted by subject, then type.
func (s *LessonService) TeacherSummary(ctx context.Context, actor model.Actor, window model.Window) ([]LessonSummaryRow, error) {
	if err := window.ValidatePaired(); err != nil {
		return nil, err
	}
	filter := repository.LessonFilter{TeacherID: actor.UserID}
	filter.From, filter.To = windowBounds(window)

	lessons, err := s.lessons.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	type key struct {
		subject    string
		lessonType model.LessonType
	}
	rows := make(map[key]*LessonSummaryRow)
	minutes := make(map[key]int)
	for _, lesson := range lessons {
		k := key{lesson.Subject, lesson.LessonType}
		row, ok := rows[k]
		if !ok {
			row = &LessonSummaryRow{
				Subject:    lesson.Subject,
				LessonType: lesson.LessonType,
				ByStatus:   make(map[model.LessonStatus]int64),
			}
			rows[k] = row
		}
		row.ByStatus[lesson.Status]++
		row.Total++
		minutes[k] += lesson.DurationMin
	}

	out := make([]LessonSummaryRow, 0, len(rows))
	for k, row := range rows {
		row.Hours = model.Round2(float64(minutes[k]) / 60)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].LessonType < out[j].LessonType
	})
	return out, nil
}

// ownedLesson loads a lesson and enforces ownership. Only the owning teacher
// may mutate a lesson, admins included; the ownership check runs before any
// status check so an unauthorized caller always gets Forbidden.
func (s *LessonService) ownedLesson(ctx context.Context, actor model.Actor, id, action string) (*model.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, &model.NotFoundError{Entity: "lesson", ID: id}
	}
	if !lesson.IsOwnedBy(actor.UserID) {
		return nil, &model.ForbiddenError{Action: action, Reason: "not the lesson owner"}
	}
	return lesson, nil
}

func (s *LessonService) adminTransition(ctx context.Context, actor model.Actor, id string, to model.LessonStatus) error {
	if !actor.IsAdmin() {
		return &model.ForbiddenError{Action: "review lesson", Reason: "admin access required"}
	}
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if lesson == nil {
		return &model.NotFoundError{Entity: "lesson", ID: id}
	}
	if !model.CanTransition(lesson.Status, to) {
		return &model.InvalidStateError{
			Entity:  "lesson",
			ID:      id,
			Current: string(lesson.Status),
			Action:  fmt.Sprintf("set status %s", to),
		}
	}
	if err := s.lessons.UpdateStatus(ctx, id, to, nil); err != nil {
		return err
	}
	s.logger.Info("Lesson status changed",
		zap.String("lesson_id", id),
		zap.String("status", string(to)),
		zap.String("reviewed_by", actor.UserID))
	return nil
}

// resolveParticipants copies participant inputs and attaches a stable student
// id whenever a name matches exactly one active student.
func (s *LessonService) resolveParticipants(ctx context.Context, inputs []ParticipantInput) ([]model.Participant, error) {
	participants := make([]model.Participant, 0, len(inputs))
	for _, in := range inputs {
		p := model.Participant{StudentName: in.StudentName, Contact: in.Contact}
		matches, err := s.students.FindExactActive(ctx, in.StudentName)
		if err != nil {
			return nil, err
		}
		if len(matches) == 1 {
			p.StudentID = matches[0].ID
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func buildLessonListFilter(teacherID string, input ListLessonsInput) (repository.LessonFilter, error) {
	var filter repository.LessonFilter
	if err := input.Window.ValidatePaired(); err != nil {
		return filter, err
	}
	for _, status := range input.Statuses {
		if !status.Valid() {
			return filter, &model.ValidationError{Field: "status", Reason: "unknown status " + string(status)}
		}
	}
	if input.LessonType != "" && !model.LessonType(input.LessonType).Valid() {
		return filter, &model.ValidationError{Field: "lesson_type", Reason: "unknown type " + input.LessonType}
	}
	if input.Skip < 0 || input.Limit < 0 {
		return filter, &model.ValidationError{Field: "skip", Reason: "pagination values must not be negative"}
	}

	filter = repository.LessonFilter{
		TeacherID:       teacherID,
		Statuses:        input.Statuses,
		LessonType:      model.LessonType(input.LessonType),
		ParticipantName: input.ParticipantName,
		Skip:            input.Skip,
		Limit:           input.Limit,
	}
	filter.From, filter.To = windowBounds(input.Window)
	return filter, nil
}

func windowBounds(window model.Window) (time.Time, time.Time) {
	from, to, ok := window.Bounds()
	if !ok {
		return time.Time{}, time.Time{}
	}
	return from, to
}

func parseLessonKind(rawLevel, rawType string) (model.EducationLevel, model.LessonType, error) {
	level, ok := model.ParseLevel(rawLevel)
	if !ok {
		return "", "", &model.ValidationError{Field: "education_level", Reason: "unknown level " + rawLevel}
	}
	lessonType := model.LessonType(rawType)
	if !lessonType.Valid() {
		return "", "", &model.ValidationError{Field: "lesson_type", Reason: "unknown type " + rawType}
	}
	return level, lessonType, nil
}
