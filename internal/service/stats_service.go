package service

import (
	"context"
	"sort"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
	"go.uber.org/zap"
)

// Default lesson status sets for the rollups. Teacher hours count reviewed
// work only; student hours also include lessons already held.
var (
	DefaultTeacherRollupStatuses = []model.LessonStatus{
		model.LessonStatusApproved,
	}
	DefaultStudentRollupStatuses = []model.LessonStatus{
		model.LessonStatusApproved,
		model.LessonStatusCompleted,
	}
)

type StatsService struct {
	lessons  LessonStore
	students StudentStore
	users    UserStore
	payments PaymentStore
	pricing  PricingStore
	logger   *zap.Logger
}

func NewStatsService(lessons LessonStore, students StudentStore, users UserStore, payments PaymentStore, pricing PricingStore, logger *zap.Logger) *StatsService {
	return &StatsService{
		lessons:  lessons,
		students: students,
		users:    users,
		payments: payments,
		pricing:  pricing,
		logger:   logger,
	}
}

type Overview struct {
	Teachers        int64                        `json:"teachers"`
	Admins          int64                        `json:"admins"`
	ActiveStudents  int64                        `json:"active_students"`
	PricingEntries  int64                        `json:"pricing_entries"`
	LessonsByStatus map[model.LessonStatus]int64 `json:"lessons_by_status"`
	TotalLessons    int64                        `json:"total_lessons"`
	PaymentCount    int64                        `json:"payment_count"`
	Revenue         float64                      `json:"revenue"`
}

// Overview assembles the dashboard counters. The window narrows lessons and
// payments; account, student and pricing counts are always current.
func (s *StatsService) Overview(ctx context.Context, window model.Window) (*Overview, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	overview := &Overview{}
	var err error
	if overview.Teachers, err = s.users.CountByRole(ctx, model.RoleTeacher, model.UserStatusActive); err != nil {
		return nil, err
	}
	if overview.Admins, err = s.users.CountByRole(ctx, model.RoleAdmin, model.UserStatusActive); err != nil {
		return nil, err
	}
	if overview.ActiveStudents, err = s.students.CountActive(ctx); err != nil {
		return nil, err
	}
	if overview.PricingEntries, err = s.pricing.CountActive(ctx); err != nil {
		return nil, err
	}

	var lessonFilter repository.LessonFilter
	lessonFilter.From, lessonFilter.To = windowBounds(window)
	if overview.LessonsByStatus, err = s.lessons.CountByStatus(ctx, lessonFilter); err != nil {
		return nil, err
	}
	for _, count := range overview.LessonsByStatus {
		overview.TotalLessons += count
	}

	var paymentFilter repository.PaymentFilter
	paymentFilter.From, paymentFilter.To = windowBounds(window)
	if overview.PaymentCount, err = s.payments.Count(ctx, paymentFilter); err != nil {
		return nil, err
	}
	revenue, err := s.payments.SumAmount(ctx, paymentFilter)
	if err != nil {
		return nil, err
	}
	overview.Revenue = model.Round2(revenue)
	return overview, nil
}

// LevelHours splits hours across the three normalized education levels.
type LevelHours struct {
	Elementary float64 `json:"elementary"`
	Middle     float64 `json:"middle"`
	Secondary  float64 `json:"secondary"`
	Total      float64 `json:"total"`
}

// levelMinutes accumulates raw minutes per normalized level so each bucket
// is rounded exactly once.
type levelMinutes map[model.EducationLevel]int

func (m levelMinutes) hours() LevelHours {
	var total int
	for _, minutes := range m {
		total += minutes
	}
	return LevelHours{
		Elementary: model.Round2(float64(m[model.LevelElementary]) / 60),
		Middle:     model.Round2(float64(m[model.LevelMiddle]) / 60),
		Secondary:  model.Round2(float64(m[model.LevelSecondary]) / 60),
		Total:      model.Round2(float64(total) / 60),
	}
}

type TeacherRollupFilter struct {
	Window   model.Window
	Search   string
	Status   model.UserStatus
	Statuses []model.LessonStatus
}

type TeacherHoursRow struct {
	TeacherID   string     `json:"teacher_id"`
	TeacherName string     `json:"teacher_name"`
	Individual  LevelHours `json:"individual"`
	Group       LevelHours `json:"group"`
	TotalHours  float64    `json:"total_hours"`
	LessonCount int64      `json:"lesson_count"`
}

// TeacherRollup reports every matching teacher's hours split by lesson type
// and normalized education level, busiest teachers first.
func (s *StatsService) TeacherRollup(ctx context.Context, filter TeacherRollupFilter) ([]TeacherHoursRow, error) {
	if err := filter.Window.Validate(); err != nil {
		return nil, err
	}
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = DefaultTeacherRollupStatuses
	}

	teachers, err := s.users.Find(ctx, repository.UserFilter{
		Role:   model.RoleTeacher,
		Status: filter.Status,
		Search: filter.Search,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]TeacherHoursRow, 0, len(teachers))
	for _, teacher := range teachers {
		lessonFilter := repository.LessonFilter{TeacherID: teacher.ID, Statuses: statuses}
		lessonFilter.From, lessonFilter.To = windowBounds(filter.Window)

		lessons, err := s.lessons.Find(ctx, lessonFilter)
		if err != nil {
			return nil, err
		}

		row := TeacherHoursRow{TeacherID: teacher.ID, TeacherName: teacher.FullName()}
		individual := make(levelMinutes)
		group := make(levelMinutes)
		var totalMin int
		for _, lesson := range lessons {
			level := model.NormalizeLevel(string(lesson.EducationLevel))
			if lesson.LessonType == model.LessonTypeGroup {
				group[level] += lesson.DurationMin
			} else {
				individual[level] += lesson.DurationMin
			}
			totalMin += lesson.DurationMin
			row.LessonCount++
		}
		row.Individual = individual.hours()
		row.Group = group.hours()
		row.TotalHours = model.Round2(float64(totalMin) / 60)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TotalHours > rows[j].TotalHours
	})
	return rows, nil
}

type StudentRollupFilter struct {
	Window     model.Window
	Search     string
	Level      model.EducationLevel
	ActiveOnly bool
	Statuses   []model.LessonStatus
}

type StudentHoursRow struct {
	StudentID       string               `json:"student_id"`
	FullName        string               `json:"full_name"`
	EducationLevel  model.EducationLevel `json:"education_level"`
	IndividualHours float64              `json:"individual_hours"`
	GroupHours      float64              `json:"group_hours"`
	TotalHours      float64              `json:"total_hours"`
	LessonCount     int64                `json:"lesson_count"`
}

// StudentRollup reports per-student hours, matched by participant name or
// stable student id, busiest students first.
func (s *StatsService) StudentRollup(ctx context.Context, filter StudentRollupFilter) ([]StudentHoursRow, error) {
	if err := filter.Window.Validate(); err != nil {
		return nil, err
	}
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = DefaultStudentRollupStatuses
	}

	students, err := s.students.Find(ctx, repository.StudentFilter{
		Search:         filter.Search,
		EducationLevel: filter.Level,
		ActiveOnly:     filter.ActiveOnly,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]StudentHoursRow, 0, len(students))
	for _, student := range students {
		lessonFilter := repository.LessonFilter{
			Statuses:             statuses,
			ParticipantName:      student.FullName,
			ParticipantStudentID: student.ID,
		}
		lessonFilter.From, lessonFilter.To = windowBounds(filter.Window)

		lessons, err := s.lessons.Find(ctx, lessonFilter)
		if err != nil {
			return nil, err
		}

		row := StudentHoursRow{
			StudentID:      student.ID,
			FullName:       student.FullName,
			EducationLevel: model.NormalizeLevel(string(student.EducationLevel)),
		}
		var individualMin, groupMin int
		for _, lesson := range lessons {
			if lesson.LessonType == model.LessonTypeGroup {
				groupMin += lesson.DurationMin
			} else {
				individualMin += lesson.DurationMin
			}
			row.LessonCount++
		}
		row.IndividualHours = model.Round2(float64(individualMin) / 60)
		row.GroupHours = model.Round2(float64(groupMin) / 60)
		row.TotalHours = model.Round2(row.IndividualHours + row.GroupHours)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TotalHours > rows[j].TotalHours
	})
	return rows, nil
}

type LessonRollup struct {
	ByType     map[model.LessonType]int64   `json:"by_type"`
	ByStatus   map[model.LessonStatus]int64 `json:"by_status"`
	Total      int64                        `json:"total"`
	TotalHours float64                      `json:"total_hours"`
}

// LessonRollup counts lessons by type and status inside the window.
func (s *StatsService) LessonRollup(ctx context.Context, window model.Window) (*LessonRollup, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	var filter repository.LessonFilter
	filter.From, filter.To = windowBounds(window)

	rollup := &LessonRollup{}
	var err error
	if rollup.ByType, err = s.lessons.CountByType(ctx, filter); err != nil {
		return nil, err
	}
	if rollup.ByStatus, err = s.lessons.CountByStatus(ctx, filter); err != nil {
		return nil, err
	}
	for _, count := range rollup.ByStatus {
		rollup.Total += count
	}
	minutes, err := s.lessons.SumDurationMinutes(ctx, filter)
	if err != nil {
		return nil, err
	}
	rollup.TotalHours = model.Round2(float64(minutes) / 60)
	return rollup, nil
}
