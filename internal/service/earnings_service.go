package service

import (
	"context"
	"sort"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
	"go.uber.org/zap"
)

// PriceResolver yields a price per hour for any lesson shape. PricingService
// satisfies it.
type PriceResolver interface {
	Resolve(ctx context.Context, subject string, level model.EducationLevel, lessonType model.LessonType) (float64, error)
}

// DefaultEarningsStatuses is the status set used when the caller passes none.
// It mirrors the long-standing payout behavior of counting submitted and held
// lessons while skipping approved ones; callers wanting approved lessons in
// the payout must say so explicitly.
var DefaultEarningsStatuses = []model.LessonStatus{
	model.LessonStatusPending,
	model.LessonStatusCompleted,
}

type EarningsService struct {
	lessons LessonStore
	users   UserStore
	prices  PriceResolver
	logger  *zap.Logger
}

func NewEarningsService(lessons LessonStore, users UserStore, prices PriceResolver, logger *zap.Logger) *EarningsService {
	return &EarningsService{
		lessons: lessons,
		users:   users,
		prices:  prices,
		logger:  logger,
	}
}

type EarningsOptions struct {
	Statuses []model.LessonStatus
	Window   model.Window
}

// EarningsGroup is one (subject, level, type) slice of a teacher's payout.
type EarningsGroup struct {
	Subject        string               `json:"subject"`
	EducationLevel model.EducationLevel `json:"education_level"`
	LessonType     model.LessonType     `json:"lesson_type"`
	LessonCount    int64                `json:"lesson_count"`
	Hours          float64              `json:"hours"`
	PricePerHour   float64              `json:"price_per_hour"`
	Earnings       float64              `json:"earnings"`
}

type EarningsReport struct {
	TeacherID     string               `json:"teacher_id"`
	TeacherName   string               `json:"teacher_name"`
	Statuses      []model.LessonStatus `json:"statuses"`
	Groups        []EarningsGroup      `json:"groups"`
	TotalLessons  int64                `json:"total_lessons"`
	TotalHours    float64              `json:"total_hours"`
	TotalEarnings float64              `json:"total_earnings"`
}

// TeacherEarnings computes the payout report for one teacher. Lessons are
// grouped by the exact (subject, level, type) triple; hours are summed in
// minutes and rounded once per group, and each group's earnings are rounded
// independently, so the totals may drift from a single full-precision sum by
// a cent.
func (s *EarningsService) TeacherEarnings(ctx context.Context, teacherID string, opts EarningsOptions) (*EarningsReport, error) {
	if err := opts.Window.Validate(); err != nil {
		return nil, err
	}
	statuses := opts.Statuses
	if len(statuses) == 0 {
		statuses = DefaultEarningsStatuses
	}
	for _, status := range statuses {
		if !status.Valid() {
			return nil, &model.ValidationError{Field: "statuses", Reason: "unknown status " + string(status)}
		}
	}

	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, &model.NotFoundError{Entity: "user", ID: teacherID}
	}
	if !teacher.IsTeacher() {
		return nil, &model.ValidationError{Field: "teacher_id", Reason: "user is not a teacher"}
	}

	filter := repository.LessonFilter{TeacherID: teacherID, Statuses: statuses}
	filter.From, filter.To = windowBounds(opts.Window)

	lessons, err := s.lessons.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	groups, err := s.groupEarnings(ctx, lessons)
	if err != nil {
		return nil, err
	}

	report := &EarningsReport{
		TeacherID:   teacher.ID,
		TeacherName: teacher.FullName(),
		Statuses:    statuses,
		Groups:      groups,
	}
	for _, g := range groups {
		report.TotalLessons += g.LessonCount
		report.TotalHours += g.Hours
		report.TotalEarnings += g.Earnings
	}
	report.TotalHours = model.Round2(report.TotalHours)
	report.TotalEarnings = model.Round2(report.TotalEarnings)
	return report, nil
}

func (s *EarningsService) groupEarnings(ctx context.Context, lessons []*model.Lesson) ([]EarningsGroup, error) {
	type key struct {
		subject    string
		level      model.EducationLevel
		lessonType model.LessonType
	}
	counts := make(map[key]int64)
	minutes := make(map[key]int)
	for _, lesson := range lessons {
		k := key{lesson.Subject, lesson.EducationLevel, lesson.LessonType}
		counts[k]++
		minutes[k] += lesson.DurationMin
	}

	groups := make([]EarningsGroup, 0, len(counts))
	for k, count := range counts {
		price, err := s.prices.Resolve(ctx, k.subject, k.level, k.lessonType)
		if err != nil {
			return nil, err
		}
		hours := model.Round2(float64(minutes[k]) / 60)
		groups = append(groups, EarningsGroup{
			Subject:        k.subject,
			EducationLevel: k.level,
			LessonType:     k.lessonType,
			LessonCount:    count,
			Hours:          hours,
			PricePerHour:   price,
			Earnings:       model.Round2(hours * price),
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Subject != groups[j].Subject {
			return groups[i].Subject < groups[j].Subject
		}
		if groups[i].EducationLevel != groups[j].EducationLevel {
			return groups[i].EducationLevel < groups[j].EducationLevel
		}
		return groups[i].LessonType < groups[j].LessonType
	})
	return groups, nil
}
