package service

import (
	"context"
	"sort"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
	"go.uber.org/zap"
)

// PricingCatalog is the lookup surface billing needs: the matched entry when
// one exists, or the type default so the fallback can be flagged.
type PricingCatalog interface {
	ResolveEntry(ctx context.Context, subject string, level model.EducationLevel) (*model.PricingEntry, error)
	DefaultFor(lessonType model.LessonType) float64
}

// BillableStatuses are the lesson statuses that count towards a student's
// debt. Pending lessons are not billed; only reviewed or held ones are.
var BillableStatuses = []model.LessonStatus{
	model.LessonStatusApproved,
	model.LessonStatusCompleted,
}

type BillingService struct {
	lessons  LessonStore
	payments PaymentStore
	students StudentStore
	prices   PricingCatalog
	logger   *zap.Logger
}

func NewBillingService(lessons LessonStore, payments PaymentStore, students StudentStore, prices PricingCatalog, logger *zap.Logger) *BillingService {
	return &BillingService{
		lessons:  lessons,
		payments: payments,
		students: students,
		prices:   prices,
		logger:   logger,
	}
}

// PricingWarning flags a lesson group that was billed at the configured
// default rate because no pricing entry covered its subject.
type PricingWarning struct {
	Subject        string               `json:"subject"`
	EducationLevel model.EducationLevel `json:"education_level"`
	LessonType     model.LessonType     `json:"lesson_type"`
	DefaultPrice   float64              `json:"default_price"`
}

type StudentBalance struct {
	StudentName  string           `json:"student_name"`
	StudentID    string           `json:"student_id,omitempty"`
	LessonCount  int              `json:"lesson_count"`
	PaymentCount int              `json:"payment_count"`
	TotalCost    float64          `json:"total_cost"`
	TotalPaid    float64          `json:"total_paid"`
	Outstanding  float64          `json:"outstanding"`
	HasDebt      bool             `json:"has_debt"`
	Warnings     []PricingWarning `json:"warnings,omitempty"`
}

// StudentBalance computes one student's debt position. Lessons are matched by
// participant name substring or, when the name resolves to exactly one active
// student, by the stable student id as well; payments are matched by the
// recorded student name.
func (s *BillingService) StudentBalance(ctx context.Context, studentName string, window model.Window) (*StudentBalance, error) {
	if studentName == "" {
		return nil, &model.ValidationError{Field: "student_name", Reason: "required"}
	}
	if err := window.ValidatePaired(); err != nil {
		return nil, err
	}

	var studentID string
	matches, err := s.students.FindExactActive(ctx, studentName)
	if err != nil {
		return nil, err
	}
	if len(matches) == 1 {
		studentID = matches[0].ID
	}

	return s.balance(ctx, studentName, studentID, window)
}

func (s *BillingService) balance(ctx context.Context, studentName, studentID string, window model.Window) (*StudentBalance, error) {
	lessonFilter := repository.LessonFilter{
		Statuses:             BillableStatuses,
		ParticipantName:      studentName,
		ParticipantStudentID: studentID,
	}
	lessonFilter.From, lessonFilter.To = windowBounds(window)

	lessons, err := s.lessons.Find(ctx, lessonFilter)
	if err != nil {
		return nil, err
	}

	paymentFilter := repository.PaymentFilter{StudentName: studentName}
	paymentFilter.From, paymentFilter.To = windowBounds(window)

	payments, err := s.payments.Find(ctx, paymentFilter)
	if err != nil {
		return nil, err
	}

	balance := &StudentBalance{
		StudentName:  studentName,
		StudentID:    studentID,
		LessonCount:  len(lessons),
		PaymentCount: len(payments),
	}

	type warnKey struct {
		subject    string
		level      model.EducationLevel
		lessonType model.LessonType
	}
	warned := make(map[warnKey]bool)

	var cost float64
	for _, lesson := range lessons {
		entry, err := s.prices.ResolveEntry(ctx, lesson.Subject, lesson.EducationLevel)
		if err != nil {
			return nil, err
		}
		var price float64
		if entry != nil {
			price = entry.PriceFor(lesson.LessonType)
		} else {
			price = s.prices.DefaultFor(lesson.LessonType)
			k := warnKey{lesson.Subject, lesson.EducationLevel, lesson.LessonType}
			if !warned[k] {
				warned[k] = true
				balance.Warnings = append(balance.Warnings, PricingWarning{
					Subject:        lesson.Subject,
					EducationLevel: lesson.EducationLevel,
					LessonType:     lesson.LessonType,
					DefaultPrice:   price,
				})
			}
		}
		// Raw hours per lesson; only the final cost is rounded.
		cost += float64(lesson.DurationMin) / 60 * price
	}

	balance.TotalCost = model.Round2(cost)
	balance.TotalPaid = model.TotalPayments(payments)
	balance.Outstanding = model.Round2(balance.TotalCost - balance.TotalPaid)
	balance.HasDebt = balance.Outstanding > 0

	sort.Slice(balance.Warnings, func(i, j int) bool {
		a, b := balance.Warnings[i], balance.Warnings[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.EducationLevel != b.EducationLevel {
			return a.EducationLevel < b.EducationLevel
		}
		return a.LessonType < b.LessonType
	})
	return balance, nil
}

type BalancesReport struct {
	Balances         []StudentBalance `json:"balances"`
	StudentsWithDebt int              `json:"students_with_debt"`
	TotalOutstanding float64          `json:"total_outstanding"`
}

// AllBalances computes the balance of every active student, worst debtors
// first.
func (s *BillingService) AllBalances(ctx context.Context, window model.Window) (*BalancesReport, error) {
	if err := window.ValidatePaired(); err != nil {
		return nil, err
	}

	students, err := s.students.Find(ctx, repository.StudentFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	report := &BalancesReport{Balances: make([]StudentBalance, 0, len(students))}
	var outstanding float64
	for _, student := range students {
		balance, err := s.balance(ctx, student.FullName, student.ID, window)
		if err != nil {
			return nil, err
		}
		report.Balances = append(report.Balances, *balance)
		if balance.HasDebt {
			report.StudentsWithDebt++
			outstanding += balance.Outstanding
		}
	}
	report.TotalOutstanding = model.Round2(outstanding)

	sort.Slice(report.Balances, func(i, j int) bool {
		return report.Balances[i].Outstanding > report.Balances[j].Outstanding
	})
	return report, nil
}
