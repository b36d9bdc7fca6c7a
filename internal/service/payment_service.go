package service

import (
	"context"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService struct {
	payments PaymentStore
	lessons  LessonStore
	logger   *zap.Logger
}

func NewPaymentService(payments PaymentStore, lessons LessonStore, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		payments: payments,
		lessons:  lessons,
		logger:   logger,
	}
}

type CreatePaymentInput struct {
	StudentName  string  `validate:"required"`
	StudentEmail string  `validate:"omitempty,email"`
	Amount       float64 `validate:"gt=0"`
	PaymentDate  time.Time
	LessonID     string
	Notes        string
}

// Create records a payment. Admin only; the acting admin is stamped as the
// recorder.
func (s *PaymentService) Create(ctx context.Context, actor model.Actor, input CreatePaymentInput) (*model.Payment, error) {
	if !actor.IsAdmin() {
		return nil, &model.ForbiddenError{Action: "record payment", Reason: "admin access required"}
	}
	if err := checkInput(input); err != nil {
		return nil, err
	}
	if input.LessonID != "" {
		lesson, err := s.lessons.GetByID(ctx, input.LessonID)
		if err != nil {
			return nil, err
		}
		if lesson == nil {
			return nil, &model.NotFoundError{Entity: "lesson", ID: input.LessonID}
		}
	}

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}

	payment := &model.Payment{
		ID:           uuid.NewString(),
		StudentName:  strings.TrimSpace(input.StudentName),
		StudentEmail: input.StudentEmail,
		Amount:       model.Round2(input.Amount),
		PaymentDate:  paymentDate,
		LessonID:     input.LessonID,
		Notes:        input.Notes,
		CreatedBy:    actor.UserID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.String("payment_id", payment.ID),
		zap.String("student_name", payment.StudentName),
		zap.Float64("amount", payment.Amount))

	return payment, nil
}

type ListPaymentsInput struct {
	StudentName string
	Window      model.Window
}

type PaymentList struct {
	Payments []model.Payment `json:"payments"`
	Total    int64           `json:"total"`
	Amount   float64         `json:"amount"`
}

// List returns payments newest first, with the filter-wide count and sum.
func (s *PaymentService) List(ctx context.Context, actor model.Actor, input ListPaymentsInput) (*PaymentList, error) {
	if !actor.IsAdmin() {
		return nil, &model.ForbiddenError{Action: "list payments", Reason: "admin access required"}
	}
	if err := input.Window.ValidatePaired(); err != nil {
		return nil, err
	}

	filter := repository.PaymentFilter{StudentName: input.StudentName}
	filter.From, filter.To = windowBounds(input.Window)

	payments, err := s.payments.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.payments.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	amount, err := s.payments.SumAmount(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &PaymentList{
		Payments: payments,
		Total:    total,
		Amount:   model.Round2(amount),
	}, nil
}

// ListByStudent returns a student's payments; an empty result is reported as
// NotFound so callers can tell a missing student from an unpaid one.
func (s *PaymentService) ListByStudent(ctx context.Context, studentName string) ([]model.Payment, error) {
	if strings.TrimSpace(studentName) == "" {
		return nil, &model.ValidationError{Field: "student_name", Reason: "required"}
	}
	payments, err := s.payments.Find(ctx, repository.PaymentFilter{StudentName: studentName})
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, &model.NotFoundError{Entity: "payments for student", ID: studentName}
	}
	return payments, nil
}

// StudentTotal sums everything a student has paid, optionally in a window.
func (s *PaymentService) StudentTotal(ctx context.Context, studentName string, window model.Window) (float64, error) {
	if strings.TrimSpace(studentName) == "" {
		return 0, &model.ValidationError{Field: "student_name", Reason: "required"}
	}
	if err := window.ValidatePaired(); err != nil {
		return 0, err
	}
	filter := repository.PaymentFilter{StudentName: studentName}
	filter.From, filter.To = windowBounds(window)

	amount, err := s.payments.SumAmount(ctx, filter)
	if err != nil {
		return 0, err
	}
	return model.Round2(amount), nil
}

// Delete removes a payment record permanently. Admin only.
func (s *PaymentService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsAdmin() {
		return &model.ForbiddenError{Action: "delete payment", Reason: "admin access required"}
	}
	deleted, err := s.payments.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return &model.NotFoundError{Entity: "payment", ID: id}
	}
	s.logger.Info("Payment deleted", zap.String("payment_id", id))
	return nil
}
