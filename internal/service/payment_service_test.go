package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPaymentFixture() (*PaymentService, *fakeLessonStore) {
	lessons := newFakeLessonStore()
	return NewPaymentService(newFakePaymentStore(), lessons, zap.NewNop()), lessons
}

func TestCreatePayment(t *testing.T) {
	svc, lessons := newPaymentFixture()
	ctx := context.Background()

	payment, err := svc.Create(ctx, adminActor, CreatePaymentInput{
		StudentName: "Alice Carter",
		Amount:      99.999,
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, payment.Amount)
	assert.Equal(t, adminActor.UserID, payment.CreatedBy)
	assert.False(t, payment.PaymentDate.IsZero())

	_, err = svc.Create(ctx, teacherActor, CreatePaymentInput{StudentName: "Alice", Amount: 10})
	assert.True(t, errors.Is(err, model.ErrForbidden))

	_, err = svc.Create(ctx, adminActor, CreatePaymentInput{StudentName: "Alice", Amount: 0})
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = svc.Create(ctx, adminActor, CreatePaymentInput{StudentName: "Alice", Amount: -5})
	assert.True(t, errors.Is(err, model.ErrValidation))

	// A linked lesson must exist.
	_, err = svc.Create(ctx, adminActor, CreatePaymentInput{
		StudentName: "Alice", Amount: 10, LessonID: "missing",
	})
	assert.True(t, errors.Is(err, model.ErrNotFound))

	require.NoError(t, lessons.Create(ctx, &model.Lesson{
		ID: "l1", TeacherID: "t1", Status: model.LessonStatusApproved,
		ScheduledAt: time.Now(), DurationMin: 60,
	}))
	linked, err := svc.Create(ctx, adminActor, CreatePaymentInput{
		StudentName: "Alice", Amount: 10, LessonID: "l1",
	})
	require.NoError(t, err)
	assert.Equal(t, "l1", linked.LessonID)
}

func TestListPayments(t *testing.T) {
	svc, _ := newPaymentFixture()
	ctx := context.Background()

	for _, p := range []CreatePaymentInput{
		{StudentName: "Alice Carter", Amount: 50, PaymentDate: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)},
		{StudentName: "Alice Carter", Amount: 30, PaymentDate: time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)},
		{StudentName: "Bruno Keller", Amount: 20, PaymentDate: time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)},
	} {
		_, err := svc.Create(ctx, adminActor, p)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, adminActor, ListPaymentsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, 100.0, list.Amount)
	// Newest first.
	assert.Equal(t, 30.0, list.Payments[0].Amount)

	march, err := svc.List(ctx, adminActor, ListPaymentsInput{Window: model.Window{Month: 3, Year: 2025}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), march.Total)
	assert.Equal(t, 70.0, march.Amount)

	alice, err := svc.List(ctx, adminActor, ListPaymentsInput{StudentName: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), alice.Total)

	_, err = svc.List(ctx, adminActor, ListPaymentsInput{Window: model.Window{Year: 2025}})
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = svc.List(ctx, teacherActor, ListPaymentsInput{})
	assert.True(t, errors.Is(err, model.ErrForbidden))
}

func TestListByStudentNotFoundWhenEmpty(t *testing.T) {
	svc, _ := newPaymentFixture()
	ctx := context.Background()

	_, err := svc.ListByStudent(ctx, "Alice Carter")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = svc.Create(ctx, adminActor, CreatePaymentInput{StudentName: "Alice Carter", Amount: 50})
	require.NoError(t, err)

	payments, err := svc.ListByStudent(ctx, "Alice Carter")
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestStudentTotal(t *testing.T) {
	svc, _ := newPaymentFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, adminActor, CreatePaymentInput{StudentName: "Alice Carter", Amount: 50.5})
	require.NoError(t, err)
	_, err = svc.Create(ctx, adminActor, CreatePaymentInput{StudentName: "Alice Carter", Amount: 49.5})
	require.NoError(t, err)

	total, err := svc.StudentTotal(ctx, "Alice Carter", model.Window{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, total)

	total, err = svc.StudentTotal(ctx, "Nobody", model.Window{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDeletePayment(t *testing.T) {
	svc, _ := newPaymentFixture()
	ctx := context.Background()

	payment, err := svc.Create(ctx, adminActor, CreatePaymentInput{StudentName: "Alice", Amount: 10})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, adminActor, payment.ID))

	err = svc.Delete(ctx, adminActor, payment.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	err = svc.Delete(ctx, teacherActor, "whatever")
	assert.True(t, errors.Is(err, model.ErrForbidden))
}
