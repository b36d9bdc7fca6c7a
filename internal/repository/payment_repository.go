package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentFilter narrows payment queries. StudentName is a case-insensitive
// substring match on the recorded name.
type PaymentFilter struct {
	StudentName string
	From        time.Time
	To          time.Time
}

type PaymentRepository struct {
	*base.Repository
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{Repository: base.NewRepository(pool)}
}

const paymentColumns = `id, student_name, COALESCE(student_email, ''), amount, payment_date,
		COALESCE(lesson_id::text, ''), COALESCE(notes, ''), created_by, created_at`

func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (id, student_name, student_email, amount, payment_date, lesson_id, notes, created_by)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, '')::uuid, NULLIF($7, ''), $8)
		RETURNING created_at
	`
	err := r.QueryRow(
		ctx, query,
		payment.ID,
		payment.StudentName,
		payment.StudentEmail,
		payment.Amount,
		payment.PaymentDate,
		payment.LessonID,
		payment.Notes,
		payment.CreatedBy,
	).Scan(&payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by id: %w", err)
	}
	return payment, nil
}

// Find returns matching payments sorted by payment date, newest first.
func (r *PaymentRepository) Find(ctx context.Context, f PaymentFilter) ([]model.Payment, error) {
	where, args := buildPaymentWhere(f)

	query := `SELECT ` + paymentColumns + ` FROM payments` + where + ` ORDER BY payment_date DESC`
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) Count(ctx context.Context, f PaymentFilter) (int64, error) {
	where, args := buildPaymentWhere(f)

	var count int64
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return count, nil
}

// SumAmount totals matching payment amounts.
func (r *PaymentRepository) SumAmount(ctx context.Context, f PaymentFilter) (float64, error) {
	where, args := buildPaymentWhere(f)

	var total float64
	if err := r.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}

// Delete removes a payment permanently. Payments are immutable facts, so
// this is the only mutation besides Create.
func (r *PaymentRepository) Delete(ctx context.Context, id string) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete payment: %w", err)
	}
	return affected > 0, nil
}

func buildPaymentWhere(f PaymentFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.StudentName != "" {
		args = append(args, f.StudentName)
		clauses = append(clauses, fmt.Sprintf("student_name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		clauses = append(clauses, fmt.Sprintf("payment_date >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		clauses = append(clauses, fmt.Sprintf("payment_date < $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var payment model.Payment
	err := row.Scan(
		&payment.ID,
		&payment.StudentName,
		&payment.StudentEmail,
		&payment.Amount,
		&payment.PaymentDate,
		&payment.LessonID,
		&payment.Notes,
		&payment.CreatedBy,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
