package model

import "time"

// Payment is an immutable record of money received from a student. Payments
// are never edited, only recorded and deleted by admins.
type Payment struct {
	ID           string    `json:"id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email,omitempty"`
	Amount       float64   `json:"amount"`
	PaymentDate  time.Time `json:"payment_date"`
	LessonID     string    `json:"lesson_id,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// TotalPayments sums payment amounts, rounded to 2 decimals.
func TotalPayments(payments []Payment) float64 {
	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	return Round2(total)
}
