package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
)

// Store interfaces expose exactly what the services consume from the
// repository layer. The pgx repositories satisfy them; tests swap in
// in-memory fakes.

type LessonStore interface {
	Create(ctx context.Context, lesson *model.Lesson) error
	GetByID(ctx context.Context, id string) (*model.Lesson, error)
	Find(ctx context.Context, f repository.LessonFilter) ([]*model.Lesson, error)
	Count(ctx context.Context, f repository.LessonFilter) (int64, error)
	CountByStatus(ctx context.Context, f repository.LessonFilter) (map[model.LessonStatus]int64, error)
	CountByType(ctx context.Context, f repository.LessonFilter) (map[model.LessonType]int64, error)
	SumDurationMinutes(ctx context.Context, f repository.LessonFilter) (int64, error)
	UpdateDetails(ctx context.Context, lesson *model.Lesson) error
	UpdateStatus(ctx context.Context, id string, status model.LessonStatus, completedAt *time.Time) error
}

type PricingStore interface {
	Create(ctx context.Context, entry *model.PricingEntry) error
	GetByID(ctx context.Context, id string) (*model.PricingEntry, error)
	FindBySubjectAndLevel(ctx context.Context, subject string, level model.EducationLevel) (*model.PricingEntry, error)
	FindAnyBySubject(ctx context.Context, subject string) (*model.PricingEntry, error)
	SubjectAndLevelExists(ctx context.Context, subject string, level model.EducationLevel, excludeID string) (bool, error)
	GetAll(ctx context.Context) ([]*model.PricingEntry, error)
	CountActive(ctx context.Context) (int64, error)
	Update(ctx context.Context, entry *model.PricingEntry) error
	Delete(ctx context.Context, id string) (bool, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	Find(ctx context.Context, f repository.PaymentFilter) ([]model.Payment, error)
	Count(ctx context.Context, f repository.PaymentFilter) (int64, error)
	SumAmount(ctx context.Context, f repository.PaymentFilter) (float64, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type StudentStore interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	NameExists(ctx context.Context, fullName, excludeID string) (bool, error)
	FindByName(ctx context.Context, name string) ([]*model.Student, error)
	FindExactActive(ctx context.Context, fullName string) ([]*model.Student, error)
	Find(ctx context.Context, f repository.StudentFilter) ([]*model.Student, error)
	CountActive(ctx context.Context) (int64, error)
	Update(ctx context.Context, student *model.Student) error
	SetActive(ctx context.Context, id string, active bool) error
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Find(ctx context.Context, f repository.UserFilter) ([]*model.User, error)
	CountByRole(ctx context.Context, role model.Role, status model.UserStatus) (int64, error)
	SetStatus(ctx context.Context, id string, status model.UserStatus) error
	SetPassword(ctx context.Context, id, hashedPassword string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
