package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StudentService struct {
	students StudentStore
	logger   *zap.Logger
}

func NewStudentService(students StudentStore, logger *zap.Logger) *StudentService {
	return &StudentService{students: students, logger: logger}
}

type CreateStudentInput struct {
	FullName       string `validate:"required,min=2"`
	Phone          string
	EducationLevel string `validate:"required"`
	Notes          string
}

// Create registers a student. Both roles may do this since teachers add
// students while logging lessons; names are unique case-insensitively.
func (s *StudentService) Create(ctx context.Context, actor model.Actor, input CreateStudentInput) (*model.Student, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}
	level, ok := model.ParseLevel(input.EducationLevel)
	if !ok {
		return nil, &model.ValidationError{Field: "education_level", Reason: "unknown level " + input.EducationLevel}
	}
	fullName := strings.TrimSpace(input.FullName)

	exists, err := s.students.NameExists(ctx, fullName, "")
	if err != nil {
		return nil, fmt.Errorf("check student name: %w", err)
	}
	if exists {
		return nil, &model.ConflictError{Entity: "student", Key: "name " + fullName}
	}

	student := &model.Student{
		ID:             uuid.NewString(),
		FullName:       fullName,
		Phone:          input.Phone,
		EducationLevel: level,
		Notes:          input.Notes,
		IsActive:       true,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Info("Student created",
		zap.String("student_id", student.ID),
		zap.String("full_name", student.FullName),
		zap.String("created_by", actor.UserID))

	return student, nil
}

type UpdateStudentInput struct {
	FullName       *string `validate:"omitempty,min=2"`
	Phone          *string
	EducationLevel *string
	Notes          *string
}

func (s *StudentService) Update(ctx context.Context, actor model.Actor, id string, input UpdateStudentInput) (*model.Student, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &model.NotFoundError{Entity: "student", ID: id}
	}

	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		if !strings.EqualFold(fullName, student.FullName) {
			exists, err := s.students.NameExists(ctx, fullName, student.ID)
			if err != nil {
				return nil, fmt.Errorf("check student name: %w", err)
			}
			if exists {
				return nil, &model.ConflictError{Entity: "student", Key: "name " + fullName}
			}
		}
		student.FullName = fullName
	}
	if input.EducationLevel != nil {
		level, ok := model.ParseLevel(*input.EducationLevel)
		if !ok {
			return nil, &model.ValidationError{Field: "education_level", Reason: "unknown level " + *input.EducationLevel}
		}
		student.EducationLevel = level
	}
	if input.Phone != nil {
		student.Phone = *input.Phone
	}
	if input.Notes != nil {
		student.Notes = *input.Notes
	}

	if err := s.students.Update(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *StudentService) Get(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &model.NotFoundError{Entity: "student", ID: id}
	}
	return student, nil
}

// List returns students sorted by name, optionally only active ones.
func (s *StudentService) List(ctx context.Context, activeOnly bool) ([]*model.Student, error) {
	return s.students.Find(ctx, repository.StudentFilter{ActiveOnly: activeOnly})
}

// Search finds students by case-insensitive name substring.
func (s *StudentService) Search(ctx context.Context, name string) ([]*model.Student, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "required"}
	}
	return s.students.FindByName(ctx, name)
}

// Deactivate is the soft delete for students.
func (s *StudentService) Deactivate(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsAdmin() {
		return &model.ForbiddenError{Action: "deactivate student", Reason: "admin access required"}
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if student == nil {
		return &model.NotFoundError{Entity: "student", ID: id}
	}
	if !student.IsActive {
		return &model.InvalidStateError{
			Entity:  "student",
			ID:      id,
			Current: "inactive",
			Action:  "deactivate",
		}
	}

	if err := s.students.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.logger.Info("Student deactivated", zap.String("student_id", id))
	return nil
}
