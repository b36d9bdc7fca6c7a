package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentFilter narrows student queries.
type StudentFilter struct {
	Search         string // case-insensitive substring on full name
	EducationLevel model.EducationLevel
	ActiveOnly     bool
}

type StudentRepository struct {
	*base.Repository
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{Repository: base.NewRepository(pool)}
}

const studentColumns = `id, full_name, COALESCE(phone, ''), COALESCE(education_level, ''),
		COALESCE(notes, ''), is_active, created_at, updated_at`

func (r *StudentRepository) Create(ctx context.Context, student *model.Student) error {
	query := `
		INSERT INTO students (id, full_name, phone, education_level, notes, is_active)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)
		RETURNING created_at
	`
	err := r.QueryRow(
		ctx, query,
		student.ID,
		student.FullName,
		student.Phone,
		string(student.EducationLevel),
		student.Notes,
		student.IsActive,
	).Scan(&student.CreatedAt)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	student, err := scanStudent(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}
	return student, nil
}

// NameExists reports whether a student with the exact name (case-insensitive)
// already exists, excluding excludeID when non-empty.
func (r *StudentRepository) NameExists(ctx context.Context, fullName, excludeID string) (bool, error) {
	query := `SELECT COUNT(*) FROM students WHERE LOWER(full_name) = LOWER($1) AND id <> $2`

	var count int64
	if err := r.QueryRow(ctx, query, fullName, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("check student name: %w", err)
	}
	return count > 0, nil
}

// FindByName returns students whose name contains the given fragment,
// case-insensitively.
func (r *StudentRepository) FindByName(ctx context.Context, name string) ([]*model.Student, error) {
	return r.Find(ctx, StudentFilter{Search: name})
}

// FindExactActive returns active students whose full name equals the given
// name case-insensitively. Used to attach stable ids to participants.
func (r *StudentRepository) FindExactActive(ctx context.Context, fullName string) ([]*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE LOWER(full_name) = LOWER($1) AND is_active`

	rows, err := r.Query(ctx, query, fullName)
	if err != nil {
		return nil, fmt.Errorf("find student by exact name: %w", err)
	}
	defer rows.Close()
	return collectStudents(rows)
}

// Find returns matching students sorted by name.
func (r *StudentRepository) Find(ctx context.Context, f StudentFilter) ([]*model.Student, error) {
	var clauses []string
	var args []interface{}

	if f.Search != "" {
		args = append(args, f.Search)
		clauses = append(clauses, fmt.Sprintf("full_name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if f.EducationLevel != "" {
		args = append(args, f.EducationLevel)
		clauses = append(clauses, fmt.Sprintf("education_level = $%d", len(args)))
	}
	if f.ActiveOnly {
		clauses = append(clauses, "is_active")
	}

	query := `SELECT ` + studentColumns + ` FROM students`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY full_name"

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	defer rows.Close()
	return collectStudents(rows)
}

func (r *StudentRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM students WHERE is_active`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active students: %w", err)
	}
	return count, nil
}

func (r *StudentRepository) Update(ctx context.Context, student *model.Student) error {
	query := `
		UPDATE students
		SET full_name = $2, phone = NULLIF($3, ''), education_level = NULLIF($4, ''),
			notes = NULLIF($5, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.QueryRow(ctx, query,
		student.ID, student.FullName, student.Phone, string(student.EducationLevel), student.Notes,
	).Scan(&student.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return &model.NotFoundError{Entity: "student", ID: student.ID}
		}
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *StudentRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE students SET is_active = $2, updated_at = NOW() WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("set student active: %w", err)
	}
	if affected == 0 {
		return &model.NotFoundError{Entity: "student", ID: id}
	}
	return nil
}

func collectStudents(rows pgx.Rows) ([]*model.Student, error) {
	var students []*model.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var student model.Student
	var level string
	err := row.Scan(
		&student.ID,
		&student.FullName,
		&student.Phone,
		&level,
		&student.Notes,
		&student.IsActive,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	student.EducationLevel = model.EducationLevel(level)
	return &student, nil
}
