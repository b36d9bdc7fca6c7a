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

// LessonFilter narrows lesson queries. Zero values mean "no filter".
// ParticipantName matches any participant by case-insensitive substring;
// ParticipantStudentID is OR-ed with it so the stable id wins over typos.
type LessonFilter struct {
	TeacherID            string
	Statuses             []model.LessonStatus
	LessonType           model.LessonType
	ParticipantName      string
	ParticipantStudentID string
	From                 time.Time
	To                   time.Time
	Skip                 int
	Limit                int
}

type LessonRepository struct {
	*base.Repository
}

func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{Repository: base.NewRepository(pool)}
}

const lessonColumns = `id, teacher_id, teacher_name, subject, education_level, lesson_type,
		scheduled_at, duration_minutes, max_students, status, created_at, updated_at, completed_at`

// Create inserts the lesson and its participant list in one transaction.
func (r *LessonRepository) Create(ctx context.Context, lesson *model.Lesson) error {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO lessons (id, teacher_id, teacher_name, subject, education_level, lesson_type,
			scheduled_at, duration_minutes, max_students, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err = tx.QueryRow(
		ctx, query,
		lesson.ID,
		lesson.TeacherID,
		lesson.TeacherName,
		lesson.Subject,
		lesson.EducationLevel,
		lesson.LessonType,
		lesson.ScheduledAt,
		lesson.DurationMin,
		lesson.MaxStudents,
		lesson.Status,
	).Scan(&lesson.CreatedAt)
	if err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}

	if err := insertParticipants(ctx, tx, lesson.ID, lesson.Participants); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID returns the lesson with participants, or nil when not found.
func (r *LessonRepository) GetByID(ctx context.Context, id string) (*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`

	lesson, err := scanLesson(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by id: %w", err)
	}

	participants, err := r.loadParticipants(ctx, []string{lesson.ID})
	if err != nil {
		return nil, err
	}
	lesson.Participants = participants[lesson.ID]
	return lesson, nil
}

// Find returns matching lessons sorted by scheduled time, newest first.
func (r *LessonRepository) Find(ctx context.Context, f LessonFilter) ([]*model.Lesson, error) {
	where, args := buildLessonWhere(f)

	query := `SELECT ` + lessonColumns + ` FROM lessons` + where + ` ORDER BY scheduled_at DESC`
	if f.Skip > 0 {
		args = append(args, f.Skip)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*model.Lesson
	var ids []string
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
		ids = append(ids, lesson.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find lessons: %w", err)
	}

	if len(ids) > 0 {
		participants, err := r.loadParticipants(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, lesson := range lessons {
			lesson.Participants = participants[lesson.ID]
		}
	}
	return lessons, nil
}

// Count returns the number of lessons matching the filter.
func (r *LessonRepository) Count(ctx context.Context, f LessonFilter) (int64, error) {
	where, args := buildLessonWhere(f)

	var count int64
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM lessons`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return count, nil
}

// CountByStatus groups matching lesson counts by status.
func (r *LessonRepository) CountByStatus(ctx context.Context, f LessonFilter) (map[model.LessonStatus]int64, error) {
	where, args := buildLessonWhere(f)

	rows, err := r.Query(ctx, `SELECT status, COUNT(*) FROM lessons`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("count lessons by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.LessonStatus]int64)
	for rows.Next() {
		var status model.LessonStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountByType groups matching lesson counts by lesson type.
func (r *LessonRepository) CountByType(ctx context.Context, f LessonFilter) (map[model.LessonType]int64, error) {
	where, args := buildLessonWhere(f)

	rows, err := r.Query(ctx, `SELECT lesson_type, COUNT(*) FROM lessons`+where+` GROUP BY lesson_type`, args...)
	if err != nil {
		return nil, fmt.Errorf("count lessons by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.LessonType]int64)
	for rows.Next() {
		var lessonType model.LessonType
		var count int64
		if err := rows.Scan(&lessonType, &count); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		counts[lessonType] = count
	}
	return counts, rows.Err()
}

// SumDurationMinutes totals the duration of all matching lessons.
func (r *LessonRepository) SumDurationMinutes(ctx context.Context, f LessonFilter) (int64, error) {
	where, args := buildLessonWhere(f)

	var total int64
	err := r.QueryRow(ctx, `SELECT COALESCE(SUM(duration_minutes), 0) FROM lessons`+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum lesson minutes: %w", err)
	}
	return total, nil
}

// UpdateDetails rewrites the mutable lesson fields and replaces the
// participant list. Status is not touched here.
func (r *LessonRepository) UpdateDetails(ctx context.Context, lesson *model.Lesson) error {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE lessons
		SET subject = $2, education_level = $3, lesson_type = $4, scheduled_at = $5,
			duration_minutes = $6, max_students = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = tx.QueryRow(
		ctx, query,
		lesson.ID,
		lesson.Subject,
		lesson.EducationLevel,
		lesson.LessonType,
		lesson.ScheduledAt,
		lesson.DurationMin,
		lesson.MaxStudents,
	).Scan(&lesson.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM lesson_participants WHERE lesson_id = $1`, lesson.ID); err != nil {
		return fmt.Errorf("clear participants: %w", err)
	}
	if err := insertParticipants(ctx, tx, lesson.ID, lesson.Participants); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus moves the lesson to a new status; completedAt is set only for
// the pending -> completed transition.
func (r *LessonRepository) UpdateStatus(ctx context.Context, id string, status model.LessonStatus, completedAt *time.Time) error {
	query := `
		UPDATE lessons
		SET status = $2, completed_at = COALESCE($3, completed_at), updated_at = NOW()
		WHERE id = $1
	`
	affected, err := r.ExecAffected(ctx, query, id, status, completedAt)
	if err != nil {
		return fmt.Errorf("update lesson status: %w", err)
	}
	if affected == 0 {
		return &model.NotFoundError{Entity: "lesson", ID: id}
	}
	return nil
}

func buildLessonWhere(f LessonFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.TeacherID != "" {
		clauses = append(clauses, "teacher_id = "+arg(f.TeacherID))
	}
	if len(f.Statuses) == 1 {
		clauses = append(clauses, "status = "+arg(f.Statuses[0]))
	} else if len(f.Statuses) > 1 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		clauses = append(clauses, "status = ANY("+arg(statuses)+")")
	}
	if f.LessonType != "" {
		clauses = append(clauses, "lesson_type = "+arg(f.LessonType))
	}
	if f.ParticipantName != "" || f.ParticipantStudentID != "" {
		var match []string
		if f.ParticipantName != "" {
			match = append(match, "p.student_name ILIKE '%' || "+arg(f.ParticipantName)+" || '%'")
		}
		if f.ParticipantStudentID != "" {
			match = append(match, "p.student_id = "+arg(f.ParticipantStudentID))
		}
		clauses = append(clauses, "EXISTS (SELECT 1 FROM lesson_participants p WHERE p.lesson_id = lessons.id AND ("+
			strings.Join(match, " OR ")+"))")
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "scheduled_at >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "scheduled_at < "+arg(f.To))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanLesson(row pgx.Row) (*model.Lesson, error) {
	var lesson model.Lesson
	err := row.Scan(
		&lesson.ID,
		&lesson.TeacherID,
		&lesson.TeacherName,
		&lesson.Subject,
		&lesson.EducationLevel,
		&lesson.LessonType,
		&lesson.ScheduledAt,
		&lesson.DurationMin,
		&lesson.MaxStudents,
		&lesson.Status,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
		&lesson.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func insertParticipants(ctx context.Context, tx pgx.Tx, lessonID string, participants []model.Participant) error {
	for i, p := range participants {
		_, err := tx.Exec(ctx, `
			INSERT INTO lesson_participants (lesson_id, position, student_name, student_id, contact)
			VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5)
		`, lessonID, i, p.StudentName, p.StudentID, p.Contact)
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return nil
}

func (r *LessonRepository) loadParticipants(ctx context.Context, lessonIDs []string) (map[string][]model.Participant, error) {
	rows, err := r.Query(ctx, `
		SELECT lesson_id, student_name, COALESCE(student_id::text, ''), COALESCE(contact, '')
		FROM lesson_participants
		WHERE lesson_id = ANY($1)
		ORDER BY lesson_id, position
	`, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]model.Participant)
	for rows.Next() {
		var lessonID string
		var p model.Participant
		if err := rows.Scan(&lessonID, &p.StudentName, &p.StudentID, &p.Contact); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		result[lessonID] = append(result[lessonID], p)
	}
	return result, rows.Err()
}
