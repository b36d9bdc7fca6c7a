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

// UserFilter narrows account queries. Search matches username, first or last
// name by case-insensitive substring.
type UserFilter struct {
	Role   model.Role
	Status model.UserStatus
	Search string
}

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(pool)}
}

const userColumns = `id, username, hashed_password, role, status, COALESCE(email, ''),
		COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(phone, ''),
		last_login, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, hashed_password, role, status, email, first_name, last_name, phone)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''))
		RETURNING created_at
	`
	err := r.QueryRow(
		ctx, query,
		user.ID,
		user.Username,
		user.HashedPassword,
		user.Role,
		user.Status,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Phone,
	).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.QueryRow(ctx, query, username))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE email = $1`, email).Scan(&count); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

// Find returns matching users sorted by username.
func (r *UserRepository) Find(ctx context.Context, f UserFilter) ([]*model.User, error) {
	var clauses []string
	var args []interface{}

	if f.Role != "" {
		args = append(args, f.Role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(username ILIKE '%%' || $%d || '%%' OR first_name ILIKE '%%' || $%d || '%%' OR last_name ILIKE '%%' || $%d || '%%')",
			n, n, n))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY username"

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) CountByRole(ctx context.Context, role model.Role, status model.UserStatus) (int64, error) {
	var count int64
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1 AND status = $2`, role, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return count, nil
}

func (r *UserRepository) SetStatus(ctx context.Context, id string, status model.UserStatus) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	if affected == 0 {
		return &model.NotFoundError{Entity: "user", ID: id}
	}
	return nil
}

func (r *UserRepository) SetPassword(ctx context.Context, id, hashedPassword string) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE users SET hashed_password = $2, updated_at = NOW() WHERE id = $1`, id, hashedPassword)
	if err != nil {
		return fmt.Errorf("set user password: %w", err)
	}
	if affected == 0 {
		return &model.NotFoundError{Entity: "user", ID: id}
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := r.ExecAffected(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.HashedPassword,
		&user.Role,
		&user.Status,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
