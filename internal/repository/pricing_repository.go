package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PricingRepository struct {
	*base.Repository
}

func NewPricingRepository(pool *pgxpool.Pool) *PricingRepository {
	return &PricingRepository{Repository: base.NewRepository(pool)}
}

const pricingColumns = `id, subject, education_level, individual_price, group_price, is_active, created_at, updated_at`

func (r *PricingRepository) Create(ctx context.Context, entry *model.PricingEntry) error {
	query := `
		INSERT INTO pricing (id, subject, education_level, individual_price, group_price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.QueryRow(
		ctx, query,
		entry.ID,
		entry.Subject,
		entry.EducationLevel,
		entry.IndividualPrice,
		entry.GroupPrice,
		entry.IsActive,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create pricing entry: %w", err)
	}
	return nil
}

func (r *PricingRepository) GetByID(ctx context.Context, id string) (*model.PricingEntry, error) {
	query := `SELECT ` + pricingColumns + ` FROM pricing WHERE id = $1`

	entry, err := scanPricing(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pricing by id: %w", err)
	}
	return entry, nil
}

// FindBySubjectAndLevel returns the active entry matching the subject
// (case-insensitive) and education level exactly, or nil.
func (r *PricingRepository) FindBySubjectAndLevel(ctx context.Context, subject string, level model.EducationLevel) (*model.PricingEntry, error) {
	query := `
		SELECT ` + pricingColumns + `
		FROM pricing
		WHERE LOWER(subject) = LOWER($1) AND education_level = $2 AND is_active
		LIMIT 1
	`
	entry, err := scanPricing(r.QueryRow(ctx, query, subject, level))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pricing by subject and level: %w", err)
	}
	return entry, nil
}

// FindAnyBySubject returns some active entry for the subject regardless of
// education level, or nil. Used by the resolver's second fallback stage.
func (r *PricingRepository) FindAnyBySubject(ctx context.Context, subject string) (*model.PricingEntry, error) {
	query := `
		SELECT ` + pricingColumns + `
		FROM pricing
		WHERE LOWER(subject) = LOWER($1) AND is_active
		ORDER BY education_level
		LIMIT 1
	`
	entry, err := scanPricing(r.QueryRow(ctx, query, subject))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pricing by subject: %w", err)
	}
	return entry, nil
}

// SubjectAndLevelExists reports whether another active entry already claims
// the (subject, level) pair, excluding excludeID when non-empty.
func (r *PricingRepository) SubjectAndLevelExists(ctx context.Context, subject string, level model.EducationLevel, excludeID string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM pricing
		WHERE LOWER(subject) = LOWER($1) AND education_level = $2 AND is_active AND id <> $3
	`
	var count int64
	if err := r.QueryRow(ctx, query, subject, level, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("check pricing uniqueness: %w", err)
	}
	return count > 0, nil
}

// GetAll returns every entry sorted by subject, then level.
func (r *PricingRepository) GetAll(ctx context.Context) ([]*model.PricingEntry, error) {
	query := `SELECT ` + pricingColumns + ` FROM pricing ORDER BY subject, education_level`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all pricing: %w", err)
	}
	defer rows.Close()

	var entries []*model.PricingEntry
	for rows.Next() {
		entry, err := scanPricing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pricing: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *PricingRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM pricing WHERE is_active`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active pricing: %w", err)
	}
	return count, nil
}

func (r *PricingRepository) Update(ctx context.Context, entry *model.PricingEntry) error {
	query := `
		UPDATE pricing
		SET subject = $2, education_level = $3, individual_price = $4, group_price = $5, updated_at = NOW()
		WHERE id = $1
	`
	affected, err := r.ExecAffected(ctx, query,
		entry.ID, entry.Subject, entry.EducationLevel, entry.IndividualPrice, entry.GroupPrice)
	if err != nil {
		return fmt.Errorf("update pricing: %w", err)
	}
	if affected == 0 {
		return &model.NotFoundError{Entity: "pricing entry", ID: entry.ID}
	}
	return nil
}

// Delete removes the entry permanently; pricing has no soft delete.
func (r *PricingRepository) Delete(ctx context.Context, id string) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM pricing WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete pricing: %w", err)
	}
	return affected > 0, nil
}

func scanPricing(row pgx.Row) (*model.PricingEntry, error) {
	var entry model.PricingEntry
	err := row.Scan(
		&entry.ID,
		&entry.Subject,
		&entry.EducationLevel,
		&entry.IndividualPrice,
		&entry.GroupPrice,
		&entry.IsActive,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
