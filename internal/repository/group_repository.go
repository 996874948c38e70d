package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrGroupNotFound     = errors.New("product group not found")
	ErrGroupSlugConflict = errors.New("product group with this slug already exists")
)

// GroupRepository defines the interface for product group data access.
// All reads exclude soft-deleted groups.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.ProductGroup) error
	Update(ctx context.Context, group *domain.ProductGroup) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductGroup, error)
	FindBySlug(ctx context.Context, slug string) (*domain.ProductGroup, error)
	List(ctx context.Context) ([]*domain.ProductGroup, error)
	ListParents(ctx context.Context) ([]*domain.ProductGroup, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.ProductGroup, error)
	CountChildren(ctx context.Context, parentID uuid.UUID) (int, error)
}

type groupRepository struct {
	db *sql.DB
}

// NewGroupRepository creates a new instance of GroupRepository
func NewGroupRepository(db *sql.DB) GroupRepository {
	return &groupRepository{db: db}
}

const groupColumns = `id, parent_id, name, description, slug, image_url, created_at, updated_at, deleted_at`

func scanGroup(row interface{ Scan(...any) error }) (*domain.ProductGroup, error) {
	group := &domain.ProductGroup{}
	err := row.Scan(
		&group.ID,
		&group.ParentID,
		&group.Name,
		&group.Description,
		&group.Slug,
		&group.ImageURL,
		&group.CreatedAt,
		&group.UpdatedAt,
		&group.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// Create inserts a new product group using parameterized queries
func (r *groupRepository) Create(ctx context.Context, group *domain.ProductGroup) error {
	query := `
		INSERT INTO product_groups (id, parent_id, name, description, slug, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		group.ID,
		group.ParentID,
		group.Name,
		group.Description,
		group.Slug,
		group.ImageURL,
		group.CreatedAt,
	)

	if err != nil {
		if uniqueViolation(err, "product_groups_slug_live_key") {
			return ErrGroupSlugConflict
		}
		return fmt.Errorf("failed to create product group: %w", err)
	}

	return nil
}

// Update updates an existing product group
func (r *groupRepository) Update(ctx context.Context, group *domain.ProductGroup) error {
	query := `
		UPDATE product_groups
		SET parent_id = $2, name = $3, description = $4, slug = $5, image_url = $6
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		group.ID,
		group.ParentID,
		group.Name,
		group.Description,
		group.Slug,
		group.ImageURL,
	)

	if err != nil {
		if uniqueViolation(err, "product_groups_slug_live_key") {
			return ErrGroupSlugConflict
		}
		return fmt.Errorf("failed to update product group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// SoftDelete stamps deleted_at instead of removing the row
func (r *groupRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE product_groups SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrGroupNotFound
	}

	return nil
}

func (r *groupRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM product_groups WHERE id = $1 AND deleted_at IS NULL`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find product group by ID: %w", err)
	}

	return group, nil
}

func (r *groupRepository) FindBySlug(ctx context.Context, slug string) (*domain.ProductGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM product_groups WHERE slug = $1 AND deleted_at IS NULL`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find product group by slug: %w", err)
	}

	return group, nil
}

// List retrieves all live product groups ordered by name
func (r *groupRepository) List(ctx context.Context) ([]*domain.ProductGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM product_groups WHERE deleted_at IS NULL ORDER BY name ASC`
	return r.queryGroups(ctx, query)
}

// ListParents retrieves live groups without a parent (roots of the tree)
func (r *groupRepository) ListParents(ctx context.Context) ([]*domain.ProductGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM product_groups WHERE deleted_at IS NULL AND parent_id IS NULL ORDER BY name ASC`
	return r.queryGroups(ctx, query)
}

// ListChildren retrieves live subgroups of the given parent
func (r *groupRepository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.ProductGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM product_groups WHERE deleted_at IS NULL AND parent_id = $1 ORDER BY name ASC`
	return r.queryGroups(ctx, query, parentID)
}

func (r *groupRepository) CountChildren(ctx context.Context, parentID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM product_groups WHERE deleted_at IS NULL AND parent_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, parentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count subgroups: %w", err)
	}

	return count, nil
}

func (r *groupRepository) queryGroups(ctx context.Context, query string, args ...any) ([]*domain.ProductGroup, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list product groups: %w", err)
	}
	defer rows.Close()

	groups := []*domain.ProductGroup{}
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product group: %w", err)
		}
		groups = append(groups, group)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product groups: %w", err)
	}

	return groups, nil
}
