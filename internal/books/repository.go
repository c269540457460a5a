package books

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openshelf/openshelf-backend/internal/repo"
	"github.com/openshelf/openshelf-backend/pkg/db/models"
	"github.com/openshelf/openshelf-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// prefixSentinel is the highest code point in the Unicode private use area.
// Appending it to a prefix turns `>= prefix AND <= prefix+sentinel` into a
// prefix match over the whole range of continuations.
const prefixSentinel = "\uf8ff"

// sortColumns is the allowlist for list ordering. Anything else falls back
// to title.
var sortColumns = map[string]string{
	"title":        "title",
	"author":       "author",
	"publish_year": "publish_year",
	"created_at":   "created_at",
	"last_updated": "last_updated",
}

// searchColumns is the allowlist for prefix search fields. Every stored
// string column is searchable; the allowlist keeps the interpolation safe.
var searchColumns = map[string]string{
	"title":            "title",
	"author":           "author",
	"publisher":        "publisher",
	"publish_location": "publish_location",
	"description":      "description",
}

// Repository exposes book persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Create inserts the book and returns the persisted row.
func (r *Repository) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.DB(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// FindByID loads the book without locking.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.DB(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByIDForUpdate loads the book under a row lock. Must run inside a
// transaction.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	q := r.DB(ctx)
	// The sqlite test driver has no FOR UPDATE; its transactions lock the
	// whole database anyway.
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// ApplyUpdates patches the provided columns on the book row.
func (r *Repository) ApplyUpdates(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.DB(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the book row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Book{}, "id = ?", id).Error
}

// List returns one page of books plus the total row count.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Book, int64, error) {
	column, ok := sortColumns[query.SortBy]
	if !ok {
		column = "title"
	}
	direction := "ASC"
	if query.Order == "desc" {
		direction = "DESC"
	}
	params := query.Pagination.Normalize()

	var total int64
	if err := r.DB(ctx).Model(&models.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Book
	if err := r.DB(ctx).
		Order(fmt.Sprintf("%s %s", column, direction)).
		Order("id ASC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SearchByPrefix range-scans the allowlisted column for entries starting with
// the prefix. The match is case-sensitive so the scan can ride the column
// index.
func (r *Repository) SearchByPrefix(ctx context.Context, field, prefix string, limit int) ([]models.Book, error) {
	column, ok := searchColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsearchable field %q", field)
	}

	var items []models.Book
	if err := r.DB(ctx).
		Where(fmt.Sprintf("%s >= ? AND %s <= ?", column, column), prefix, prefix+prefixSentinel).
		Order(fmt.Sprintf("%s ASC", column)).
		Limit(pagination.NormalizeLimit(limit)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindMissingCreatorNames returns the books whose creator_name was never
// snapshotted.
func (r *Repository) FindMissingCreatorNames(ctx context.Context) ([]models.Book, error) {
	var items []models.Book
	if err := r.DB(ctx).
		Where("creator_name IS NULL OR creator_name = ''").
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// BackfillCreatorName writes the snapshot only when the column is still
// empty, keeping the operation idempotent under concurrent runs.
func (r *Repository) BackfillCreatorName(ctx context.Context, id uuid.UUID, name string) error {
	return r.DB(ctx).
		Model(&models.Book{}).
		Where("id = ? AND (creator_name IS NULL OR creator_name = '')", id).
		UpdateColumn("creator_name", name).Error
}
