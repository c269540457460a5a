package books

import (
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/openshelf-backend/pkg/db/models"
	dbtypes "github.com/openshelf/openshelf-backend/pkg/db/types"
	"github.com/openshelf/openshelf-backend/pkg/pagination"
	"github.com/openshelf/openshelf-backend/pkg/types"
)

// BookDTO is the transport shape for a catalog entry.
type BookDTO struct {
	ID              uuid.UUID            `json:"id"`
	Title           string               `json:"title"`
	Author          string               `json:"author"`
	Publisher       string               `json:"publisher"`
	PublishYear     int                  `json:"publish_year"`
	PublishLocation string               `json:"publish_location"`
	Description     string               `json:"description"`
	ImageURL        *string              `json:"image_url,omitempty"`
	CreatedBy       string               `json:"created_by"`
	CreatorName     *string              `json:"creator_name,omitempty"`
	IsAvailable     bool                 `json:"is_available"`
	CurrentBorrower *string              `json:"current_borrower,omitempty"`
	BorrowHistory   dbtypes.BorrowEvents `json:"borrow_history"`
	CreatedAt       time.Time            `json:"created_at"`
	LastUpdated     time.Time            `json:"last_updated"`
}

// CreateBookInput carries the payload for creating a catalog entry.
type CreateBookInput struct {
	Title           string  `json:"title" validate:"required,min=1,max=500"`
	Author          string  `json:"author" validate:"required,min=1,max=300"`
	Publisher       string  `json:"publisher" validate:"required,min=1,max=300"`
	PublishYear     int     `json:"publish_year" validate:"required,gte=1000"`
	PublishLocation string  `json:"publish_location" validate:"required,min=1,max=300"`
	Description     string  `json:"description" validate:"required,min=10"`
	ImageURL        *string `json:"image_url" validate:"omitempty,url"`
}

// UpdateBookInput carries the partial-update payload. Only the descriptive
// allowlist is reachable; ownership and status fields are not. An explicit
// `"image_url": null` clears the cover image.
type UpdateBookInput struct {
	Title           *string              `json:"title" validate:"omitempty,min=1,max=500"`
	Author          *string              `json:"author" validate:"omitempty,min=1,max=300"`
	Publisher       *string              `json:"publisher" validate:"omitempty,min=1,max=300"`
	PublishYear     *int                 `json:"publish_year" validate:"omitempty,gte=1000"`
	PublishLocation *string              `json:"publish_location" validate:"omitempty,min=1,max=300"`
	Description     *string              `json:"description" validate:"omitempty,min=10"`
	ImageURL        types.OptionalString `json:"image_url"`
}

// HasChanges reports whether any mutable field was provided.
func (i UpdateBookInput) HasChanges() bool {
	return i.Title != nil || i.Author != nil || i.Publisher != nil ||
		i.PublishYear != nil || i.PublishLocation != nil || i.Description != nil ||
		i.ImageURL.Set
}

// ListQuery captures the list endpoint inputs before normalization.
type ListQuery struct {
	SortBy     string
	Order      string
	Pagination pagination.Params
}

// SearchQuery captures the prefix search inputs.
type SearchQuery struct {
	Field string
	Query string
	Limit int
}

func FromModel(b *models.Book) *BookDTO {
	if b == nil {
		return nil
	}
	history := b.BorrowHistory
	if history == nil {
		history = dbtypes.BorrowEvents{}
	}
	return &BookDTO{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Publisher:       b.Publisher,
		PublishYear:     b.PublishYear,
		PublishLocation: b.PublishLocation,
		Description:     b.Description,
		ImageURL:        b.ImageURL,
		CreatedBy:       b.CreatedBy,
		CreatorName:     b.CreatorName,
		IsAvailable:     b.IsAvailable,
		CurrentBorrower: b.CurrentBorrower,
		BorrowHistory:   history,
		CreatedAt:       b.CreatedAt,
		LastUpdated:     b.LastUpdated,
	}
}

func fromModels(items []models.Book) []BookDTO {
	dtos := make([]BookDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *FromModel(&items[i]))
	}
	return dtos
}
