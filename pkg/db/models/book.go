package models

import (
	"time"

	"github.com/google/uuid"
	dbtypes "github.com/openshelf/openshelf-backend/pkg/db/types"
	"gorm.io/gorm"
)

// Book is a catalog entry. Ownership is fixed at creation: created_by never
// changes, and only that user may mutate or delete the row.
type Book struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title           string  `gorm:"type:text;not null"`
	Author          string  `gorm:"type:text;not null"`
	Publisher       string  `gorm:"type:text;not null"`
	PublishYear     int     `gorm:"column:publish_year;not null"`
	PublishLocation string  `gorm:"column:publish_location;not null"`
	Description     string  `gorm:"type:text;not null"`
	ImageURL        *string `gorm:"column:image_url"`

	CreatedBy   string  `gorm:"column:created_by;type:text;not null;index"`
	CreatorName *string `gorm:"column:creator_name"`

	IsAvailable     bool                 `gorm:"column:is_available;not null;default:true"`
	CurrentBorrower *string              `gorm:"column:current_borrower;type:text"`
	BorrowHistory   dbtypes.BorrowEvents `gorm:"column:borrow_history;type:jsonb"`

	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	LastUpdated time.Time `gorm:"column:last_updated;autoUpdateTime"`
}

// BeforeCreate assigns the store id so the same code path works on both
// postgres and the sqlite test driver.
func (b *Book) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
