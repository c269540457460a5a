package books

import (
	"fmt"
	"testing"

	"github.com/openshelf/openshelf-backend/pkg/db/models"
	dbtypes "github.com/openshelf/openshelf-backend/pkg/db/types"
	"github.com/openshelf/openshelf-backend/pkg/enums"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Book{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func mustCreateTestUser(t *testing.T, tx *gorm.DB, id, fullName string) *models.User {
	t.Helper()
	user := &models.User{
		ID:          id,
		Email:       fmt.Sprintf("%s@example.com", id),
		Role:        enums.UserRoleStudent,
		FullName:    fullName,
		SocialLinks: []string{},
		Theme:       "light",
		IsActive:    true,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateTestBook(t *testing.T, tx *gorm.DB, createdBy, title string, mutate func(*models.Book)) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:           title,
		Author:          "Test Author",
		Publisher:       "Test Press",
		PublishYear:     1999,
		PublishLocation: "Berlin",
		Description:     "A helper fixture for repository tests.",
		CreatedBy:       createdBy,
		IsAvailable:     true,
		BorrowHistory:   dbtypes.BorrowEvents{},
	}
	if mutate != nil {
		mutate(book)
	}
	if err := tx.Create(book).Error; err != nil {
		t.Fatalf("create book: %v", err)
	}
	return book
}
