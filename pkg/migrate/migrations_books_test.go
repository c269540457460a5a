package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openshelf/openshelf-backend/pkg/migrate"
)

func TestBooksMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_books.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no books migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE books",
		"created_by TEXT NOT NULL REFERENCES users (id)",
		"current_borrower TEXT REFERENCES users (id)",
		"borrow_history JSONB NOT NULL DEFAULT '[]'::jsonb",
		"CREATE INDEX books_title_idx ON books (title)",
		"DROP TABLE books",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirectoryIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
