package books

import (
	"context"
	"testing"

	"github.com/openshelf/openshelf-backend/pkg/db/models"
	"github.com/openshelf/openshelf-backend/pkg/pagination"
)

func TestListSortsAndPaginates(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := mustCreateTestUser(t, conn, "owner-1", "Owner One")
	for _, title := range []string{"Borges", "Austen", "Calvino"} {
		mustCreateTestBook(t, conn, owner.ID, title, nil)
	}

	items, total, err := repo.List(ctx, ListQuery{
		SortBy:     "title",
		Order:      "asc",
		Pagination: pagination.Params{Limit: 2, Page: 1},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(items) != 2 || items[0].Title != "Austen" || items[1].Title != "Borges" {
		t.Fatalf("unexpected first page: %+v", items)
	}

	items, _, err = repo.List(ctx, ListQuery{
		SortBy:     "title",
		Order:      "asc",
		Pagination: pagination.Params{Limit: 2, Page: 2},
	})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Calvino" {
		t.Fatalf("unexpected second page: %+v", items)
	}
}

func TestListDefaultsToTitleAscending(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := mustCreateTestUser(t, conn, "owner-1", "Owner One")
	for _, title := range []string{"Calvino", "Austen", "Borges"} {
		mustCreateTestBook(t, conn, owner.ID, title, nil)
	}

	items, total, err := repo.List(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected all 3 books, got total=%d len=%d", total, len(items))
	}
	if items[0].Title != "Austen" || items[1].Title != "Borges" || items[2].Title != "Calvino" {
		t.Fatalf("expected title ascending by default, got %+v", items)
	}
}

func TestListUnknownSortFallsBackToTitle(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	owner := mustCreateTestUser(t, conn, "owner-1", "Owner One")
	mustCreateTestBook(t, conn, owner.ID, "Only Book", nil)

	items, total, err := repo.List(context.Background(), ListQuery{SortBy: "borrow_history"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected the single book, got total=%d len=%d", total, len(items))
	}
}

func TestSearchByPrefix(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := mustCreateTestUser(t, conn, "owner-1", "Owner One")
	for _, title := range []string{"Go in Action", "Go Programming", "Going Postal", "Rust in Action"} {
		mustCreateTestBook(t, conn, owner.ID, title, nil)
	}

	items, err := repo.SearchByPrefix(ctx, "title", "Go", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 matches for 'Go', got %d", len(items))
	}
	for _, item := range items {
		if item.Title[:2] != "Go" {
			t.Fatalf("non-prefix match leaked: %q", item.Title)
		}
	}

	// Case-sensitive range scan.
	items, err = repo.SearchByPrefix(ctx, "title", "go", 10)
	if err != nil {
		t.Fatalf("search lowercase: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected case-sensitive miss, got %d matches", len(items))
	}

	// The other descriptive string columns are searchable too.
	items, err = repo.SearchByPrefix(ctx, "publisher", "Test", 10)
	if err != nil {
		t.Fatalf("search publisher: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected all 4 fixtures by publisher, got %d", len(items))
	}

	if _, err := repo.SearchByPrefix(ctx, "publish_year", "19", 10); err == nil {
		t.Fatal("expected error for unsearchable field")
	}
}

func TestBackfillCreatorNameIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := mustCreateTestUser(t, conn, "owner-1", "Owner One")
	missing := mustCreateTestBook(t, conn, owner.ID, "No Snapshot", nil)
	named := "Already Named"
	populated := mustCreateTestBook(t, conn, owner.ID, "Has Snapshot", func(b *models.Book) {
		b.CreatorName = &named
	})

	rows, err := repo.FindMissingCreatorNames(ctx)
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != missing.ID {
		t.Fatalf("expected only the unsnapshotted book, got %+v", rows)
	}

	if err := repo.BackfillCreatorName(ctx, missing.ID, "Owner One"); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if err := repo.BackfillCreatorName(ctx, populated.ID, "Someone Else"); err != nil {
		t.Fatalf("backfill populated: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, populated.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CreatorName == nil || *reloaded.CreatorName != "Already Named" {
		t.Fatalf("populated snapshot must never be overwritten, got %v", reloaded.CreatorName)
	}

	rows, err = repo.FindMissingCreatorNames(ctx)
	if err != nil {
		t.Fatalf("find missing after backfill: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no missing rows after backfill, got %d", len(rows))
	}
}
