package authz

import (
	"testing"

	"github.com/openshelf/openshelf-backend/pkg/db/models"
	"github.com/openshelf/openshelf-backend/pkg/enums"
	pkgerrors "github.com/openshelf/openshelf-backend/pkg/errors"
)

func TestAuthorizeMutation(t *testing.T) {
	book := &models.Book{CreatedBy: "owner-1"}

	if err := AuthorizeMutation(Actor{UID: "owner-1", Role: enums.UserRoleStudent}, book); err != nil {
		t.Fatalf("owner should be allowed: %v", err)
	}

	err := AuthorizeMutation(Actor{UID: "intruder", Role: enums.UserRoleStudent}, book)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// Admin role grants maintenance routes, not ownership.
	err = AuthorizeMutation(Actor{UID: "admin-1", Role: enums.UserRoleAdmin}, book)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-owner admin, got %v", err)
	}

	err = AuthorizeMutation(Actor{}, book)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for anonymous actor, got %v", err)
	}
}

func TestAuthorizeDeleteBlocksBorrowedBook(t *testing.T) {
	borrower := "reader-2"
	book := &models.Book{CreatedBy: "owner-1", CurrentBorrower: &borrower}

	err := AuthorizeDelete(Actor{UID: "owner-1"}, book)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %T", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["reason"] != ReasonBorrowed {
		t.Fatalf("expected reason %q in details, got %v", ReasonBorrowed, typed.Details())
	}

	// The loan denial applies to non-owners too, reason included.
	err = AuthorizeDelete(Actor{UID: "intruder"}, book)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-owner on borrowed book, got %v", err)
	}
	typed = pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %T", err)
	}
	details, ok = typed.Details().(map[string]any)
	if !ok || details["reason"] != ReasonBorrowed {
		t.Fatalf("expected reason %q for non-owner, got %v", ReasonBorrowed, typed.Details())
	}

	book.CurrentBorrower = nil
	if err := AuthorizeDelete(Actor{UID: "owner-1"}, book); err != nil {
		t.Fatalf("returned book should be deletable by owner: %v", err)
	}

	err = AuthorizeDelete(Actor{UID: "intruder"}, book)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
}
