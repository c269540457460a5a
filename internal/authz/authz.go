package authz

import (
	"github.com/openshelf/openshelf-backend/pkg/db/models"
	"github.com/openshelf/openshelf-backend/pkg/enums"
	pkgerrors "github.com/openshelf/openshelf-backend/pkg/errors"
)

// ReasonBorrowed tags denials caused by an open loan on the resource.
const ReasonBorrowed = "resource-borrowed"

// Actor is the authenticated principal attempting an operation.
type Actor struct {
	UID  string
	Role enums.UserRole
}

// AuthorizeMutation permits updates only to the user who created the book.
// Pure, no I/O.
func AuthorizeMutation(actor Actor, book *models.Book) error {
	if book == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "book is required")
	}
	if actor.UID == "" || book.CreatedBy != actor.UID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the creator may modify this book")
	}
	return nil
}

// AuthorizeDelete applies the loan invariant plus the mutation rule: a book
// with an open borrower can never be deleted, no matter who asks, so the
// borrowed denial wins over the ownership one.
func AuthorizeDelete(actor Actor, book *models.Book) error {
	if book == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "book is required")
	}
	if book.CurrentBorrower != nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "book is currently borrowed").
			WithDetails(map[string]any{"reason": ReasonBorrowed})
	}
	return AuthorizeMutation(actor, book)
}
