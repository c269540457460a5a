package controllers

import (
	"net/http"

	"github.com/openshelf/openshelf-backend/api/responses"
	booksvc "github.com/openshelf/openshelf-backend/internal/books"
	pkgerrors "github.com/openshelf/openshelf-backend/pkg/errors"
	"github.com/openshelf/openshelf-backend/pkg/logger"
)

// BackfillCreatorNames stamps missing creator_name snapshots across the catalog.
func BackfillCreatorNames(svc *booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}

		report, err := svc.BackfillCreatorNames(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
