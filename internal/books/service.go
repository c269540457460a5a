package books

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/openshelf-backend/internal/authz"
	"github.com/openshelf/openshelf-backend/internal/users"
	"github.com/openshelf/openshelf-backend/pkg/db"
	"github.com/openshelf/openshelf-backend/pkg/db/models"
	dbtypes "github.com/openshelf/openshelf-backend/pkg/db/types"
	pkgerrors "github.com/openshelf/openshelf-backend/pkg/errors"
	"github.com/openshelf/openshelf-backend/pkg/metrics"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const backfillJobName = "backfill-creator-names"

type directoryLookup interface {
	GetByID(ctx context.Context, id string) (*users.UserDTO, error)
}

// Service implements the catalog operations on top of the repository.
type Service struct {
	repo      *Repository
	directory directoryLookup
	client    *db.Client
	jobs      *metrics.MaintenanceJobMetrics
}

// ServiceParams bundles the dependencies required to build a book service.
type ServiceParams struct {
	Repo       *Repository
	Directory  directoryLookup
	DB         *db.Client
	JobMetrics *metrics.MaintenanceJobMetrics
}

// NewService constructs a book service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("book repository is required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	return &Service{
		repo:      params.Repo,
		directory: params.Directory,
		client:    params.DB,
		jobs:      params.JobMetrics,
	}, nil
}

// Create validates the input, snapshots the creator identity, and persists
// the new catalog entry with a fresh loan status.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input CreateBookInput) (*BookDTO, error) {
	if err := validatePublishYear(input.PublishYear); err != nil {
		return nil, err
	}

	creatorName, err := s.creatorNameSnapshot(ctx, actor.UID)
	if err != nil {
		return nil, err
	}

	book := &models.Book{
		Title:           strings.TrimSpace(input.Title),
		Author:          strings.TrimSpace(input.Author),
		Publisher:       strings.TrimSpace(input.Publisher),
		PublishYear:     input.PublishYear,
		PublishLocation: strings.TrimSpace(input.PublishLocation),
		Description:     input.Description,
		ImageURL:        input.ImageURL,
		CreatedBy:       actor.UID,
		CreatorName:     creatorName,
		IsAvailable:     true,
		BorrowHistory:   dbtypes.BorrowEvents{},
	}

	created, err := s.repo.Create(ctx, book)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create book")
	}
	return FromModel(created), nil
}

// GetByID returns the book projection or NotFound.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*BookDTO, error) {
	book, err := s.loadBook(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(book), nil
}

// Update applies the owner-gated partial update and returns the refreshed
// projection.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, input UpdateBookInput) (*BookDTO, error) {
	if !input.HasChanges() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no mutable fields provided")
	}
	if input.PublishYear != nil {
		if err := validatePublishYear(*input.PublishYear); err != nil {
			return nil, err
		}
	}

	book, err := s.loadBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeMutation(actor, book); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		updates["author"] = strings.TrimSpace(*input.Author)
	}
	if input.Publisher != nil {
		updates["publisher"] = strings.TrimSpace(*input.Publisher)
	}
	if input.PublishYear != nil {
		updates["publish_year"] = *input.PublishYear
	}
	if input.PublishLocation != nil {
		updates["publish_location"] = strings.TrimSpace(*input.PublishLocation)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ImageURL.Set {
		updates["image_url"] = input.ImageURL.Value
	}
	updates["last_updated"] = time.Now().UTC()

	if err := s.repo.ApplyUpdates(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update book")
	}
	return s.GetByID(ctx, id)
}

// Delete removes the book after re-checking ownership and the loan invariant
// on a locked fresh read inside one transaction.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		book, err := txRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book for delete")
		}
		if err := authz.AuthorizeDelete(actor, book); err != nil {
			return err
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete book")
		}
		return nil
	})
}

// List returns one page of the catalog plus the total row count.
func (s *Service) List(ctx context.Context, query ListQuery) ([]BookDTO, int64, error) {
	if query.SortBy != "" {
		if _, ok := sortColumns[query.SortBy]; !ok {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported sort field %q", query.SortBy))
		}
	}
	if query.Order != "" && query.Order != "asc" && query.Order != "desc" {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "order must be asc or desc")
	}

	items, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list books")
	}
	return fromModels(items), total, nil
}

// SearchByPrefix returns the catalog entries whose field starts with the
// query string.
func (s *Service) SearchByPrefix(ctx context.Context, query SearchQuery) ([]BookDTO, error) {
	prefix := query.Query
	if strings.TrimSpace(prefix) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}
	field := query.Field
	if field == "" {
		field = "title"
	}
	if _, ok := searchColumns[field]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsearchable field %q", field))
	}

	items, err := s.repo.SearchByPrefix(ctx, field, prefix, query.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search books")
	}
	return fromModels(items), nil
}

// BackfillReport summarizes one backfill run.
type BackfillReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// BackfillCreatorNames patches creator_name on books that never got the
// snapshot, from the creator's current full name. Idempotent: populated names
// are left alone, and per-book failures do not abort the scan.
func (s *Service) BackfillCreatorNames(ctx context.Context) (BackfillReport, error) {
	started := time.Now()
	report := BackfillReport{}

	missing, err := s.repo.FindMissingCreatorNames(ctx)
	if err != nil {
		s.jobs.IncFailure(backfillJobName)
		return report, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scan books missing creator name")
	}
	report.Scanned = len(missing)

	var failures error
	for i := range missing {
		book := &missing[i]

		creator, err := s.directory.GetByID(ctx, book.CreatedBy)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				report.Skipped++
				continue
			}
			report.Failed++
			failures = multierr.Append(failures, fmt.Errorf("book %s: %w", book.ID, err))
			continue
		}
		name := strings.TrimSpace(creator.FullName)
		if name == "" {
			report.Skipped++
			continue
		}

		if err := s.repo.BackfillCreatorName(ctx, book.ID, name); err != nil {
			report.Failed++
			failures = multierr.Append(failures, fmt.Errorf("book %s: %w", book.ID, err))
			continue
		}
		report.Updated++
	}

	s.jobs.ObserveDuration(backfillJobName, time.Since(started))
	s.jobs.AddRowsUpdated(backfillJobName, report.Updated)
	if failures != nil {
		s.jobs.IncFailure(backfillJobName)
		return report, pkgerrors.Wrap(pkgerrors.CodeInternal, failures, "backfill creator names")
	}
	s.jobs.IncSuccess(backfillJobName)
	return report, nil
}

func (s *Service) loadBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}
	return book, nil
}

func (s *Service) creatorNameSnapshot(ctx context.Context, uid string) (*string, error) {
	creator, err := s.directory.GetByID(ctx, uid)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	name := strings.TrimSpace(creator.FullName)
	if name == "" {
		return nil, nil
	}
	return &name, nil
}

func validatePublishYear(year int) error {
	current := time.Now().UTC().Year()
	if year < 1000 || year > current {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("publish_year must be between 1000 and %d", current))
	}
	return nil
}
