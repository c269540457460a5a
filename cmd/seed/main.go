package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/internal/books"
	"github.com/openshelf/openshelf-backend/internal/users"
	"github.com/openshelf/openshelf-backend/pkg/config"
	"github.com/openshelf/openshelf-backend/pkg/db"
	"github.com/openshelf/openshelf-backend/pkg/db/models"
	"github.com/openshelf/openshelf-backend/pkg/enums"
	"github.com/openshelf/openshelf-backend/pkg/logger"
)

const seedLibrarianEmail = "librarian@openshelf.io"

type seedBook struct {
	Title           string
	Author          string
	Publisher       string
	PublishYear     int
	PublishLocation string
	Description     string
}

var catalog = []seedBook{
	{
		Title:           "The Go Programming Language",
		Author:          "Alan A. A. Donovan",
		Publisher:       "Addison-Wesley",
		PublishYear:     2015,
		PublishLocation: "Boston",
		Description:     "The authoritative resource for writing clear and idiomatic Go.",
	},
	{
		Title:           "Designing Data-Intensive Applications",
		Author:          "Martin Kleppmann",
		Publisher:       "O'Reilly Media",
		PublishYear:     2017,
		PublishLocation: "Sebastopol",
		Description:     "The big ideas behind reliable, scalable, and maintainable systems.",
	},
	{
		Title:           "A Tour of C++",
		Author:          "Bjarne Stroustrup",
		Publisher:       "Addison-Wesley",
		PublishYear:     2018,
		PublishLocation: "Boston",
		Description:     "A concise guided walk through the modern C++ language and library.",
	},
	{
		Title:           "Structure and Interpretation of Computer Programs",
		Author:          "Harold Abelson",
		Publisher:       "MIT Press",
		PublishYear:     1996,
		PublishLocation: "Cambridge",
		Description:     "A classic introduction to the craft of programming with Scheme.",
	},
	{
		Title:           "The Mythical Man-Month",
		Author:          "Frederick P. Brooks Jr.",
		Publisher:       "Addison-Wesley",
		PublishYear:     1995,
		PublishLocation: "Reading",
		Description:     "Essays on software engineering and the economics of large projects.",
	},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	clear := flag.Bool("clear", false, "delete existing catalog rows before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.App.IsProd() {
		logg.Error(context.Background(), "refusing to seed a production database", errors.New("env is prod"))
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":   cfg.App.Env,
		"books": len(catalog),
		"clear": *clear,
	})

	// All-or-nothing: the catalog either lands complete or not at all.
	err = dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if *clear {
			if err := tx.Where("1 = 1").Delete(&models.Book{}).Error; err != nil {
				return err
			}
		}

		librarian, err := ensureLibrarian(ctx, tx)
		if err != nil {
			return err
		}

		repo := books.NewRepository(tx)
		for _, entry := range catalog {
			book := &models.Book{
				Title:           entry.Title,
				Author:          entry.Author,
				Publisher:       entry.Publisher,
				PublishYear:     entry.PublishYear,
				PublishLocation: entry.PublishLocation,
				Description:     entry.Description,
				CreatedBy:       librarian.ID,
				CreatorName:     &librarian.FullName,
				IsAvailable:     true,
			}
			if _, err := repo.Create(ctx, book); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logg.Error(ctx, "seeding failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, "catalog seeded")
}

func ensureLibrarian(ctx context.Context, tx *gorm.DB) (*models.User, error) {
	repo := users.NewRepository(tx)
	if existing, err := repo.FindByEmail(ctx, seedLibrarianEmail); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return repo.Create(ctx, users.CreateUserDTO{
		ID:       uuid.NewString(),
		Email:    seedLibrarianEmail,
		Role:     enums.UserRoleAdmin,
		FullName: "OpenShelf Librarian",
	})
}
