package shortlinks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/pkg/db"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
	"github.com/angelmondragon/foodgram-backend/pkg/shortlink"
)

// PathPrefix is the route short links are served under.
const PathPrefix = "/s/"

// LinkDTO is the response of the get-link endpoint.
type LinkDTO struct {
	ShortLink string `json:"short-link"`
}

// Service builds and resolves recipe short links.
type Service interface {
	Link(ctx context.Context, recipeID uuid.UUID) (*LinkDTO, error)
	Resolve(ctx context.Context, slug string) (uuid.UUID, error)
}

type slugStore interface {
	shortlink.Checker
	FindByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	FindBySlug(ctx context.Context, slug string) (*models.Recipe, error)
	SetSlug(ctx context.Context, id uuid.UUID, slug string) (bool, error)
}

type slugGenerator interface {
	Generate(ctx context.Context, checker shortlink.Checker) (string, error)
}

// ServiceParams bundles the dependencies required to build a shortlinks service.
type ServiceParams struct {
	Store     slugStore
	Generator slugGenerator
	BaseURL   string
}

type service struct {
	store   slugStore
	gen     slugGenerator
	baseURL string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("slug store is required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("slug generator is required")
	}
	return &service{
		store:   params.Store,
		gen:     params.Generator,
		baseURL: strings.TrimRight(params.BaseURL, "/"),
	}, nil
}

func (s *service) Link(ctx context.Context, recipeID uuid.UUID) (*LinkDTO, error) {
	recipe, err := s.store.FindByID(ctx, recipeID)
	if err != nil {
		return nil, notFoundOr(err, "load recipe")
	}
	slug, err := s.ensureSlug(ctx, recipe)
	if err != nil {
		return nil, err
	}
	return &LinkDTO{ShortLink: s.baseURL + PathPrefix + slug}, nil
}

// ensureSlug backfills a slug for recipes stored before slugs were assigned.
func (s *service) ensureSlug(ctx context.Context, recipe *models.Recipe) (string, error) {
	if recipe.Slug != nil && *recipe.Slug != "" {
		return *recipe.Slug, nil
	}
	slug, err := s.gen.Generate(ctx, s.store)
	if err != nil {
		if errors.Is(err, shortlink.ErrSlugSpaceExhausted) {
			return "", pkgerrors.Wrap(pkgerrors.CodeSlugExhausted, err, "short link space exhausted")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate slug")
	}
	assigned, err := s.store.SetSlug(ctx, recipe.ID, slug)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return "", pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "short link collision, retry")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign slug")
	}
	if assigned {
		return slug, nil
	}
	// a concurrent request assigned one first
	reloaded, err := s.store.FindByID(ctx, recipe.ID)
	if err != nil {
		return "", notFoundOr(err, "reload recipe")
	}
	if reloaded.Slug == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "slug missing after assignment")
	}
	return *reloaded.Slug, nil
}

func (s *service) Resolve(ctx context.Context, slug string) (uuid.UUID, error) {
	if !shortlink.Valid(slug) {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "short link not found")
	}
	recipe, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "short link not found")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve short link")
	}
	return recipe.ID, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
