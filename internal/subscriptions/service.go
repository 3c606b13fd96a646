package subscriptions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/internal/recipes"
	"github.com/angelmondragon/foodgram-backend/internal/users"
	"github.com/angelmondragon/foodgram-backend/pkg/db"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
	"github.com/angelmondragon/foodgram-backend/pkg/pagination"
)

const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
)

// Service defines the author subscription surface.
type Service interface {
	Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*AuthorDTO, error)
	Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, params pagination.Params, recipesLimit int) ([]AuthorDTO, int64, error)
}

type txRunner interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type recorder interface {
	IncSubscription(action string)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	DB      txRunner
	Metrics recorder
}

type service struct {
	db      txRunner
	metrics recorder
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	return &service{db: params.DB, metrics: params.Metrics}, nil
}

func (s *service) Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*AuthorDTO, error) {
	if userID == authorID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot subscribe to yourself").
			WithDetails(map[string]string{"author": "cannot subscribe to yourself"})
	}

	var author *models.User
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		found, err := repo.FindUser(ctx, authorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "author not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load author")
		}
		exists, err := repo.Exists(ctx, userID, authorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check subscription")
		}
		if exists {
			return alreadySubscribed()
		}
		if _, err := repo.Create(ctx, userID, authorID); err != nil {
			if db.IsUniqueViolation(err) {
				return alreadySubscribed()
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscription")
		}
		author = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(actionSubscribe)

	out, err := s.withRecipes(ctx, []models.User{*author}, map[uuid.UUID]bool{author.ID: true}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *service) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	repo := NewRepository(s.db.DB())
	if _, err := repo.FindUser(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "author not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load author")
	}
	deleted, err := repo.Delete(ctx, userID, authorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete subscription")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeMembershipConflict, "not subscribed to this author").
			WithDetails(map[string]string{"author": "not present"})
	}
	s.record(actionUnsubscribe)
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params, recipesLimit int) ([]AuthorDTO, int64, error) {
	params = params.Normalize()
	rows, total, err := NewRepository(s.db.DB()).ListAuthors(ctx, userID, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list subscriptions")
	}
	subscribed := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		subscribed[row.ID] = true
	}
	out, err := s.withRecipes(ctx, rows, subscribed, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *service) withRecipes(ctx context.Context, authors []models.User, subscribed map[uuid.UUID]bool, recipesLimit int) ([]AuthorDTO, error) {
	out := make([]AuthorDTO, 0, len(authors))
	if len(authors) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	repo := NewRepository(s.db.DB())
	byAuthor, err := repo.RecipesByAuthor(ctx, ids, recipesLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load author recipes")
	}
	counts, err := repo.RecipeCounts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count author recipes")
	}
	for i := range authors {
		short := make([]recipes.ShortRecipeDTO, 0, len(byAuthor[authors[i].ID]))
		for _, r := range byAuthor[authors[i].ID] {
			short = append(short, recipes.ShortFromModel(r))
		}
		out = append(out, AuthorDTO{
			UserDTO:      users.FromModel(&authors[i], subscribed[authors[i].ID]),
			Recipes:      short,
			RecipesCount: counts[authors[i].ID],
		})
	}
	return out, nil
}

func (s *service) record(action string) {
	if s.metrics != nil {
		s.metrics.IncSubscription(action)
	}
}

func alreadySubscribed() error {
	return pkgerrors.New(pkgerrors.CodeMembershipConflict, "already subscribed to this author").
		WithDetails(map[string]string{"author": "already subscribed"})
}
