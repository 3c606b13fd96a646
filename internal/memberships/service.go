package memberships

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/internal/recipes"
	"github.com/angelmondragon/foodgram-backend/pkg/db"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
)

const (
	actionAdd    = "add"
	actionRemove = "remove"
)

// Service manages a user's favorites and shopping cart.
type Service interface {
	Add(ctx context.Context, userID, recipeID uuid.UUID, list enums.MembershipList) (*recipes.ShortRecipeDTO, error)
	Remove(ctx context.Context, userID, recipeID uuid.UUID, list enums.MembershipList) error
}

type recorder interface {
	IncMembership(list, action string)
}

type service struct {
	db      *db.Client
	metrics recorder
}

func NewService(client *db.Client, metrics recorder) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("database client is required")
	}
	return &service{db: client, metrics: metrics}, nil
}

func (s *service) Add(ctx context.Context, userID, recipeID uuid.UUID, list enums.MembershipList) (*recipes.ShortRecipeDTO, error) {
	if !list.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown list")
	}
	var out recipes.ShortRecipeDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		recipe, err := repo.FindRecipe(ctx, recipeID)
		if err != nil {
			return recipeLookupError(err)
		}
		exists, err := repo.Exists(ctx, userID, recipeID, list)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check membership")
		}
		if exists {
			return alreadyPresent(list)
		}
		if _, err := repo.Create(ctx, userID, recipeID, list); err != nil {
			if db.IsUniqueViolation(err) {
				return alreadyPresent(list)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create membership")
		}
		out = recipes.ShortFromModel(*recipe)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(list, actionAdd)
	return &out, nil
}

func (s *service) Remove(ctx context.Context, userID, recipeID uuid.UUID, list enums.MembershipList) error {
	if !list.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown list")
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if _, err := repo.FindRecipe(ctx, recipeID); err != nil {
			return recipeLookupError(err)
		}
		deleted, err := repo.Delete(ctx, userID, recipeID, list)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete membership")
		}
		if deleted == 0 {
			return pkgerrors.New(pkgerrors.CodeMembershipConflict, fmt.Sprintf("recipe is not present in %s", list.Label())).
				WithDetails(map[string]string{"recipe": "not present"})
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(list, actionRemove)
	return nil
}

func (s *service) record(list enums.MembershipList, action string) {
	if s.metrics != nil {
		s.metrics.IncMembership(list.String(), action)
	}
}

func alreadyPresent(list enums.MembershipList) error {
	return pkgerrors.New(pkgerrors.CodeMembershipConflict, fmt.Sprintf("recipe is already in %s", list.Label())).
		WithDetails(map[string]string{"recipe": "already present"})
}

func recipeLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recipe")
}
