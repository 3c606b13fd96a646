package ingredients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
)

const maxNameFilterLength = 128

// Service exposes the read-only ingredient catalogue.
type Service interface {
	Search(ctx context.Context, name string) ([]IngredientDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*IngredientDTO, error)
}

type ingredientRepository interface {
	Search(ctx context.Context, prefix string) ([]models.Ingredient, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
}

type service struct {
	repo ingredientRepository
}

func NewService(repo ingredientRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ingredient repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Search(ctx context.Context, name string) ([]IngredientDTO, error) {
	name = strings.TrimSpace(name)
	if len(name) > maxNameFilterLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"name": fmt.Sprintf("must be at most %d characters", maxNameFilterLength)})
	}
	rows, err := s.repo.Search(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search ingredients")
	}
	out := make([]IngredientDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*IngredientDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ingredient")
	}
	dto := FromModel(*row)
	return &dto, nil
}
