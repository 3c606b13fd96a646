package tags

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
)

// Service exposes the read-only tag catalogue.
type Service interface {
	List(ctx context.Context) ([]TagDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*TagDTO, error)
}

type tagRepository interface {
	List(ctx context.Context) ([]models.Tag, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)
}

type service struct {
	repo tagRepository
}

func NewService(repo tagRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tag repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]TagDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tags")
	}
	out := make([]TagDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*TagDTO, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tag not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tag")
	}
	dto := FromModel(*tag)
	return &dto, nil
}
