package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
)

// Filename is the attachment name of the downloaded shopping list.
const Filename = "shopping_cart.txt"

// Download is a rendered shopping list ready to be sent as an attachment.
type Download struct {
	Filename string
	Content  string
}

// Service builds shopping lists from a user's cart.
type Service interface {
	Download(ctx context.Context, userID uuid.UUID) (*Download, error)
}

type cartRepository interface {
	Aggregate(ctx context.Context, userID uuid.UUID) ([]Line, error)
	RecipeNames(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type recorder interface {
	ObserveShoppingList(lines int)
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Repo     cartRepository
	Renderer *Renderer
	Metrics  recorder
	Now      func() time.Time
}

type service struct {
	repo     cartRepository
	renderer *Renderer
	metrics  recorder
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	renderer := params.Renderer
	if renderer == nil {
		var err error
		if renderer, err = NewRenderer(); err != nil {
			return nil, err
		}
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, renderer: renderer, metrics: params.Metrics, now: now}, nil
}

func (s *service) Download(ctx context.Context, userID uuid.UUID) (*Download, error) {
	lines, err := s.repo.Aggregate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate shopping list")
	}
	names, err := s.repo.RecipeNames(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart recipes")
	}
	content, err := s.renderer.Render(s.now(), names, lines)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render shopping list")
	}
	if s.metrics != nil {
		s.metrics.ObserveShoppingList(len(lines))
	}
	return &Download{Filename: Filename, Content: content}, nil
}
