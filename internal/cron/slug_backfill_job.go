package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/foodgram-backend/internal/shortlinks"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
)

const defaultSlugBatchSize = 500

type SlugBackfillJobParams struct {
	Logger    *logger.Logger
	Recipes   slugBacklog
	Links     recipeLinker
	BatchSize int
}

type slugBacklog interface {
	IDsWithoutSlug(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type recipeLinker interface {
	Link(ctx context.Context, recipeID uuid.UUID) (*shortlinks.LinkDTO, error)
}

// NewSlugBackfillJob assigns short-link slugs to recipes stored without one,
// so get-link never has to generate on the request path.
func NewSlugBackfillJob(params SlugBackfillJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Recipes == nil {
		return nil, fmt.Errorf("recipe repository required")
	}
	if params.Links == nil {
		return nil, fmt.Errorf("shortlinks service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSlugBatchSize
	}
	return &slugBackfillJob{
		logg:      params.Logger,
		recipes:   params.Recipes,
		links:     params.Links,
		batchSize: batch,
	}, nil
}

type slugBackfillJob struct {
	logg      *logger.Logger
	recipes   slugBacklog
	links     recipeLinker
	batchSize int
}

func (j *slugBackfillJob) Name() string { return "slug-backfill" }

func (j *slugBackfillJob) Run(ctx context.Context) error {
	ids, err := j.recipes.IDsWithoutSlug(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("query recipes without slug: %w", err)
	}

	var (
		assigned int
		skipped  int
		errs     error
	)
	for _, id := range ids {
		if _, err := j.links.Link(ctx, id); err != nil {
			switch {
			case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
				// deleted since the query ran
				skipped++
				continue
			case pkgerrors.IsCode(err, pkgerrors.CodeSlugExhausted):
				return fmt.Errorf("slug backfill: %w", err)
			}
			errs = multierr.Append(errs, fmt.Errorf("recipe %s: %w", id, err))
			continue
		}
		assigned++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(ids),
		"assigned":   assigned,
		"skipped":    skipped,
		"failed":     len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "slug backfill complete")
	return errs
}
