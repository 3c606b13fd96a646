package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/foodgram-backend/pkg/enums"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
)

const defaultMediaRetention = 24 * time.Hour

type OrphanMediaJobParams struct {
	Logger    *logger.Logger
	Files     mediaFiles
	Recipes   imageRefs
	Users     avatarRefs
	Retention time.Duration
}

type mediaFiles interface {
	StoredBefore(ctx context.Context, kind enums.MediaKind, cutoff time.Time) ([]string, error)
	Delete(ctx context.Context, publicURL string) error
}

type imageRefs interface {
	ImagesIn(ctx context.Context, urls []string) ([]string, error)
}

type avatarRefs interface {
	AvatarsIn(ctx context.Context, urls []string) ([]string, error)
}

// NewOrphanMediaJob removes uploaded images no recipe or user points at any
// more. Files younger than the retention window are left alone so an upload
// whose row is still being written is never collected.
func NewOrphanMediaJob(params OrphanMediaJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Files == nil {
		return nil, fmt.Errorf("media store required")
	}
	if params.Recipes == nil {
		return nil, fmt.Errorf("recipe repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultMediaRetention
	}
	return &orphanMediaJob{
		logg:      params.Logger,
		files:     params.Files,
		recipes:   params.Recipes,
		users:     params.Users,
		retention: retention,
		now:       time.Now,
	}, nil
}

type orphanMediaJob struct {
	logg      *logger.Logger
	files     mediaFiles
	recipes   imageRefs
	users     avatarRefs
	retention time.Duration
	now       func() time.Time
}

func (j *orphanMediaJob) Name() string { return "orphan-media-cleanup" }

func (j *orphanMediaJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)
	fields := map[string]any{"cutoff": cutoff}

	for _, kind := range []enums.MediaKind{enums.MediaKindRecipe, enums.MediaKindAvatar} {
		candidates, err := j.files.StoredBefore(ctx, kind, cutoff)
		if err != nil {
			return fmt.Errorf("list %s media: %w", kind, err)
		}
		used, err := j.referenced(ctx, kind, candidates)
		if err != nil {
			return fmt.Errorf("load %s references: %w", kind, err)
		}
		deleted := 0
		for _, url := range candidates {
			if used[url] {
				continue
			}
			if err := j.files.Delete(ctx, url); err != nil {
				return fmt.Errorf("delete %s: %w", url, err)
			}
			deleted++
		}
		fields[kind.String()+"_candidates"] = len(candidates)
		fields[kind.String()+"_deleted"] = deleted
	}

	j.logg.Info(j.logg.WithFields(ctx, fields), "orphan media cleanup complete")
	return nil
}

func (j *orphanMediaJob) referenced(ctx context.Context, kind enums.MediaKind, urls []string) (map[string]bool, error) {
	var (
		used []string
		err  error
	)
	switch kind {
	case enums.MediaKindRecipe:
		used, err = j.recipes.ImagesIn(ctx, urls)
	case enums.MediaKindAvatar:
		used, err = j.users.AvatarsIn(ctx, urls)
	}
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(used))
	for _, url := range used {
		set[url] = true
	}
	return set, nil
}
