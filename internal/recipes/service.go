package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/internal/tags"
	"github.com/angelmondragon/foodgram-backend/internal/users"
	"github.com/angelmondragon/foodgram-backend/pkg/db"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
	"github.com/angelmondragon/foodgram-backend/pkg/pagination"
	"github.com/angelmondragon/foodgram-backend/pkg/shortlink"
)

// insertAttempts bounds how often a create is retried after losing a slug race.
const insertAttempts = 3

var slugConstraintMarkers = []string{"uq_recipes_slug", "recipes.slug"}

// Service implements recipe authoring and reading.
type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, req CreateRecipeRequest) (*RecipeDTO, error)
	Update(ctx context.Context, userID, recipeID uuid.UUID, req UpdateRecipeRequest) (*RecipeDTO, error)
	Delete(ctx context.Context, userID, recipeID uuid.UUID) error
	Get(ctx context.Context, viewer *uuid.UUID, recipeID uuid.UUID) (*RecipeDTO, error)
	List(ctx context.Context, viewer *uuid.UUID, query ListQuery, params pagination.Params) ([]RecipeDTO, int64, error)
}

type authorResolver interface {
	Resolve(ctx context.Context, viewer *uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]users.UserDTO, error)
}

type mediaStore interface {
	Save(ctx context.Context, kind enums.MediaKind, dataURI string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

type slugGenerator interface {
	Generate(ctx context.Context, checker shortlink.Checker) (string, error)
}

// ServiceParams bundles the dependencies required to build a recipes service.
type ServiceParams struct {
	DB      *db.Client
	Authors authorResolver
	Media   mediaStore
	Slugs   slugGenerator
	Logger  *logger.Logger
}

type service struct {
	db      *db.Client
	authors authorResolver
	media   mediaStore
	slugs   slugGenerator
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Authors == nil {
		return nil, fmt.Errorf("author resolver is required")
	}
	if params.Media == nil {
		return nil, fmt.Errorf("media store is required")
	}
	if params.Slugs == nil {
		return nil, fmt.Errorf("slug generator is required")
	}
	return &service{
		db:      params.DB,
		authors: params.Authors,
		media:   params.Media,
		slugs:   params.Slugs,
		logg:    params.Logger,
	}, nil
}

func (s *service) repo() *Repository {
	return NewRepository(s.db.DB())
}

func (s *service) Create(ctx context.Context, authorID uuid.UUID, req CreateRecipeRequest) (*RecipeDTO, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.Tags, req.Ingredients); err != nil {
		return nil, err
	}

	image, err := s.media.Save(ctx, enums.MediaKindRecipe, req.Image)
	if err != nil {
		return nil, err
	}

	recipe, err := s.insertWithSlug(ctx, authorID, image, req)
	if err != nil {
		s.discardImage(ctx, image)
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithRecipeID(ctx, recipe.ID.String()), "recipe created")
	}
	return s.Get(ctx, &authorID, recipe.ID)
}

// insertWithSlug draws a slug and inserts the recipe in one transaction. A
// unique violation on the slug means another writer took it between the
// check and the insert, so a fresh slug is drawn.
func (s *service) insertWithSlug(ctx context.Context, authorID uuid.UUID, image string, req CreateRecipeRequest) (*models.Recipe, error) {
	repo := s.repo()
	var lastErr error
	for attempt := 0; attempt < insertAttempts; attempt++ {
		slug, err := s.slugs.Generate(ctx, repo)
		if err != nil {
			if errors.Is(err, shortlink.ErrSlugSpaceExhausted) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeSlugExhausted, err, "short link space exhausted")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate slug")
		}

		recipe := &models.Recipe{
			AuthorID:    authorID,
			Name:        strings.TrimSpace(req.Name),
			Image:       image,
			Text:        req.Text,
			CookingTime: req.CookingTime,
			Slug:        &slug,
		}
		err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
			return NewRepository(tx).Create(ctx, recipe, req.Ingredients, req.Tags)
		})
		if err == nil {
			return recipe, nil
		}
		if !db.IsUniqueViolation(err, slugConstraintMarkers...) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create recipe")
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeSlugExhausted, lastErr, "short link collisions persisted")
}

func (s *service) Update(ctx context.Context, userID, recipeID uuid.UUID, req UpdateRecipeRequest) (*RecipeDTO, error) {
	recipe, err := s.loadOwned(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if err := validateUpdate(req); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.Tags, req.Ingredients); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Text != nil {
		fields["text"] = *req.Text
	}
	if req.CookingTime != nil {
		fields["cooking_time"] = *req.CookingTime
	}
	var newImage string
	if req.Image != nil {
		newImage, err = s.media.Save(ctx, enums.MediaKindRecipe, *req.Image)
		if err != nil {
			return nil, err
		}
		fields["image"] = newImage
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.UpdateFields(ctx, recipeID, fields); err != nil {
			return err
		}
		return repo.ReplaceComposition(ctx, recipeID, req.Ingredients, req.Tags)
	})
	if err != nil {
		if newImage != "" {
			s.discardImage(ctx, newImage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update recipe")
	}
	if newImage != "" && recipe.Image != newImage {
		s.discardImage(ctx, recipe.Image)
	}
	return s.Get(ctx, &userID, recipeID)
}

func (s *service) Delete(ctx context.Context, userID, recipeID uuid.UUID) error {
	recipe, err := s.loadOwned(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return NewRepository(tx).Delete(ctx, recipeID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete recipe")
	}
	s.discardImage(ctx, recipe.Image)
	return nil
}

func (s *service) Get(ctx context.Context, viewer *uuid.UUID, recipeID uuid.UUID) (*RecipeDTO, error) {
	recipe, err := s.repo().FindByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recipe")
	}
	out, err := s.assemble(ctx, viewer, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *service) List(ctx context.Context, viewer *uuid.UUID, query ListQuery, params pagination.Params) ([]RecipeDTO, int64, error) {
	params = params.Normalize()
	filter := ListFilter{AuthorID: query.AuthorID, TagSlugs: cleanSlugs(query.TagSlugs), Viewer: viewer}
	if query.IsFavorited {
		filter.Lists = append(filter.Lists, enums.MembershipListFavorite)
	}
	if query.IsInShoppingCart {
		filter.Lists = append(filter.Lists, enums.MembershipListShoppingCart)
	}
	// anonymous viewers have no lists
	if viewer == nil && len(filter.Lists) > 0 {
		return []RecipeDTO{}, 0, nil
	}

	rows, total, err := s.repo().List(ctx, filter, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list recipes")
	}
	out, err := s.assemble(ctx, viewer, rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// assemble loads tags, ingredients, authors, and viewer flags for rows in bulk.
func (s *service) assemble(ctx context.Context, viewer *uuid.UUID, rows []models.Recipe) ([]RecipeDTO, error) {
	out := make([]RecipeDTO, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	repo := s.repo()
	ids := make([]uuid.UUID, 0, len(rows))
	authorIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
		authorIDs = append(authorIDs, row.AuthorID)
	}

	tagsByRecipe, err := repo.LoadTags(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recipe tags")
	}
	linesByRecipe, err := repo.LoadIngredients(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recipe ingredients")
	}
	authors, err := s.authors.Resolve(ctx, viewer, authorIDs)
	if err != nil {
		return nil, err
	}
	memberships := map[enums.MembershipList]map[uuid.UUID]bool{}
	if viewer != nil {
		memberships, err = repo.MembershipsFor(ctx, *viewer, ids)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recipe memberships")
		}
	}

	for _, row := range rows {
		tagDTOs := make([]tags.TagDTO, 0, len(tagsByRecipe[row.ID]))
		for _, tag := range tagsByRecipe[row.ID] {
			tagDTOs = append(tagDTOs, tags.FromModel(tag))
		}
		ingredients := make([]IngredientAmountDTO, 0, len(linesByRecipe[row.ID]))
		for _, line := range linesByRecipe[row.ID] {
			ingredients = append(ingredients, IngredientAmountDTO{
				ID:              line.IngredientID,
				Name:            line.Name,
				MeasurementUnit: line.MeasurementUnit,
				Amount:          line.Amount,
			})
		}
		out = append(out, RecipeDTO{
			ID:               row.ID,
			Tags:             tagDTOs,
			Author:           authors[row.AuthorID],
			Ingredients:      ingredients,
			IsFavorited:      memberships[enums.MembershipListFavorite][row.ID],
			IsInShoppingCart: memberships[enums.MembershipListShoppingCart][row.ID],
			Name:             row.Name,
			Image:            row.Image,
			Text:             row.Text,
			CookingTime:      row.CookingTime,
		})
	}
	return out, nil
}

func (s *service) loadOwned(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.repo().FindByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recipe")
	}
	if recipe.AuthorID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the author may modify this recipe")
	}
	return recipe, nil
}

// checkReferences reports unknown tag and ingredient ids as field errors.
func (s *service) checkReferences(ctx context.Context, tagIDs []uuid.UUID, ingredients []IngredientAmountInput) error {
	repo := s.repo()
	foundTags, err := repo.ExistingTagIDs(ctx, tagIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check tags")
	}
	ingredientIDs := make([]uuid.UUID, 0, len(ingredients))
	for _, item := range ingredients {
		ingredientIDs = append(ingredientIDs, item.ID)
	}
	foundIngredients, err := repo.ExistingIngredientIDs(ctx, ingredientIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check ingredients")
	}

	errs := fieldErrors{}
	if missing := missingIDs(tagIDs, foundTags); len(missing) > 0 {
		errs.add("tags", fmt.Sprintf("tag %s does not exist", missing[0]))
	}
	if missing := missingIDs(ingredientIDs, foundIngredients); len(missing) > 0 {
		errs.add("ingredients", fmt.Sprintf("ingredient %s does not exist", missing[0]))
	}
	return errs.err()
}

func (s *service) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.media.Delete(ctx, url); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "image", url), "recipe image cleanup failed")
	}
}

func cleanSlugs(values []string) []string {
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
