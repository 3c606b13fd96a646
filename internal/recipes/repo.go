package recipes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
)

// Repository persists recipes and their join rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows List. Viewer is required for the membership filters.
type ListFilter struct {
	AuthorID *uuid.UUID
	TagSlugs []string
	Viewer   *uuid.UUID
	Lists    []enums.MembershipList
}

// IngredientLine is one ingredient of a recipe joined with its catalogue row.
type IngredientLine struct {
	RecipeID        uuid.UUID
	IngredientID    uuid.UUID
	Name            string
	MeasurementUnit string
	Amount          int
}

type tagLine struct {
	RecipeID uuid.UUID
	models.Tag
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the recipe row followed by its ingredient and tag rows.
func (r *Repository) Create(ctx context.Context, recipe *models.Recipe, ingredients []IngredientAmountInput, tagIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return err
	}
	return r.insertComposition(ctx, recipe.ID, ingredients, tagIDs)
}

// ReplaceComposition swaps every ingredient and tag row of the recipe.
func (r *Repository) ReplaceComposition(ctx context.Context, recipeID uuid.UUID, ingredients []IngredientAmountInput, tagIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return err
	}
	return r.insertComposition(ctx, recipeID, ingredients, tagIDs)
}

func (r *Repository) insertComposition(ctx context.Context, recipeID uuid.UUID, ingredients []IngredientAmountInput, tagIDs []uuid.UUID) error {
	if len(ingredients) > 0 {
		rows := make([]models.RecipeIngredient, 0, len(ingredients))
		for _, item := range ingredients {
			rows = append(rows, models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount})
		}
		if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(tagIDs) > 0 {
		rows := make([]models.RecipeTag, 0, len(tagIDs))
		for _, id := range tagIDs {
			rows = append(rows, models.RecipeTag{RecipeID: recipeID, TagID: id})
		}
		if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateFields writes the provided columns and bumps updated_at.
func (r *Repository) UpdateFields(ctx context.Context, recipeID uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(fields).Error
}

// Delete removes the recipe and every row that references it.
func (r *Repository) Delete(ctx context.Context, recipeID uuid.UUID) error {
	conn := r.db.WithContext(ctx)
	for _, model := range []any{&models.RecipeIngredient{}, &models.RecipeTag{}, &models.RecipeMembership{}} {
		if err := conn.Where("recipe_id = ?", recipeID).Delete(model).Error; err != nil {
			return err
		}
	}
	return conn.Where("id = ?", recipeID).Delete(&models.Recipe{}).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var row models.Recipe
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Recipe, error) {
	var row models.Recipe
	if err := r.db.WithContext(ctx).First(&row, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SetSlug assigns a slug to a recipe that has none. It reports false when the
// recipe already carries a slug.
func (r *Repository) SetSlug(ctx context.Context, id uuid.UUID, slug string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("id = ? AND slug IS NULL", id).
		UpdateColumn("slug", slug)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// List returns one page of recipes, newest first, plus the filtered total.
func (r *Repository) List(ctx context.Context, filter ListFilter, offset, limit int) ([]models.Recipe, int64, error) {
	var total int64
	if err := r.applyFilters(r.db.WithContext(ctx).Model(&models.Recipe{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Recipe
	if err := r.applyFilters(r.db.WithContext(ctx).Model(&models.Recipe{}), filter).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) applyFilters(q *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.AuthorID != nil {
		q = q.Where("author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := r.db.Session(&gorm.Session{NewDB: true}).
			Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		q = q.Where("id IN (?)", tagged)
	}
	if filter.Viewer != nil {
		for _, list := range filter.Lists {
			member := r.db.Session(&gorm.Session{NewDB: true}).
				Table("recipe_memberships").
				Select("recipe_id").
				Where("user_id = ? AND list = ?", *filter.Viewer, list)
			q = q.Where("id IN (?)", member)
		}
	}
	return q
}

// LoadTags returns the tags of each recipe ordered by tag name.
func (r *Repository) LoadTags(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]models.Tag, error) {
	out := make(map[uuid.UUID][]models.Tag, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}
	var rows []tagLine
	if err := r.db.WithContext(ctx).
		Table("recipe_tags").
		Select("recipe_tags.recipe_id, tags.id, tags.name, tags.slug").
		Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
		Where("recipe_tags.recipe_id IN ?", recipeIDs).
		Order("tags.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.RecipeID] = append(out[row.RecipeID], row.Tag)
	}
	return out, nil
}

// LoadIngredients returns the ingredient lines of each recipe ordered by name.
func (r *Repository) LoadIngredients(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]IngredientLine, error) {
	out := make(map[uuid.UUID][]IngredientLine, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}
	var rows []IngredientLine
	if err := r.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("recipe_ingredients.recipe_id, recipe_ingredients.ingredient_id, ingredients.name, ingredients.measurement_unit, recipe_ingredients.amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id IN ?", recipeIDs).
		Order("ingredients.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.RecipeID] = append(out[row.RecipeID], row)
	}
	return out, nil
}

// MembershipsFor reports, per list, which of recipeIDs the user has added.
func (r *Repository) MembershipsFor(ctx context.Context, userID uuid.UUID, recipeIDs []uuid.UUID) (map[enums.MembershipList]map[uuid.UUID]bool, error) {
	out := map[enums.MembershipList]map[uuid.UUID]bool{}
	if len(recipeIDs) == 0 {
		return out, nil
	}
	var rows []models.RecipeMembership
	if err := r.db.WithContext(ctx).
		Select("recipe_id", "list").
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if out[row.List] == nil {
			out[row.List] = map[uuid.UUID]bool{}
		}
		out[row.List][row.RecipeID] = true
	}
	return out, nil
}

func (r *Repository) ExistingTagIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return r.existingIDs(ctx, &models.Tag{}, ids)
}

func (r *Repository) ExistingIngredientIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return r.existingIDs(ctx, &models.Ingredient{}, ids)
}

func (r *Repository) existingIDs(ctx context.Context, model any, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	if err := r.db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// IDsWithoutSlug returns up to limit recipes that still lack a short-link slug,
// oldest first.
func (r *Repository) IDsWithoutSlug(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("slug IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// ImagesIn returns which of the given image URLs are still used by a recipe.
func (r *Repository) ImagesIn(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	var used []string
	err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("image IN ?", urls).
		Distinct().
		Pluck("image", &used).Error
	return used, err
}
