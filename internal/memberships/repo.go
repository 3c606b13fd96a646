package memberships

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
)

// Repository exposes recipe list membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindRecipe loads the recipe a membership would point at.
func (r *Repository) FindRecipe(ctx context.Context, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Exists reports whether the recipe is already on the user's list.
func (r *Repository) Exists(ctx context.Context, userID, recipeID uuid.UUID, list enums.MembershipList) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RecipeMembership{}).
		Where("user_id = ? AND recipe_id = ? AND list = ?", userID, recipeID, list).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create persists a new membership record.
func (r *Repository) Create(ctx context.Context, userID, recipeID uuid.UUID, list enums.MembershipList) (*models.RecipeMembership, error) {
	row := &models.RecipeMembership{UserID: userID, RecipeID: recipeID, List: list}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Delete removes the membership and returns how many rows were deleted.
func (r *Repository) Delete(ctx context.Context, userID, recipeID uuid.UUID, list enums.MembershipList) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ? AND list = ?", userID, recipeID, list).
		Delete(&models.RecipeMembership{})
	return res.RowsAffected, res.Error
}

// RecipeIDs lists the recipes on the user's list.
func (r *Repository) RecipeIDs(ctx context.Context, userID uuid.UUID, list enums.MembershipList) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.RecipeMembership{}).
		Where("user_id = ? AND list = ?", userID, list).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
