package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/pkg/enums"
)

// Line is one aggregated shopping list entry.
type Line struct {
	Name   string `gorm:"column:name"`
	Unit   string `gorm:"column:unit"`
	Amount int64  `gorm:"column:amount"`
}

// Repository runs the read-only shopping list queries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Aggregate sums ingredient amounts across every recipe in the user's cart,
// grouped by ingredient name and measurement unit.
func (r *Repository) Aggregate(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	var lines []Line
	err := r.db.WithContext(ctx).
		Table("recipe_memberships").
		Select("ingredients.name AS name, ingredients.measurement_unit AS unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = recipe_memberships.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_memberships.user_id = ? AND recipe_memberships.list = ?", userID, enums.MembershipListShoppingCart).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC, ingredients.measurement_unit ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// RecipeNames lists the names of the recipes in the user's cart.
func (r *Repository) RecipeNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("recipes").
		Joins("JOIN recipe_memberships ON recipe_memberships.recipe_id = recipes.id").
		Where("recipe_memberships.user_id = ? AND recipe_memberships.list = ?", userID, enums.MembershipListShoppingCart).
		Order("recipes.name ASC").
		Pluck("recipes.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
