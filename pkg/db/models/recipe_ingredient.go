package models

import "github.com/google/uuid"

// RecipeIngredient stores the amount of an ingredient used by a recipe.
type RecipeIngredient struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RecipeID     uuid.UUID `gorm:"column:recipe_id;type:uuid;not null;uniqueIndex:uq_recipe_ingredients_recipe_ingredient"`
	IngredientID uuid.UUID `gorm:"column:ingredient_id;type:uuid;not null;uniqueIndex:uq_recipe_ingredients_recipe_ingredient;index:recipe_ingredients_ingredient_id_idx"`
	Amount       int       `gorm:"column:amount;not null;check:chk_recipe_ingredients_amount,amount BETWEEN 1 AND 32000"`
}
