package models

import "github.com/google/uuid"

type RecipeTag struct {
	RecipeID uuid.UUID `gorm:"column:recipe_id;type:uuid;primaryKey"`
	TagID    uuid.UUID `gorm:"column:tag_id;type:uuid;primaryKey;index:recipe_tags_tag_id_idx"`
}
