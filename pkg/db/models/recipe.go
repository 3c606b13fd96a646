package models

import (
	"time"

	"github.com/google/uuid"
)

// Recipe is the authored record. Ingredients and tags live in join tables.
type Recipe struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	AuthorID    uuid.UUID `gorm:"column:author_id;type:uuid;not null;index:recipes_author_id_idx"`
	Name        string    `gorm:"column:name;type:varchar(256);not null"`
	Image       string    `gorm:"column:image;not null"`
	Text        string    `gorm:"column:text;not null"`
	CookingTime int       `gorm:"column:cooking_time;not null;check:chk_recipes_cooking_time,cooking_time BETWEEN 1 AND 32000"`
	// Slug is assigned once at creation and never rewritten.
	Slug      *string   `gorm:"column:slug;type:varchar(10);uniqueIndex:uq_recipes_slug"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:recipes_created_at_idx"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
