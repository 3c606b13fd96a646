package models

import "github.com/google/uuid"

type Tag struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;type:varchar(32);not null;uniqueIndex:uq_tags_name"`
	Slug string    `gorm:"column:slug;type:varchar(32);not null;uniqueIndex:uq_tags_slug"`
}
