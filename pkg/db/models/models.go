package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeTag{},
		&RecipeMembership{},
		&Subscription{},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (t *Tag) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (i *Ingredient) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

func (r *Recipe) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

func (ri *RecipeIngredient) BeforeCreate(*gorm.DB) error {
	ensureID(&ri.ID)
	return nil
}

func (m *RecipeMembership) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
