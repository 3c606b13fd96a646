package recipes

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/foodgram-backend/internal/tags"
	"github.com/angelmondragon/foodgram-backend/internal/users"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
)

const (
	MinAmount      = 1
	MaxAmount      = 32000
	MinCookingTime = 1
	MaxCookingTime = 32000
	MaxNameLength  = 256
)

// IngredientAmountInput references a catalogue ingredient and the quantity used.
type IngredientAmountInput struct {
	ID     uuid.UUID `json:"id" validate:"required"`
	Amount int       `json:"amount" validate:"required,min=1,max=32000"`
}

// CreateRecipeRequest is the payload accepted by POST /api/recipes.
type CreateRecipeRequest struct {
	Ingredients []IngredientAmountInput `json:"ingredients" validate:"required,dive"`
	Tags        []uuid.UUID             `json:"tags" validate:"required"`
	Image       string                  `json:"image" validate:"required"`
	Name        string                  `json:"name" validate:"required,max=256"`
	Text        string                  `json:"text" validate:"required"`
	CookingTime int                     `json:"cooking_time" validate:"required,min=1,max=32000"`
}

// UpdateRecipeRequest replaces the recipe composition. Scalar fields left nil
// keep their stored value.
type UpdateRecipeRequest struct {
	Ingredients []IngredientAmountInput `json:"ingredients" validate:"required,dive"`
	Tags        []uuid.UUID             `json:"tags" validate:"required"`
	Image       *string                 `json:"image,omitempty"`
	Name        *string                 `json:"name,omitempty" validate:"omitempty,max=256"`
	Text        *string                 `json:"text,omitempty"`
	CookingTime *int                    `json:"cooking_time,omitempty" validate:"omitempty,min=1,max=32000"`
}

type IngredientAmountDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// RecipeDTO is the full read representation. The boolean flags are relative
// to the viewer and false for anonymous requests.
type RecipeDTO struct {
	ID               uuid.UUID             `json:"id"`
	Tags             []tags.TagDTO         `json:"tags"`
	Author           users.UserDTO         `json:"author"`
	Ingredients      []IngredientAmountDTO `json:"ingredients"`
	IsFavorited      bool                  `json:"is_favorited"`
	IsInShoppingCart bool                  `json:"is_in_shopping_cart"`
	Name             string                `json:"name"`
	Image            string                `json:"image"`
	Text             string                `json:"text"`
	CookingTime      int                   `json:"cooking_time"`
}

// ShortRecipeDTO is the compact form used by memberships and subscriptions.
type ShortRecipeDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

func ShortFromModel(r models.Recipe) ShortRecipeDTO {
	return ShortRecipeDTO{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// ListQuery holds the optional list filters.
type ListQuery struct {
	AuthorID         *uuid.UUID
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}
