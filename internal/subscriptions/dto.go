package subscriptions

import (
	"github.com/angelmondragon/foodgram-backend/internal/recipes"
	"github.com/angelmondragon/foodgram-backend/internal/users"
)

// AuthorDTO is a followed author with a preview of their recipes.
type AuthorDTO struct {
	users.UserDTO
	Recipes      []recipes.ShortRecipeDTO `json:"recipes"`
	RecipesCount int64                    `json:"recipes_count"`
}
