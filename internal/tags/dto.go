package tags

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
)

// TagDTO is the public tag representation.
type TagDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

func FromModel(t models.Tag) TagDTO {
	return TagDTO{ID: t.ID, Name: t.Name, Slug: t.Slug}
}
