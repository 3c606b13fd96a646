package ingredients

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
)

type IngredientDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
}

func FromModel(i models.Ingredient) IngredientDTO {
	return IngredientDTO{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}
