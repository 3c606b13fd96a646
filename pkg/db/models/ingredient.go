package models

import "github.com/google/uuid"

// Ingredient is a catalogue entry; the same name may exist with different units.
type Ingredient struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name            string    `gorm:"column:name;type:varchar(128);not null;uniqueIndex:uq_ingredients_name_unit;index:ingredients_name_idx"`
	MeasurementUnit string    `gorm:"column:measurement_unit;type:varchar(64);not null;uniqueIndex:uq_ingredients_name_unit"`
}
