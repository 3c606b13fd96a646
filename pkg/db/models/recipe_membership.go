package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/foodgram-backend/pkg/enums"
)

// RecipeMembership places a recipe on one of a user's lists (favorites or
// shopping cart). A recipe appears at most once per user and list.
type RecipeMembership struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_recipe_memberships_user_recipe_list"`
	RecipeID  uuid.UUID            `gorm:"column:recipe_id;type:uuid;not null;uniqueIndex:uq_recipe_memberships_user_recipe_list;index:recipe_memberships_recipe_id_idx"`
	List      enums.MembershipList `gorm:"column:list;type:varchar(32);not null;uniqueIndex:uq_recipe_memberships_user_recipe_list"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
