package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription records that UserID follows AuthorID.
type Subscription struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_subscriptions_user_author;check:chk_subscriptions_not_self,user_id <> author_id"`
	AuthorID  uuid.UUID `gorm:"column:author_id;type:uuid;not null;uniqueIndex:uq_subscriptions_user_author;index:subscriptions_author_id_idx"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
