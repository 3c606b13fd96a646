package subscriptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
)

// Repository persists author subscriptions.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) Create(ctx context.Context, userID, authorID uuid.UUID) (*models.Subscription, error) {
	row := &models.Subscription{UserID: userID, AuthorID: authorID}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Delete removes the subscription and returns how many rows were deleted.
func (r *Repository) Delete(ctx context.Context, userID, authorID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	return res.RowsAffected, res.Error
}

func (r *Repository) Exists(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

// SubscribedAuthors reports which of authorIDs userID follows.
func (r *Repository) SubscribedAuthors(ctx context.Context, userID uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ListAuthors returns one page of the authors userID follows, by username.
func (r *Repository) ListAuthors(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.User, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.User{}).
			Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
			Where("subscriptions.user_id = ?", userID)
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.User
	if err := base().
		Select("users.*").
		Order("users.username ASC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// RecipesByAuthor returns each author's recipes, newest first, truncated to
// limit per author when limit is positive. The truncation happens in SQL so
// prolific authors do not load their whole history.
func (r *Repository) RecipesByAuthor(ctx context.Context, authorIDs []uuid.UUID, limit int) (map[uuid.UUID][]models.Recipe, error) {
	out := make(map[uuid.UUID][]models.Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	q := r.db.WithContext(ctx).Where("author_id IN ?", authorIDs)
	if limit > 0 {
		ranked := r.db.WithContext(ctx).
			Model(&models.Recipe{}).
			Select("recipes.*, ROW_NUMBER() OVER (PARTITION BY author_id ORDER BY created_at DESC, id DESC) AS author_rank").
			Where("author_id IN ?", authorIDs)
		q = r.db.WithContext(ctx).
			Table("(?) AS ranked", ranked).
			Where("author_rank <= ?", limit)
	}
	var rows []models.Recipe
	err := q.
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.AuthorID] = append(out[row.AuthorID], row)
	}
	return out, nil
}

type authorCount struct {
	AuthorID uuid.UUID
	Total    int64
}

// RecipeCounts returns how many recipes each author has published.
func (r *Repository) RecipeCounts(ctx context.Context, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var rows []authorCount
	err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.AuthorID] = row.Total
	}
	return out, nil
}
