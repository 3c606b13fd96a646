package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/db"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
)

// NewDB opens an isolated in-memory SQLite database with every model migrated.
// The pool is pinned to one connection, so code under test must only use the
// transaction handle inside WithTx callbacks.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return conn
}

// NewClient wraps NewDB in a db.Client for services that need WithTx.
func NewClient(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := NewDB(t)
	return db.Wrap(conn), conn
}

func MustCreateUser(t testing.TB, tx *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     username,
		IsActive:     true,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func MustCreateTag(t testing.TB, tx *gorm.DB, name, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: slug}
	if err := tx.Create(tag).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}
	return tag
}

func MustCreateIngredient(t testing.TB, tx *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := tx.Create(ingredient).Error; err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	return ingredient
}

// Amount pairs an ingredient with a quantity for MustCreateRecipe.
type Amount struct {
	IngredientID uuid.UUID
	Amount       int
}

func MustCreateRecipe(t testing.TB, tx *gorm.DB, authorID uuid.UUID, name string, amounts []Amount, tagIDs ...uuid.UUID) *models.Recipe {
	t.Helper()
	slug := uuid.NewString()[:8]
	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        name,
		Image:       "/media/recipes/test.png",
		Text:        name + " instructions",
		CookingTime: 10,
		Slug:        &slug,
	}
	if err := tx.Create(recipe).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	for _, a := range amounts {
		row := &models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: a.IngredientID, Amount: a.Amount}
		if err := tx.Create(row).Error; err != nil {
			t.Fatalf("create recipe ingredient: %v", err)
		}
	}
	for _, tagID := range tagIDs {
		if err := tx.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tagID}).Error; err != nil {
			t.Fatalf("create recipe tag: %v", err)
		}
	}
	return recipe
}

func MustAddMembership(t testing.TB, tx *gorm.DB, userID, recipeID uuid.UUID, list enums.MembershipList) {
	t.Helper()
	row := &models.RecipeMembership{UserID: userID, RecipeID: recipeID, List: list}
	if err := tx.Create(row).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}
}

func MustSubscribe(t testing.TB, tx *gorm.DB, userID, authorID uuid.UUID) {
	t.Helper()
	if err := tx.Create(&models.Subscription{UserID: userID, AuthorID: authorID}).Error; err != nil {
		t.Fatalf("create subscription: %v", err)
	}
}

// PasswordConfig returns cheap argon2 parameters so hashing does not dominate test time.
func PasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    64,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}
