package cron

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodgram-backend/internal/media"
	"github.com/angelmondragon/foodgram-backend/internal/recipes"
	"github.com/angelmondragon/foodgram-backend/internal/testutil"
	"github.com/angelmondragon/foodgram-backend/internal/users"
	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
)

var pngUpload = "data:image/png;base64," + base64.StdEncoding.EncodeToString(
	append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...))

func TestOrphanMediaCleanupRemovesUnreferencedFiles(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewDB(t)
	dir := t.TempDir()
	store, err := media.NewStore(config.MediaConfig{Dir: dir, PublicPrefix: "/media"}, nil)
	require.NoError(t, err)

	usedImage, err := store.Save(ctx, enums.MediaKindRecipe, pngUpload)
	require.NoError(t, err)
	orphanImage, err := store.Save(ctx, enums.MediaKindRecipe, pngUpload)
	require.NoError(t, err)
	usedAvatar, err := store.Save(ctx, enums.MediaKindAvatar, pngUpload)
	require.NoError(t, err)
	orphanAvatar, err := store.Save(ctx, enums.MediaKindAvatar, pngUpload)
	require.NoError(t, err)
	freshOrphan, err := store.Save(ctx, enums.MediaKindRecipe, pngUpload)
	require.NoError(t, err)

	past := time.Now().Add(-72 * time.Hour)
	for _, url := range []string{usedImage, orphanImage, usedAvatar, orphanAvatar} {
		require.NoError(t, os.Chtimes(localPath(dir, url), past, past))
	}

	author := testutil.MustCreateUser(t, conn, "author")
	recipe := testutil.MustCreateRecipe(t, conn, author.ID, "Pie", nil)
	require.NoError(t, conn.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Update("image", usedImage).Error)
	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", author.ID).Update("avatar", usedAvatar).Error)

	job, err := NewOrphanMediaJob(OrphanMediaJobParams{
		Logger:  testLogger(),
		Files:   store,
		Recipes: recipes.NewRepository(conn),
		Users:   users.NewRepository(conn),
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(ctx))

	assert.FileExists(t, localPath(dir, usedImage))
	assert.FileExists(t, localPath(dir, usedAvatar))
	assert.FileExists(t, localPath(dir, freshOrphan))
	assert.NoFileExists(t, localPath(dir, orphanImage))
	assert.NoFileExists(t, localPath(dir, orphanAvatar))
}

func localPath(dir, url string) string {
	rel, _ := filepath.Rel("/media", filepath.FromSlash(url))
	return filepath.Join(dir, rel)
}
