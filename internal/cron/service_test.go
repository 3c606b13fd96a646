package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodgram-backend/internal/recipes"
	"github.com/angelmondragon/foodgram-backend/internal/shortlinks"
	"github.com/angelmondragon/foodgram-backend/internal/testutil"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
	"github.com/angelmondragon/foodgram-backend/pkg/shortlink"
)

type emptyFiles struct{}

func (emptyFiles) StoredBefore(context.Context, enums.MediaKind, time.Time) ([]string, error) {
	return nil, nil
}

func (emptyFiles) Delete(context.Context, string) error { return nil }

type noRefs struct{}

func (noRefs) ImagesIn(context.Context, []string) ([]string, error)  { return nil, nil }
func (noRefs) AvatarsIn(context.Context, []string) ([]string, error) { return nil, nil }

type outcomeRecorder struct {
	success   map[string]int
	failure   map[string]int
	durations int
}

func newOutcomeRecorder() *outcomeRecorder {
	return &outcomeRecorder{success: map[string]int{}, failure: map[string]int{}}
}

func (o *outcomeRecorder) ObserveDuration(string, time.Duration) { o.durations++ }
func (o *outcomeRecorder) IncSuccess(job string)                 { o.success[job]++ }
func (o *outcomeRecorder) IncFailure(job string)                 { o.failure[job]++ }

const testLockKey = "foodgram:cron-worker:lock:test"

func TestRunOnceBackfillsSlugsUnderLock(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := recipes.NewRepository(conn)
	gen, err := shortlink.NewGenerator(shortlink.Options{Length: 7})
	require.NoError(t, err)
	links, err := shortlinks.NewService(shortlinks.ServiceParams{Store: repo, Generator: gen})
	require.NoError(t, err)

	author := testutil.MustCreateUser(t, conn, "author")
	recipe := testutil.MustCreateRecipe(t, conn, author.ID, "Goulash", nil)
	require.NoError(t, conn.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Update("slug", nil).Error)

	slugJob, err := NewSlugBackfillJob(SlugBackfillJobParams{Logger: testLogger(), Recipes: repo, Links: links})
	require.NoError(t, err)
	registry, err := NewRegistry(slugJob)
	require.NoError(t, err)

	client, mr := newLockClient(t)
	lock, err := NewRedisLock(client, testLockKey, time.Minute)
	require.NoError(t, err)
	rec := newOutcomeRecorder()
	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: lock, Metrics: rec})
	require.NoError(t, err)

	ran, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, rec.success["slug-backfill"])
	assert.Equal(t, 1, rec.durations)
	assert.False(t, mr.Exists(testLockKey), "lock is released after the cycle")

	var stored models.Recipe
	require.NoError(t, conn.First(&stored, "id = ?", recipe.ID).Error)
	require.NotNil(t, stored.Slug)
	assert.Len(t, *stored.Slug, 7)
}

func TestRunOnceSkipsWhileAnotherWorkerHoldsLock(t *testing.T) {
	backlog := &fakeBacklog{ids: []uuid.UUID{uuid.New()}}
	linker := &fakeLinker{}
	slugJob, err := NewSlugBackfillJob(SlugBackfillJobParams{Logger: testLogger(), Recipes: backlog, Links: linker})
	require.NoError(t, err)
	registry, err := NewRegistry(slugJob)
	require.NoError(t, err)

	client, mr := newLockClient(t)
	require.NoError(t, mr.Set(testLockKey, "other-worker"))
	lock, err := NewRedisLock(client, testLockKey, time.Minute)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: lock})
	require.NoError(t, err)

	ran, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, linker.calls)

	owner, err := mr.Get(testLockKey)
	require.NoError(t, err)
	assert.Equal(t, "other-worker", owner)
}

func TestRunOnceRunsEveryJobAndCombinesFailures(t *testing.T) {
	broken := uuid.New()
	linker := &fakeLinker{errs: map[uuid.UUID]error{broken: errors.New("connection reset")}}
	slugJob, err := NewSlugBackfillJob(SlugBackfillJobParams{
		Logger:  testLogger(),
		Recipes: &fakeBacklog{ids: []uuid.UUID{broken}},
		Links:   linker,
	})
	require.NoError(t, err)
	mediaJob, err := NewOrphanMediaJob(OrphanMediaJobParams{Logger: testLogger(), Files: emptyFiles{}, Recipes: noRefs{}, Users: noRefs{}})
	require.NoError(t, err)
	registry, err := NewRegistry(slugJob, mediaJob)
	require.NoError(t, err)

	client, _ := newLockClient(t)
	lock, err := NewRedisLock(client, testLockKey, time.Minute)
	require.NoError(t, err)
	rec := newOutcomeRecorder()
	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: lock, Metrics: rec})
	require.NoError(t, err)

	ran, err := svc.RunOnce(context.Background())
	assert.True(t, ran)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slug-backfill")
	assert.Equal(t, 1, rec.failure["slug-backfill"])
	assert.Equal(t, 1, rec.success["orphan-media-cleanup"])
}

func TestNewServiceSelectsNamedJobs(t *testing.T) {
	slugs, media := namedJobs(t)
	registry, err := NewRegistry(slugs, media)
	require.NoError(t, err)
	client, _ := newLockClient(t)
	lock, err := NewRedisLock(client, testLockKey, time.Minute)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: lock, Jobs: []string{"orphan-media-cleanup"}})
	require.NoError(t, err)
	require.Len(t, svc.jobs, 1)
	assert.Equal(t, "orphan-media-cleanup", svc.jobs[0].Name())
	assert.Equal(t, defaultInterval, svc.interval)

	_, err = NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: lock, Jobs: []string{"nope"}})
	assert.Error(t, err)
}
