package recipes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/internal/testutil"
	"github.com/angelmondragon/foodgram-backend/internal/users"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
	"github.com/angelmondragon/foodgram-backend/pkg/pagination"
	"github.com/angelmondragon/foodgram-backend/pkg/shortlink"
)

type stubAuthors struct {
	conn *gorm.DB
}

func (a stubAuthors) Resolve(_ context.Context, _ *uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]users.UserDTO, error) {
	var rows []models.User
	if err := a.conn.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := map[uuid.UUID]users.UserDTO{}
	for i := range rows {
		out[rows[i].ID] = users.FromModel(&rows[i], false)
	}
	return out, nil
}

type stubMedia struct {
	saved   int
	deleted []string
}

func (m *stubMedia) Save(_ context.Context, _ enums.MediaKind, _ string) (string, error) {
	m.saved++
	return "/media/recipes/" + uuid.NewString() + ".png", nil
}

func (m *stubMedia) Delete(_ context.Context, url string) error {
	m.deleted = append(m.deleted, url)
	return nil
}

// fixedSlugs hands out slugs in order without consulting the checker.
type fixedSlugs struct {
	values []string
	calls  int
}

func (f *fixedSlugs) Generate(context.Context, shortlink.Checker) (string, error) {
	v := f.values[f.calls%len(f.values)]
	f.calls++
	return v, nil
}

type fixture struct {
	svc       Service
	conn      *gorm.DB
	media     *stubMedia
	author    *models.User
	other     *models.User
	breakfast *models.Tag
	dinner    *models.Tag
	eggs      *models.Ingredient
	flour     *models.Ingredient
	generator slugGenerator
}

func newFixture(t *testing.T, gen slugGenerator) *fixture {
	t.Helper()
	client, conn := testutil.NewClient(t)
	if gen == nil {
		generated, err := shortlink.NewGenerator(shortlink.Options{})
		require.NoError(t, err)
		gen = generated
	}
	media := &stubMedia{}
	svc, err := NewService(ServiceParams{
		DB:      client,
		Authors: stubAuthors{conn: conn},
		Media:   media,
		Slugs:   gen,
	})
	require.NoError(t, err)
	return &fixture{
		svc:       svc,
		conn:      conn,
		media:     media,
		author:    testutil.MustCreateUser(t, conn, "author"),
		other:     testutil.MustCreateUser(t, conn, "other"),
		breakfast: testutil.MustCreateTag(t, conn, "Breakfast", "breakfast"),
		dinner:    testutil.MustCreateTag(t, conn, "Dinner", "dinner"),
		eggs:      testutil.MustCreateIngredient(t, conn, "eggs", "pcs"),
		flour:     testutil.MustCreateIngredient(t, conn, "flour", "g"),
		generator: gen,
	}
}

func (f *fixture) createRequest() CreateRecipeRequest {
	return CreateRecipeRequest{
		Ingredients: []IngredientAmountInput{{ID: f.eggs.ID, Amount: 2}, {ID: f.flour.ID, Amount: 200}},
		Tags:        []uuid.UUID{f.breakfast.ID},
		Image:       "data:image/png;base64,AAAA",
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
	}
}

func detailsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	return details
}

func TestCreatePersistsRecipeWithSlug(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	got, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", got.Name)
	assert.Equal(t, f.author.ID, got.Author.ID)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "eggs", got.Ingredients[0].Name)
	assert.Equal(t, 2, got.Ingredients[0].Amount)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "breakfast", got.Tags[0].Slug)
	assert.False(t, got.IsFavorited)

	var stored models.Recipe
	require.NoError(t, f.conn.First(&stored, "id = ?", got.ID).Error)
	require.NotNil(t, stored.Slug)
	assert.Len(t, *stored.Slug, shortlink.DefaultLength)
	assert.True(t, shortlink.Valid(*stored.Slug))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := map[string]struct {
		mut   func(*CreateRecipeRequest)
		field string
	}{
		"no tags":          {func(r *CreateRecipeRequest) { r.Tags = nil }, "tags"},
		"duplicate tags":   {func(r *CreateRecipeRequest) { r.Tags = append(r.Tags, r.Tags[0]) }, "tags"},
		"unknown tag":      {func(r *CreateRecipeRequest) { r.Tags = []uuid.UUID{uuid.New()} }, "tags"},
		"no ingredients":   {func(r *CreateRecipeRequest) { r.Ingredients = nil }, "ingredients"},
		"duplicate ingr":   {func(r *CreateRecipeRequest) { r.Ingredients = append(r.Ingredients, r.Ingredients[0]) }, "ingredients"},
		"unknown ingr":     {func(r *CreateRecipeRequest) { r.Ingredients[0].ID = uuid.New() }, "ingredients"},
		"zero amount":      {func(r *CreateRecipeRequest) { r.Ingredients[0].Amount = 0 }, "ingredients"},
		"cooking too long": {func(r *CreateRecipeRequest) { r.CookingTime = 32001 }, "cooking_time"},
		"cooking zero":     {func(r *CreateRecipeRequest) { r.CookingTime = 0 }, "cooking_time"},
		"missing image":    {func(r *CreateRecipeRequest) { r.Image = "" }, "image"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := f.createRequest()
			tc.mut(&req)
			_, err := f.svc.Create(ctx, f.author.ID, req)
			assert.Contains(t, detailsOf(t, err), tc.field)
		})
	}
	assert.Zero(t, f.media.saved, "invalid requests must not store images")
}

func TestCreateRetriesOnSlugCollision(t *testing.T) {
	gen := &fixedSlugs{values: []string{"TAKEN1", "FRESH1"}}
	f := newFixture(t, gen)
	ctx := context.Background()
	testutil.MustCreateRecipe(t, f.conn, f.other.ID, "Existing", nil)
	require.NoError(t, f.conn.Model(&models.Recipe{}).Where("author_id = ?", f.other.ID).Update("slug", "TAKEN1").Error)

	got, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)

	var stored models.Recipe
	require.NoError(t, f.conn.First(&stored, "id = ?", got.ID).Error)
	assert.Equal(t, "FRESH1", *stored.Slug)
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	gen := &fixedSlugs{values: []string{"TAKEN1"}}
	f := newFixture(t, gen)
	ctx := context.Background()
	testutil.MustCreateRecipe(t, f.conn, f.other.ID, "Existing", nil)
	require.NoError(t, f.conn.Model(&models.Recipe{}).Where("author_id = ?", f.other.ID).Update("slug", "TAKEN1").Error)

	_, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSlugExhausted))
	assert.Equal(t, insertAttempts, gen.calls)
	assert.Len(t, f.media.deleted, 1, "stored image is discarded")

	var count int64
	require.NoError(t, f.conn.Model(&models.Recipe{}).Where("author_id = ?", f.author.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRollsBackPartialWrites(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.conn.Migrator().DropTable(&models.RecipeTag{}))

	_, err := f.svc.Create(context.Background(), f.author.ID, f.createRequest())
	require.Error(t, err)

	var recipes, lines int64
	require.NoError(t, f.conn.Model(&models.Recipe{}).Where("author_id = ?", f.author.ID).Count(&recipes).Error)
	require.NoError(t, f.conn.Model(&models.RecipeIngredient{}).Count(&lines).Error)
	assert.Zero(t, recipes)
	assert.Zero(t, lines)
}

func TestUpdateReplacesCompositionAndChecksAuthor(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	require.NoError(t, err)

	name := "Dinner pancakes"
	update := UpdateRecipeRequest{
		Ingredients: []IngredientAmountInput{{ID: f.flour.ID, Amount: 300}},
		Tags:        []uuid.UUID{f.dinner.ID},
		Name:        &name,
	}

	_, err = f.svc.Update(ctx, f.other.ID, created.ID, update)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Update(ctx, f.author.ID, uuid.New(), update)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := f.svc.Update(ctx, f.author.ID, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Dinner pancakes", got.Name)
	assert.Equal(t, "Mix and fry.", got.Text)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, 300, got.Ingredients[0].Amount)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "dinner", got.Tags[0].Slug)

	update.Tags = nil
	_, err = f.svc.Update(ctx, f.author.ID, created.ID, update)
	assert.Contains(t, detailsOf(t, err), "tags")
}

func TestUpdateSwapsImage(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	require.NoError(t, err)

	image := "data:image/png;base64,BBBB"
	got, err := f.svc.Update(ctx, f.author.ID, created.ID, UpdateRecipeRequest{
		Ingredients: []IngredientAmountInput{{ID: f.eggs.ID, Amount: 1}},
		Tags:        []uuid.UUID{f.breakfast.ID},
		Image:       &image,
	})
	require.NoError(t, err)
	assert.NotEqual(t, created.Image, got.Image)
	assert.Equal(t, []string{created.Image}, f.media.deleted)
}

func TestDeleteCascadesJoins(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	require.NoError(t, err)
	testutil.MustAddMembership(t, f.conn, f.other.ID, created.ID, enums.MembershipListFavorite)

	assert.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, f.other.ID, created.ID), pkgerrors.CodeForbidden))
	require.NoError(t, f.svc.Delete(ctx, f.author.ID, created.ID))

	for _, model := range []any{&models.Recipe{}, &models.RecipeIngredient{}, &models.RecipeTag{}, &models.RecipeMembership{}} {
		var count int64
		require.NoError(t, f.conn.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
	_, err = f.svc.Get(ctx, nil, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListFilters(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	amounts := []testutil.Amount{{IngredientID: f.eggs.ID, Amount: 1}}
	first := testutil.MustCreateRecipe(t, f.conn, f.author.ID, "Omelette", amounts, f.breakfast.ID)
	second := testutil.MustCreateRecipe(t, f.conn, f.author.ID, "Roast", amounts, f.dinner.ID)
	third := testutil.MustCreateRecipe(t, f.conn, f.other.ID, "Toast", amounts, f.breakfast.ID, f.dinner.ID)
	testutil.MustAddMembership(t, f.conn, f.other.ID, first.ID, enums.MembershipListFavorite)
	testutil.MustAddMembership(t, f.conn, f.other.ID, second.ID, enums.MembershipListShoppingCart)
	testutil.MustAddMembership(t, f.conn, f.other.ID, first.ID, enums.MembershipListShoppingCart)

	ids := func(rows []RecipeDTO) []uuid.UUID {
		out := []uuid.UUID{}
		for _, r := range rows {
			out = append(out, r.ID)
		}
		return out
	}
	page := pagination.Params{Page: 1, Limit: 10}

	all, total, err := f.svc.List(ctx, nil, ListQuery{}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID, third.ID}, ids(all))

	byAuthor, _, err := f.svc.List(ctx, nil, ListQuery{AuthorID: &f.author.ID}, page)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids(byAuthor))

	byTag, total, err := f.svc.List(ctx, nil, ListQuery{TagSlugs: []string{"dinner", "dinner"}}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.ElementsMatch(t, []uuid.UUID{second.ID, third.ID}, ids(byTag))

	favorites, _, err := f.svc.List(ctx, &f.other.ID, ListQuery{IsFavorited: true}, page)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.True(t, favorites[0].IsFavorited)
	assert.True(t, favorites[0].IsInShoppingCart)

	both, _, err := f.svc.List(ctx, &f.other.ID, ListQuery{IsFavorited: true, IsInShoppingCart: true}, page)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID}, ids(both))

	anon, total, err := f.svc.List(ctx, nil, ListQuery{IsInShoppingCart: true}, page)
	require.NoError(t, err)
	assert.Empty(t, anon)
	assert.Zero(t, total)

	paged, total, err := f.svc.List(ctx, nil, ListQuery{}, pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, paged, 1)
}
