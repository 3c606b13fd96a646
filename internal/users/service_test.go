package users

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodgram-backend/internal/testutil"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
	"github.com/angelmondragon/foodgram-backend/pkg/security"
)

type stubSubscriptions struct {
	subscribed map[uuid.UUID]bool
	calls      int
}

func (s *stubSubscriptions) SubscribedAuthors(_ context.Context, _ uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	s.calls++
	out := map[uuid.UUID]bool{}
	for _, id := range ids {
		if s.subscribed[id] {
			out[id] = true
		}
	}
	return out, nil
}

type stubMedia struct {
	saved   []string
	deleted []string
}

func (m *stubMedia) Save(_ context.Context, kind enums.MediaKind, _ string) (string, error) {
	url := "/media/" + kind.Dir() + "/" + uuid.NewString() + ".png"
	m.saved = append(m.saved, url)
	return url, nil
}

func (m *stubMedia) Delete(_ context.Context, url string) error {
	m.deleted = append(m.deleted, url)
	return nil
}

func newTestService(t *testing.T) (Service, *Repository, *stubSubscriptions, *stubMedia) {
	t.Helper()
	conn := testutil.NewDB(t)
	repo := NewRepository(conn)
	subs := &stubSubscriptions{subscribed: map[uuid.UUID]bool{}}
	media := &stubMedia{}
	svc, err := NewService(ServiceParams{
		Repo:           repo,
		Subscriptions:  subs,
		Media:          media,
		PasswordConfig: testutil.PasswordConfig(),
	})
	require.NoError(t, err)
	return svc, repo, subs, media
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Email:     "Chef@Example.com",
		Username:  "chef",
		FirstName: "Julia",
		LastName:  "Child",
		Password:  "boeuf-bourguignon",
	}
}

func TestRegisterCreatesUserWithHashedPassword(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", created.Email)
	assert.Equal(t, "chef", created.Username)

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "boeuf-bourguignon", stored.PasswordHash)
	ok, err := security.VerifyPassword("boeuf-bourguignon", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegistration())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "username")
}

func TestRegisterFieldErrors(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		mut   func(*RegisterRequest)
		field string
	}{
		{"bad username", func(r *RegisterRequest) { r.Username = "chef!" }, "username"},
		{"reserved username", func(r *RegisterRequest) { r.Username = "me" }, "username"},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }, "password"},
		{"numeric password", func(r *RegisterRequest) { r.Password = "1234567890" }, "password"},
		{"password contains username", func(r *RegisterRequest) { r.Password = "chef-password" }, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegistration()
			tc.mut(&req)
			_, err := svc.Register(ctx, req)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			assert.Contains(t, typed.Details(), tc.field)
		})
	}
}

func TestGetMarksSubscriptionForViewer(t *testing.T) {
	svc, repo, subs, _ := newTestService(t)
	ctx := context.Background()

	author := testutil.MustCreateUser(t, repo.db, "author")
	viewer := testutil.MustCreateUser(t, repo.db, "viewer")
	subs.subscribed[author.ID] = true

	anon, err := svc.Get(ctx, nil, author.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsSubscribed)
	assert.Equal(t, 0, subs.calls)

	seen, err := svc.Get(ctx, &viewer.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, seen.IsSubscribed)

	_, err = svc.Get(ctx, nil, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListPaginatesByUsername(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		testutil.MustCreateUser(t, repo.db, name)
	}

	page, total, err := svc.List(ctx, nil, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "alice", page[0].Username)
	assert.Equal(t, "bob", page[1].Username)

	rest, _, err := svc.List(ctx, nil, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "carol", rest[0].Username)
}

func TestSetPassword(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	err = svc.SetPassword(ctx, created.ID, SetPasswordRequest{CurrentPassword: "wrong", NewPassword: "souffle-au-fromage"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = svc.SetPassword(ctx, created.ID, SetPasswordRequest{CurrentPassword: "boeuf-bourguignon", NewPassword: "souffle-au-fromage"})
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	ok, err := security.VerifyPassword("souffle-au-fromage", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAvatarLifecycle(t *testing.T) {
	svc, repo, _, media := newTestService(t)
	ctx := context.Background()
	user := testutil.MustCreateUser(t, repo.db, "painter")

	first, err := svc.SetAvatar(ctx, user.ID, "data:image/png;base64,AAAA")
	require.NoError(t, err)
	require.NotNil(t, first.Avatar)
	assert.True(t, strings.HasPrefix(*first.Avatar, "/media/users/"))

	second, err := svc.SetAvatar(ctx, user.ID, "data:image/png;base64,BBBB")
	require.NoError(t, err)
	assert.Equal(t, []string{*first.Avatar}, media.deleted)

	require.NoError(t, svc.DeleteAvatar(ctx, user.ID))
	var stored models.User
	require.NoError(t, repo.db.First(&stored, "id = ?", user.ID).Error)
	assert.Nil(t, stored.Avatar)
	assert.Equal(t, []string{*first.Avatar, *second.Avatar}, media.deleted)

	// clearing twice is a no-op
	require.NoError(t, svc.DeleteAvatar(ctx, user.ID))
	assert.Len(t, media.deleted, 2)
}

func TestResolveDeduplicatesAndSkipsMissing(t *testing.T) {
	svc, repo, subs, _ := newTestService(t)
	ctx := context.Background()

	a := testutil.MustCreateUser(t, repo.db, "a-author")
	b := testutil.MustCreateUser(t, repo.db, "b-author")
	viewer := uuid.New()
	subs.subscribed[b.ID] = true

	got, err := svc.Resolve(ctx, &viewer, []uuid.UUID{a.ID, b.ID, a.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[a.ID].IsSubscribed)
	assert.True(t, got[b.ID].IsSubscribed)
}
