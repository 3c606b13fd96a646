package tags

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodgram-backend/internal/testutil"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
)

func TestListOrdersByName(t *testing.T) {
	conn := testutil.NewDB(t)
	testutil.MustCreateTag(t, conn, "Lunch", "lunch")
	testutil.MustCreateTag(t, conn, "Breakfast", "breakfast")

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "breakfast", got[0].Slug)
	assert.Equal(t, "lunch", got[1].Slug)
}

func TestGet(t *testing.T) {
	conn := testutil.NewDB(t)
	dinner := testutil.MustCreateTag(t, conn, "Dinner", "dinner")

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), dinner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dinner", got.Name)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
