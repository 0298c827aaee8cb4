package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestSubscribe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	subs := service.NewSubscriptionService(db)
	ctx := context.Background()

	reader := testhelpers.CreateTestUser(t, db, "reader")
	author := testhelpers.CreateTestUser(t, db, "author")
	testhelpers.CreateRecipe(t, db, author, "soup", 30)
	testhelpers.CreateRecipe(t, db, author, "salad", 10)
	testhelpers.CreateRecipe(t, db, author, "stew", 90)

	out, err := subs.Subscribe(ctx, reader.ID, author.ID, 2)
	require.NoError(t, err)
	assert.True(t, out.IsSubscribed)
	assert.Equal(t, int64(3), out.RecipesCount)
	require.Len(t, out.Recipes, 2)
	assert.Equal(t, "stew", out.Recipes[0].Name, "newest recipes come first")

	_, err = subs.Subscribe(ctx, reader.ID, author.ID, 0)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	_, err = subs.Subscribe(ctx, reader.ID, reader.ID, 0)
	assert.ErrorIs(t, err, service.ErrSelfSubscribe)

	_, err = subs.Subscribe(ctx, reader.ID, 999, 0)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUnsubscribe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	subs := service.NewSubscriptionService(db)
	ctx := context.Background()

	reader := testhelpers.CreateTestUser(t, db, "reader")
	author := testhelpers.CreateTestUser(t, db, "author")

	assert.ErrorIs(t, subs.Unsubscribe(ctx, reader.ID, author.ID), service.ErrNotPresent)
	assert.ErrorIs(t, subs.Unsubscribe(ctx, reader.ID, 999), service.ErrNotFound)

	_, err := subs.Subscribe(ctx, reader.ID, author.ID, 0)
	require.NoError(t, err)
	require.NoError(t, subs.Unsubscribe(ctx, reader.ID, author.ID))
	assert.ErrorIs(t, subs.Unsubscribe(ctx, reader.ID, author.ID), service.ErrNotPresent)
}

func TestSubscriptionsList(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	subs := service.NewSubscriptionService(db)
	ctx := context.Background()

	reader := testhelpers.CreateTestUser(t, db, "reader")
	first := testhelpers.CreateTestUser(t, db, "first")
	second := testhelpers.CreateTestUser(t, db, "second")
	testhelpers.CreateTestUser(t, db, "ignored")
	testhelpers.CreateRecipe(t, db, second, "pie", 45)

	for _, author := range []uint{second.ID, first.ID} {
		_, err := subs.Subscribe(ctx, reader.ID, author, 0)
		require.NoError(t, err)
	}

	list, total, err := subs.Subscriptions(ctx, reader.ID, 0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Username)
	assert.Empty(t, list[0].Recipes)
	assert.Equal(t, "second", list[1].Username)
	assert.Equal(t, int64(1), list[1].RecipesCount)
	assert.NotNil(t, list[0].Recipes, "empty recipe list serializes as []")
}
