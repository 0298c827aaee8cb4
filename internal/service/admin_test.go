package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestCookingTimeThresholds(t *testing.T) {
	tests := []struct {
		name     string
		times    []int
		expected service.Thresholds
		ok       bool
	}{
		{"empty", nil, service.Thresholds{}, false},
		{"two distinct", []int{10, 10, 20, 20}, service.Thresholds{}, false},
		{"three distinct", []int{30, 10, 20}, service.Thresholds{Fast: 20, Long: 30}, true},
		{"duplicates ignored", []int{5, 5, 5, 10, 15, 20, 25, 30}, service.Thresholds{Fast: 15, Long: 25}, true},
		{"six distinct", []int{60, 10, 50, 20, 40, 30}, service.Thresholds{Fast: 30, Long: 50}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := service.CookingTimeThresholds(tt.times)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCookingTimeBuckets(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()
	admin := service.NewAdminService(db)
	author := testhelpers.CreateTestUser(t, db, "chef")

	buckets, err := admin.CookingTimeBuckets(ctx)
	require.NoError(t, err)
	assert.Empty(t, buckets)

	for i, minutes := range []int{5, 10, 10, 20, 30, 45} {
		testhelpers.CreateRecipe(t, db, author, "recipe"+string(rune('a'+i)), minutes)
	}

	// distinct times 5 10 20 30 45: fast below 10, medium 10 to 29, long from 30
	buckets, err = admin.CookingTimeBuckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Bucket{
		{Value: service.RangeFast, Label: "Faster than 10 min (1)", Count: 1},
		{Value: service.RangeMedium, Label: "From 10 to 30 min (3)", Count: 3},
		{Value: service.RangeLong, Label: "Longer than 30 min (2)", Count: 2},
	}, buckets)

	rows, total, err := admin.Recipes(ctx, types.AdminRecipeFilter{CookingTimeRange: service.RangeLong}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, 45, rows[0].CookingTime)
}

func TestAdminRecipesSearchAndFavorites(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()
	admin := service.NewAdminService(db)

	anna := testhelpers.CreateTestUser(t, db, "anna")
	bob := testhelpers.CreateTestUser(t, db, "bob")
	soup := testhelpers.CreateRecipe(t, db, anna, "Tomato soup", 30)
	testhelpers.CreateRecipe(t, db, bob, "Apple pie", 60)
	require.NoError(t, db.Create(&models.Favorite{UserID: bob.ID, RecipeID: soup.ID}).Error)

	rows, total, err := admin.Recipes(ctx, types.AdminRecipeFilter{Search: "TOMATO"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, types.AdminRecipe{ID: soup.ID, Name: "Tomato soup", Author: "anna", CookingTime: 30, FavoritesCount: 1}, rows[0])

	rows, total, err = admin.Recipes(ctx, types.AdminRecipeFilter{AuthorID: bob.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Apple pie", rows[0].Name)

	// search reaches author names
	_, total, err = admin.Recipes(ctx, types.AdminRecipeFilter{Search: "last bob"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	rows, total, err = admin.Recipes(ctx, types.AdminRecipeFilter{Search: "100%"}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestAdminIngredients(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()
	admin := service.NewAdminService(db)

	author := testhelpers.CreateTestUser(t, db, "chef")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	testhelpers.CreateIngredient(t, db, "milk", "ml")
	testhelpers.CreateRecipe(t, db, author, "bread", 60, testhelpers.IngredientAmount{Ingredient: flour, Amount: 1})

	rows, total, err := admin.Ingredients(ctx, types.AdminIngredientFilter{HasRecipes: "yes"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []types.AdminIngredient{{ID: flour.ID, Name: "flour", MeasurementUnit: "g", RecipeCount: 1}}, rows)

	rows, _, err = admin.Ingredients(ctx, types.AdminIngredientFilter{HasRecipes: "no"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "milk", rows[0].Name)

	rows, _, err = admin.Ingredients(ctx, types.AdminIngredientFilter{MeasurementUnit: "ml"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "milk", rows[0].Name)
}

func TestAdminUsers(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()
	admin := service.NewAdminService(db)

	anna := testhelpers.CreateTestUser(t, db, "anna")
	bob := testhelpers.CreateTestUser(t, db, "bob")
	testhelpers.CreateStaffUser(t, db, "carol")
	testhelpers.CreateRecipe(t, db, anna, "soup", 10)
	require.NoError(t, db.Create(&models.Subscription{UserID: bob.ID, AuthorID: anna.ID}).Error)

	rows, total, err := admin.Users(ctx, types.AdminUserFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(1), rows[0].RecipeCount)
	assert.Equal(t, int64(1), rows[0].FollowerCount)
	assert.Equal(t, int64(1), rows[1].SubscriptionCount)
	assert.True(t, rows[2].IsStaff)

	rows, _, err = admin.Users(ctx, types.AdminUserFilter{HasRecipes: "yes"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "anna", rows[0].Username)

	rows, _, err = admin.Users(ctx, types.AdminUserFilter{HasSubscriptions: "yes"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bob", rows[0].Username)

	_, total, err = admin.Users(ctx, types.AdminUserFilter{HasFollowers: "no", Search: "example.com"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestAdminSearchNonASCII(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	admin := service.NewAdminService(db)

	author := testhelpers.CreateTestUser(t, db, "повар")
	testhelpers.CreateRecipe(t, db, author, "Борщ украинский", 90)
	testhelpers.CreateIngredient(t, db, "Свёкла", "г")

	rows, total, err := admin.Recipes(context.Background(), types.AdminRecipeFilter{Search: "украин"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "повар", rows[0].Author)

	_, total, err = admin.Ingredients(context.Background(), types.AdminIngredientFilter{Search: "вёк"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = admin.Users(context.Background(), types.AdminUserFilter{Search: "пова"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
