package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestSearchIngredients(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ctx := context.Background()
	ingredients := service.NewIngredientService(db)

	testhelpers.CreateIngredient(t, db, "sugar", "g")
	testhelpers.CreateIngredient(t, db, "Salt", "g")
	testhelpers.CreateIngredient(t, db, "sea_salt", "g")
	testhelpers.CreateIngredient(t, db, "butter", "g")

	tests := []struct {
		name     string
		prefix   string
		expected []string
	}{
		{"all when empty", "", []string{"Salt", "butter", "sea_salt", "sugar"}},
		{"case insensitive prefix", "S", []string{"Salt", "sea_salt", "sugar"}},
		{"prefix only", "alt", nil},
		{"underscore is literal", "sea_", []string{"sea_salt"}},
		{"wildcard is literal", "s%", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := ingredients.Search(ctx, tt.prefix)
			require.NoError(t, err)
			require.NotNil(t, found)

			var names []string
			for _, i := range found {
				names = append(names, i.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestGetIngredient(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ingredients := service.NewIngredientService(db)
	milk := testhelpers.CreateIngredient(t, db, "milk", "ml")

	got, err := ingredients.Get(context.Background(), milk.ID)
	require.NoError(t, err)
	assert.Equal(t, "ml", got.MeasurementUnit)

	_, err = ingredients.Get(context.Background(), 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSearchIngredientsNonASCII(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	ingredients := service.NewIngredientService(db)

	testhelpers.CreateIngredient(t, db, "Абрикос", "г")
	testhelpers.CreateIngredient(t, db, "Éclair", "pcs")
	testhelpers.CreateIngredient(t, db, "апельсин", "г")

	tests := []struct {
		prefix   string
		expected []string
	}{
		{"Аб", []string{"Абрикос"}},
		{"ап", []string{"апельсин"}},
		{"Éc", []string{"Éclair"}},
		{"écl", nil},
		{"ÉCL", nil},
		{"éC", nil},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			found, err := ingredients.Search(context.Background(), tt.prefix)
			require.NoError(t, err)

			var names []string
			for _, i := range found {
				names = append(names, i.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}
