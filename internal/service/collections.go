package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Collection is a per-user set of recipes: favorites or the shopping cart
type Collection int

const (
	Favorites Collection = iota
	ShoppingCart
)

func (c Collection) row(userID, recipeID uint) interface{} {
	if c == ShoppingCart {
		return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
	}
	return &models.Favorite{UserID: userID, RecipeID: recipeID}
}

func (c Collection) model() interface{} {
	if c == ShoppingCart {
		return &models.ShoppingCart{}
	}
	return &models.Favorite{}
}

func (c Collection) String() string {
	if c == ShoppingCart {
		return "shopping cart"
	}
	return "favorites"
}

// Add puts the recipe into the user's collection
func (s *RecipeService) Add(ctx context.Context, c Collection, userID, recipeID uint) (*types.RecipeShort, error) {
	db := s.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var count int64
	if err := db.Model(c.model()).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyExists
	}

	if err := db.Create(c.row(userID, recipeID)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	short := toRecipeShort(recipe)
	return &short, nil
}

// Remove takes the recipe out of the user's collection, ErrNotPresent when it was not there
func (s *RecipeService) Remove(ctx context.Context, c Collection, userID, recipeID uint) error {
	db := s.db.WithContext(ctx)

	exists, err := s.Exists(ctx, recipeID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	result := db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(c.model())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotPresent
	}
	return nil
}
