package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"gorm.io/gorm"
)

// ShoppingItem is one aggregated product line
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Total           int
}

// ShoppingRecipe is one cart recipe with its author
type ShoppingRecipe struct {
	Name      string
	FirstName string
	LastName  string
	Username  string
}

type ShoppingService struct {
	db *gorm.DB
}

func NewShoppingService(db *gorm.DB) *ShoppingService {
	return &ShoppingService{db: db}
}

// Items sums ingredient amounts over every recipe in the user's cart in a single grouped query
func (s *ShoppingService) Items(ctx context.Context, userID uint) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.WithContext(ctx).
		Table("shopping_carts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_carts.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.id, ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Recipes lists the cart's recipes in the order they were added
func (s *ShoppingService) Recipes(ctx context.Context, userID uint) ([]ShoppingRecipe, error) {
	var recipes []ShoppingRecipe
	err := s.db.WithContext(ctx).
		Table("shopping_carts").
		Select("recipes.name AS name, users.first_name AS first_name, users.last_name AS last_name, users.username AS username").
		Joins("JOIN recipes ON recipes.id = shopping_carts.recipe_id").
		Joins("JOIN users ON users.id = recipes.author_id").
		Where("shopping_carts.user_id = ?", userID).
		Order("shopping_carts.id").
		Scan(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// Report renders the shopping list text, ErrEmptyCart when the cart has nothing in it
func (s *ShoppingService) Report(ctx context.Context, userID uint, compiledAt time.Time) (string, error) {
	recipes, err := s.Recipes(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(recipes) == 0 {
		return "", ErrEmptyCart
	}

	items, err := s.Items(ctx, userID)
	if err != nil {
		return "", err
	}
	return RenderShoppingList(items, recipes, compiledAt), nil
}

// RenderShoppingList formats the report body
func RenderShoppingList(items []ShoppingItem, recipes []ShoppingRecipe, compiledAt time.Time) string {
	lines := []string{
		"Shopping list",
		"",
		"Compiled: " + compiledAt.Format("02.01.2006 15:04:05"),
		"",
		"Products:",
	}
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s — %d %s;", i+1, capitalize(item.Name), item.Total, item.MeasurementUnit))
	}
	lines = append(lines, "", "Recipes:")
	for i, r := range recipes {
		lines = append(lines, fmt.Sprintf("%d. %s — %s %s (%s);", i+1, r.Name, r.LastName, r.FirstName, r.Username))
	}
	return strings.Join(lines, "\n")
}

// capitalize upper-cases the first letter and lower-cases the rest
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
