package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	RangeFast   = "fast"
	RangeMedium = "medium"
	RangeLong   = "long"
)

// Thresholds split cooking times into fast (< Fast), medium and long (>= Long)
type Thresholds struct {
	Fast int
	Long int
}

// CookingTimeThresholds picks tercile boundaries from the distinct cooking times.
// With fewer than three distinct values there is nothing to split.
func CookingTimeThresholds(times []int) (Thresholds, bool) {
	distinct := make([]int, 0, len(times))
	seen := make(map[int]bool, len(times))
	for _, t := range times {
		if !seen[t] {
			seen[t] = true
			distinct = append(distinct, t)
		}
	}
	if len(distinct) < 3 {
		return Thresholds{}, false
	}
	sort.Ints(distinct)
	return Thresholds{
		Fast: distinct[len(distinct)/3],
		Long: distinct[2*len(distinct)/3],
	}, true
}

// Apply narrows q to the named range. Unknown ranges leave q unchanged.
func (t Thresholds) Apply(q *gorm.DB, column, rng string) *gorm.DB {
	switch rng {
	case RangeFast:
		return q.Where(column+" < ?", t.Fast)
	case RangeMedium:
		return q.Where(column+" >= ? AND "+column+" < ?", t.Fast, t.Long)
	case RangeLong:
		return q.Where(column+" >= ?", t.Long)
	}
	return q
}

// AdminService backs the staff listings
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) thresholds(ctx context.Context) (Thresholds, bool, error) {
	var times []int
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Distinct().Pluck("cooking_time", &times).Error; err != nil {
		return Thresholds{}, false, err
	}
	t, ok := CookingTimeThresholds(times)
	return t, ok, nil
}

// CookingTimeBuckets lists the fast/medium/long options with their counts
func (s *AdminService) CookingTimeBuckets(ctx context.Context) ([]types.Bucket, error) {
	t, ok, err := s.thresholds(ctx)
	if err != nil {
		return nil, err
	}
	buckets := []types.Bucket{}
	if !ok {
		return buckets, nil
	}

	labels := []struct{ value, label string }{
		{RangeFast, fmt.Sprintf("Faster than %d min", t.Fast)},
		{RangeMedium, fmt.Sprintf("From %d to %d min", t.Fast, t.Long)},
		{RangeLong, fmt.Sprintf("Longer than %d min", t.Long)},
	}
	for _, l := range labels {
		var count int64
		q := t.Apply(s.db.WithContext(ctx).Model(&models.Recipe{}), "cooking_time", l.value)
		if err := q.Count(&count).Error; err != nil {
			return nil, err
		}
		buckets = append(buckets, types.Bucket{
			Value: l.value,
			Label: fmt.Sprintf("%s (%d)", l.label, count),
			Count: count,
		})
	}
	return buckets, nil
}

// Recipes lists recipes with their favorites count, newest first
func (s *AdminService) Recipes(ctx context.Context, filter types.AdminRecipeFilter, offset, limit int) ([]types.AdminRecipe, int64, error) {
	q := s.db.WithContext(ctx).Table("recipes").Joins("JOIN users ON users.id = recipes.author_id")
	if filter.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if filter.CookingTimeRange != "" {
		t, ok, err := s.thresholds(ctx)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			q = t.Apply(q, "recipes.cooking_time", filter.CookingTimeRange)
		}
	}
	q = search(q, filter.Search, "recipes.name", "recipes.text", "users.username", "users.first_name", "users.last_name")
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []types.AdminRecipe{}
	err := q.Select("recipes.id AS id, recipes.name AS name, users.username AS author, recipes.cooking_time AS cooking_time, " +
		"(SELECT COUNT(*) FROM favorites WHERE favorites.recipe_id = recipes.id) AS favorites_count").
		Order("recipes.id DESC").Offset(offset).Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Ingredients lists ingredients with how many recipes use them
func (s *AdminService) Ingredients(ctx context.Context, filter types.AdminIngredientFilter, offset, limit int) ([]types.AdminIngredient, int64, error) {
	used := "EXISTS (SELECT 1 FROM recipe_ingredients WHERE recipe_ingredients.ingredient_id = ingredients.id)"

	q := s.db.WithContext(ctx).Table("ingredients")
	q = yesNo(q, filter.HasRecipes, used)
	if filter.MeasurementUnit != "" {
		q = q.Where("ingredients.measurement_unit = ?", filter.MeasurementUnit)
	}
	q = search(q, filter.Search, "ingredients.name", "ingredients.measurement_unit")
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []types.AdminIngredient{}
	err := q.Select("ingredients.id AS id, ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, " +
		"(SELECT COUNT(*) FROM recipe_ingredients WHERE recipe_ingredients.ingredient_id = ingredients.id) AS recipe_count").
		Order("ingredients.name").Order("ingredients.id").Offset(offset).Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Users lists accounts with recipe, subscription and follower counts
func (s *AdminService) Users(ctx context.Context, filter types.AdminUserFilter, offset, limit int) ([]types.AdminUser, int64, error) {
	q := s.db.WithContext(ctx).Table("users")
	q = yesNo(q, filter.HasRecipes, "EXISTS (SELECT 1 FROM recipes WHERE recipes.author_id = users.id)")
	q = yesNo(q, filter.HasSubscriptions, "EXISTS (SELECT 1 FROM subscriptions WHERE subscriptions.user_id = users.id)")
	q = yesNo(q, filter.HasFollowers, "EXISTS (SELECT 1 FROM subscriptions WHERE subscriptions.author_id = users.id)")
	q = search(q, filter.Search, "users.username", "users.email", "users.first_name", "users.last_name")
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []types.AdminUser{}
	err := q.Select("users.id AS id, users.email AS email, users.username AS username, " +
		"users.first_name AS first_name, users.last_name AS last_name, users.is_staff AS is_staff, " +
		"(SELECT COUNT(*) FROM recipes WHERE recipes.author_id = users.id) AS recipe_count, " +
		"(SELECT COUNT(*) FROM subscriptions WHERE subscriptions.user_id = users.id) AS subscription_count, " +
		"(SELECT COUNT(*) FROM subscriptions WHERE subscriptions.author_id = users.id) AS follower_count").
		Order("users.id").Offset(offset).Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// yesNo applies an EXISTS condition for "yes", its negation for "no"
func yesNo(q *gorm.DB, value, exists string) *gorm.DB {
	switch value {
	case "yes":
		return q.Where(exists)
	case "no":
		return q.Where("NOT " + exists)
	}
	return q
}

// search matches term case-insensitively against any of columns
func search(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return q
	}
	like := "%" + escapeLike(term) + "%"
	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, c := range columns {
		conds[i] = likeClause(q, c)
		args[i] = like
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}
