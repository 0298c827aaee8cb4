package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const recipeImageFolder = "recipes/images"

type RecipeService struct {
	db     *gorm.DB
	images ImageStore
}

func NewRecipeService(db *gorm.DB, images ImageStore) *RecipeService {
	return &RecipeService{db: db, images: images}
}

func (s *RecipeService) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Ingredients.Ingredient")
}

// List returns one page of recipes, newest first. Membership filters only apply to signed-in viewers.
func (s *RecipeService) List(ctx context.Context, viewer uint, filter types.RecipeFilter, offset, limit int) ([]types.Recipe, int64, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if viewer != 0 && filter.IsFavorited {
		q = q.Where("id IN (?)", db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewer))
	}
	if viewer != 0 && filter.IsInShoppingCart {
		q = q.Where("id IN (?)", db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", viewer))
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	if err := s.preload(q).Order("id DESC").Offset(offset).Limit(limit).Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	out, err := s.present(ctx, viewer, recipes)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get returns the full recipe as seen by viewer
func (s *RecipeService) Get(ctx context.Context, viewer, id uint) (*types.Recipe, error) {
	var recipe models.Recipe
	if err := s.preload(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	out, err := s.present(ctx, viewer, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Exists reports whether a recipe with id exists
func (s *RecipeService) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create stores a new recipe authored by authorID
func (s *RecipeService) Create(ctx context.Context, authorID uint, req types.RecipeRequest) (*types.Recipe, error) {
	if err := s.validate(ctx, req, true); err != nil {
		return nil, err
	}

	imageURL, err := s.saveImage(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Image:       imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(ingredientRows(recipe.ID, req.Ingredients)).Error
	})
	if err != nil {
		discardImage(ctx, s.images, imageURL)
		return nil, err
	}

	return s.Get(ctx, authorID, recipe.ID)
}

// Update replaces the recipe fields and its ingredient rows. Only the author may update.
func (s *RecipeService) Update(ctx context.Context, userID, id uint, req types.RecipeRequest) (*types.Recipe, error) {
	recipe, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req, false); err != nil {
		return nil, err
	}

	previousImage := recipe.Image
	imageURL := previousImage
	if req.Image != "" {
		if imageURL, err = s.saveImage(ctx, req.Image); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Updates(map[string]interface{}{
			"name":         req.Name,
			"text":         req.Text,
			"cooking_time": req.CookingTime,
			"image":        imageURL,
		}).Error
		if err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(ingredientRows(recipe.ID, req.Ingredients)).Error
	})
	if err != nil {
		if imageURL != previousImage {
			discardImage(ctx, s.images, imageURL)
		}
		return nil, err
	}
	if imageURL != previousImage {
		discardImage(ctx, s.images, previousImage)
	}

	return s.Get(ctx, userID, recipe.ID)
}

// Delete removes the recipe with everything that references it. Only the author may delete.
func (s *RecipeService) Delete(ctx context.Context, userID, id uint) error {
	recipe, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{&models.Favorite{}, &models.ShoppingCart{}, &models.RecipeIngredient{}} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, recipe.ID).Error
	})
	if err != nil {
		return err
	}

	discardImage(ctx, s.images, recipe.Image)
	return nil
}

func (s *RecipeService) owned(ctx context.Context, userID, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}
	return &recipe, nil
}

func (s *RecipeService) saveImage(ctx context.Context, dataURI string) (string, error) {
	url, err := SaveDataURI(ctx, s.images, recipeImageFolder, dataURI)
	if err != nil {
		if errors.Is(err, ErrInvalidImage) {
			return "", &ValidationError{Fields: map[string]string{"image": err.Error()}}
		}
		return "", err
	}
	return url, nil
}

func (s *RecipeService) validate(ctx context.Context, req types.RecipeRequest, requireImage bool) error {
	verr := &ValidationError{}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		verr.Add("name", "this field is required")
	case utf8.RuneCountInString(req.Name) > 256:
		verr.Add("name", "ensure this field has no more than 256 characters")
	}
	if strings.TrimSpace(req.Text) == "" {
		verr.Add("text", "this field is required")
	}
	if req.CookingTime < 1 {
		verr.Add("cooking_time", "cooking time must be at least 1 minute")
	}
	if requireImage && req.Image == "" {
		verr.Add("image", "this field is required")
	}

	if len(req.Ingredients) == 0 {
		verr.Add("ingredients", "at least one ingredient is required")
		return verr
	}

	seen := make(map[uint]bool, len(req.Ingredients))
	ids := make([]uint, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		if seen[item.ID] {
			verr.Add("ingredients", "ingredients must not repeat")
			continue
		}
		seen[item.ID] = true
		ids = append(ids, item.ID)
		if item.Amount < 1 {
			verr.Add("ingredients", "amount must be at least 1")
		}
	}

	var found []uint
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) != len(ids) {
		existing := make(map[uint]bool, len(found))
		for _, id := range found {
			existing[id] = true
		}
		for _, id := range ids {
			if !existing[id] {
				verr.Add("ingredients", fmt.Sprintf("ingredient %d does not exist", id))
				break
			}
		}
	}

	return verr.OrNil()
}

func ingredientRows(recipeID uint, items []types.IngredientAmountRequest) []models.RecipeIngredient {
	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		}
	}
	return rows
}

// present builds the response shape, resolving the viewer's favorites, cart and follows in bulk
func (s *RecipeService) present(ctx context.Context, viewer uint, recipes []models.Recipe) ([]types.Recipe, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorited, err := memberOf(ctx, s.db, &models.Favorite{}, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := memberOf(ctx, s.db, &models.ShoppingCart{}, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(ctx, s.db, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.Recipe, len(recipes))
	for i, r := range recipes {
		ingredients := make([]types.IngredientAmount, len(r.Ingredients))
		for j, ri := range r.Ingredients {
			ingredients[j] = types.IngredientAmount{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			}
		}
		out[i] = types.Recipe{
			ID:               r.ID,
			Author:           toUser(r.Author, subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return out, nil
}

// memberOf reports which recipes the viewer has in the favorites or cart table behind model
func memberOf(ctx context.Context, db *gorm.DB, model interface{}, viewer uint, recipeIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	if viewer == 0 || len(recipeIDs) == 0 {
		return result, nil
	}

	var ids []uint
	err := db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", viewer, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func toRecipeShort(r models.Recipe) types.RecipeShort {
	return types.RecipeShort{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}
