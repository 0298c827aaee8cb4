package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

// Fixture kinds understood by the loader
const (
	KindIngredients = "ingredients"
	KindUsers       = "users"
	KindRecipes     = "recipes"
)

type IngredientFixture struct {
	Name            string `json:"name" yaml:"name"`
	MeasurementUnit string `json:"measurement_unit" yaml:"measurement_unit"`
}

type UserFixture struct {
	Email       string `json:"email" yaml:"email"`
	Username    string `json:"username" yaml:"username"`
	FirstName   string `json:"first_name" yaml:"first_name"`
	LastName    string `json:"last_name" yaml:"last_name"`
	Password    string `json:"password" yaml:"password"`
	IsStaff     bool   `json:"is_staff" yaml:"is_staff"`
	IsSuperuser bool   `json:"is_superuser" yaml:"is_superuser"`
}

// RecipeIngredientFixture references an ingredient by id or by name
type RecipeIngredientFixture struct {
	ID     uint   `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Amount int    `json:"amount" yaml:"amount"`
}

type RecipeFixture struct {
	Author      string                    `json:"author" yaml:"author"`
	Name        string                    `json:"name" yaml:"name"`
	Image       string                    `json:"image" yaml:"image"`
	Text        string                    `json:"text" yaml:"text"`
	CookingTime int                       `json:"cooking_time" yaml:"cooking_time"`
	Ingredients []RecipeIngredientFixture `json:"ingredients" yaml:"ingredients"`
}

// Loader imports JSON or YAML fixtures. Rows that already exist are skipped, so it can be rerun.
type Loader struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewLoader(db *gorm.DB, log zerolog.Logger) *Loader {
	return &Loader{db: db, log: log}
}

// LoadFile picks the decoder from the file extension
func (l *Loader) LoadFile(ctx context.Context, kind, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return l.Load(ctx, kind, format, f)
}

// Load decodes r as format ("json", "yaml" or "yml") and imports it as kind
func (l *Loader) Load(ctx context.Context, kind, format string, r io.Reader) (int, error) {
	var created int
	var err error
	switch kind {
	case KindIngredients:
		var items []IngredientFixture
		if err = decodeFixture(format, r, &items); err == nil {
			created, err = l.LoadIngredients(ctx, items)
		}
	case KindUsers:
		var items []UserFixture
		if err = decodeFixture(format, r, &items); err == nil {
			created, err = l.LoadUsers(ctx, items)
		}
	case KindRecipes:
		var items []RecipeFixture
		if err = decodeFixture(format, r, &items); err == nil {
			created, err = l.LoadRecipes(ctx, items)
		}
	default:
		return 0, fmt.Errorf("unknown fixture kind %q", kind)
	}
	if err != nil {
		return created, err
	}

	l.log.Info().Str("kind", kind).Int("created", created).Msg("fixtures loaded")
	return created, nil
}

func decodeFixture(format string, r io.Reader, out interface{}) error {
	switch format {
	case "json":
		if err := json.NewDecoder(r).Decode(out); err != nil {
			return fmt.Errorf("failed to decode JSON fixture: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(out); err != nil {
			return fmt.Errorf("failed to decode YAML fixture: %w", err)
		}
	default:
		return fmt.Errorf("unsupported fixture format %q", format)
	}
	return nil
}

// LoadIngredients skips ingredients whose name is already present
func (l *Loader) LoadIngredients(ctx context.Context, items []IngredientFixture) (int, error) {
	created := 0
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			name := strings.TrimSpace(item.Name)
			if name == "" {
				continue
			}
			var count int64
			if err := tx.Model(&models.Ingredient{}).Where("name = ?", name).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&models.Ingredient{Name: name, MeasurementUnit: item.MeasurementUnit}).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, err
}

// LoadUsers skips users whose username or email is taken
func (l *Loader) LoadUsers(ctx context.Context, items []UserFixture) (int, error) {
	created := 0
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			var count int64
			if err := tx.Model(&models.User{}).
				Where("username = ? OR email = ?", item.Username, item.Email).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(item.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user := models.User{
				Email:        item.Email,
				Username:     item.Username,
				FirstName:    item.FirstName,
				LastName:     item.LastName,
				PasswordHash: string(hash),
				IsStaff:      item.IsStaff || item.IsSuperuser,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, err
}

// LoadRecipes skips recipes whose name exists or whose author is unknown
func (l *Loader) LoadRecipes(ctx context.Context, items []RecipeFixture) (int, error) {
	created := 0
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			var count int64
			if err := tx.Model(&models.Recipe{}).Where("name = ?", item.Name).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			var author models.User
			if err := tx.Where("username = ?", item.Author).First(&author).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					l.log.Warn().Str("recipe", item.Name).Str("author", item.Author).Msg("skipping recipe with unknown author")
					continue
				}
				return err
			}

			rows, err := l.resolveIngredients(tx, item)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				l.log.Warn().Str("recipe", item.Name).Msg("skipping recipe without known ingredients")
				continue
			}

			recipe := models.Recipe{
				AuthorID:    author.ID,
				Name:        item.Name,
				Image:       item.Image,
				Text:        item.Text,
				CookingTime: max(item.CookingTime, 1),
			}
			if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
				return err
			}
			for i := range rows {
				rows[i].RecipeID = recipe.ID
			}
			if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	return created, err
}

func (l *Loader) resolveIngredients(tx *gorm.DB, item RecipeFixture) ([]models.RecipeIngredient, error) {
	seen := make(map[uint]bool)
	var rows []models.RecipeIngredient
	for _, ref := range item.Ingredients {
		var ingredient models.Ingredient
		q := tx
		if ref.ID != 0 {
			q = q.Where("id = ?", ref.ID)
		} else {
			q = q.Where("name = ?", ref.Name)
		}
		if err := q.First(&ingredient).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				l.log.Warn().Str("recipe", item.Name).Str("ingredient", ref.Name).Uint("id", ref.ID).Msg("skipping unknown ingredient")
				continue
			}
			return nil, err
		}
		if seen[ingredient.ID] {
			continue
		}
		seen[ingredient.ID] = true
		rows = append(rows, models.RecipeIngredient{
			IngredientID: ingredient.ID,
			Amount:       max(ref.Amount, 1),
		})
	}
	return rows, nil
}
