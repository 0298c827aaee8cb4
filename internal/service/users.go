package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const avatarFolder = "users/avatars"

// reserved usernames that would shadow /api/users/me/
var reservedUsernames = map[string]bool{"me": true}

var validate = validator.New()

type UserService struct {
	db     *gorm.DB
	images ImageStore
}

func NewUserService(db *gorm.DB, images ImageStore) *UserService {
	return &UserService{db: db, images: images}
}

// Create registers a new account
func (s *UserService) Create(ctx context.Context, req types.CreateUserRequest) (*types.CreatedUser, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	verr := &ValidationError{}
	if err := validate.Var(req.Email, "required,email,max=254"); err != nil {
		verr.Add("email", "enter a valid email address")
	}
	switch {
	case req.Username == "":
		verr.Add("username", "this field is required")
	case utf8.RuneCountInString(req.Username) > 150:
		verr.Add("username", "ensure this field has no more than 150 characters")
	case !models.UsernamePattern.MatchString(req.Username):
		verr.Add("username", "username may contain only letters, digits and @/./+/-/_")
	case reservedUsernames[strings.ToLower(req.Username)]:
		verr.Add("username", "this username is not allowed")
	}
	checkName(verr, "first_name", req.FirstName)
	checkName(verr, "last_name", req.LastName)
	checkPassword(verr, "password", req.Password)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		verr.Add("email", "a user with that email already exists")
	}
	if err := db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		verr.Add("username", "a user with that username already exists")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			verr.Add("email", "a user with that email or username already exists")
			return nil, verr
		}
		return nil, err
	}

	return &types.CreatedUser{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func checkName(verr *ValidationError, field, value string) {
	switch {
	case strings.TrimSpace(value) == "":
		verr.Add(field, "this field is required")
	case utf8.RuneCountInString(value) > 150:
		verr.Add(field, "ensure this field has no more than 150 characters")
	}
}

func checkPassword(verr *ValidationError, field, value string) {
	switch {
	case value == "":
		verr.Add(field, "this field is required")
	case len(value) < 8:
		verr.Add(field, "password must contain at least 8 characters")
	case strings.Trim(value, "0123456789") == "":
		verr.Add(field, "password cannot be entirely numeric")
	}
}

// Get returns a single user as seen by viewer (0 for anonymous)
func (s *UserService) Get(ctx context.Context, viewer, id uint) (*types.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	subscribed, err := subscribedTo(ctx, s.db, viewer, []uint{user.ID})
	if err != nil {
		return nil, err
	}
	out := toUser(user, subscribed[user.ID])
	return &out, nil
}

// List returns one page of users ordered by id
func (s *UserService) List(ctx context.Context, viewer uint, offset, limit int) ([]types.User, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := db.Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := subscribedTo(ctx, s.db, viewer, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]types.User, len(users))
	for i, u := range users {
		out[i] = toUser(u, subscribed[u.ID])
	}
	return out, total, nil
}

// SetPassword replaces the password after checking the current one
func (s *UserService) SetPassword(ctx context.Context, userID uint, req types.SetPasswordRequest) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	verr := &ValidationError{}
	if req.CurrentPassword == "" {
		verr.Add("current_password", "this field is required")
	} else if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		verr.Add("current_password", "invalid password")
	}
	checkPassword(verr, "new_password", req.NewPassword)
	if err := verr.OrNil(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&user).Update("password_hash", string(hash)).Error
}

// SetAvatar stores a new avatar and removes the previous one
func (s *UserService) SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error) {
	if dataURI == "" {
		return "", &ValidationError{Fields: map[string]string{"avatar": "this field is required"}}
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	url, err := SaveDataURI(ctx, s.images, avatarFolder, dataURI)
	if err != nil {
		if errors.Is(err, ErrInvalidImage) {
			return "", &ValidationError{Fields: map[string]string{"avatar": err.Error()}}
		}
		return "", err
	}

	previous := user.Avatar
	if err := s.db.WithContext(ctx).Model(&user).Update("avatar", url).Error; err != nil {
		discardImage(ctx, s.images, url)
		return "", err
	}
	if previous != "" {
		discardImage(ctx, s.images, previous)
	}
	return url, nil
}

// DeleteAvatar clears the avatar and deletes the stored object
func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if user.Avatar == "" {
		return nil
	}

	previous := user.Avatar
	if err := s.db.WithContext(ctx).Model(&user).Update("avatar", "").Error; err != nil {
		return err
	}
	discardImage(ctx, s.images, previous)
	return nil
}

func toUser(u models.User, subscribed bool) types.User {
	out := types.User{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
	if u.Avatar != "" {
		avatar := u.Avatar
		out.Avatar = &avatar
	}
	return out
}

// subscribedTo reports which of authorIDs the viewer follows
func subscribedTo(ctx context.Context, db *gorm.DB, viewer uint, authorIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	if viewer == 0 || len(authorIDs) == 0 {
		return result, nil
	}

	var ids []uint
	err := db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewer, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
