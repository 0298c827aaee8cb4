package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func validSignup() types.CreateUserRequest {
	return types.CreateUserRequest{
		Email:     "vasya@example.com",
		Username:  "vasya.pupkin",
		FirstName: "Vasya",
		LastName:  "Pupkin",
		Password:  "Qwerty123!",
	}
}

func TestCreateUser(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	users := service.NewUserService(db, testhelpers.NewMemoryImageStore())
	ctx := context.Background()

	created, err := users.Create(ctx, validSignup())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "vasya.pupkin", created.Username)

	var stored models.User
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.NotEqual(t, "Qwerty123!", stored.PasswordHash)
	assert.False(t, stored.IsStaff)

	t.Run("duplicate email and username", func(t *testing.T) {
		_, err := users.Create(ctx, validSignup())
		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "username")
	})
}

func TestCreateUserValidation(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	users := service.NewUserService(db, testhelpers.NewMemoryImageStore())

	tests := []struct {
		name   string
		mutate func(*types.CreateUserRequest)
		field  string
	}{
		{"invalid email", func(r *types.CreateUserRequest) { r.Email = "not-an-email" }, "email"},
		{"bad username characters", func(r *types.CreateUserRequest) { r.Username = "bad name!" }, "username"},
		{"reserved username", func(r *types.CreateUserRequest) { r.Username = "me" }, "username"},
		{"missing first name", func(r *types.CreateUserRequest) { r.FirstName = "" }, "first_name"},
		{"missing last name", func(r *types.CreateUserRequest) { r.LastName = " " }, "last_name"},
		{"short password", func(r *types.CreateUserRequest) { r.Password = "abc" }, "password"},
		{"numeric password", func(r *types.CreateUserRequest) { r.Password = "1234567890" }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignup()
			tt.mutate(&req)

			_, err := users.Create(context.Background(), req)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestListUsersMarksSubscriptions(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	users := service.NewUserService(db, testhelpers.NewMemoryImageStore())
	ctx := context.Background()

	viewer := testhelpers.CreateTestUser(t, db, "viewer")
	followed := testhelpers.CreateTestUser(t, db, "followed")
	testhelpers.CreateTestUser(t, db, "stranger")
	require.NoError(t, db.Create(&models.Subscription{UserID: viewer.ID, AuthorID: followed.ID}).Error)

	list, total, err := users.List(ctx, viewer.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 3)
	assert.Equal(t, []uint{1, 2, 3}, []uint{list[0].ID, list[1].ID, list[2].ID})
	assert.False(t, list[0].IsSubscribed)
	assert.True(t, list[1].IsSubscribed)
	assert.False(t, list[2].IsSubscribed)
	assert.Nil(t, list[0].Avatar)

	anonymous, _, err := users.List(ctx, 0, 0, 10)
	require.NoError(t, err)
	assert.False(t, anonymous[1].IsSubscribed)

	page, total, err := users.List(ctx, viewer.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "stranger", page[0].Username)
}

func TestGetUserNotFound(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	users := service.NewUserService(db, testhelpers.NewMemoryImageStore())

	_, err := users.Get(context.Background(), 0, 42)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSetPassword(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	users := service.NewUserService(db, testhelpers.NewMemoryImageStore())
	user := testhelpers.CreateTestUser(t, db, "erin")
	ctx := context.Background()

	err := users.SetPassword(ctx, user.ID, types.SetPasswordRequest{CurrentPassword: "wrong", NewPassword: "N3w-password"})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "current_password")

	require.NoError(t, users.SetPassword(ctx, user.ID, types.SetPasswordRequest{
		CurrentPassword: testhelpers.TestPassword,
		NewPassword:     "N3w-password",
	}))

	authSvc := service.NewAuthService(db, "test-secret", 0, nil)
	_, err = authSvc.Login(ctx, user.Email, "N3w-password")
	assert.NoError(t, err)
	_, err = authSvc.Login(ctx, user.Email, testhelpers.TestPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAvatar(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	images := testhelpers.NewMemoryImageStore()
	users := service.NewUserService(db, images)
	user := testhelpers.CreateTestUser(t, db, "frank")
	ctx := context.Background()

	first, err := users.SetAvatar(ctx, user.ID, testhelpers.PNGDataURI)
	require.NoError(t, err)
	assert.True(t, images.Has(first))

	second, err := users.SetAvatar(ctx, user.ID, testhelpers.PNGDataURI)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.False(t, images.Has(first), "previous avatar should be deleted")

	got, err := users.Get(ctx, 0, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, second, *got.Avatar)

	require.NoError(t, users.DeleteAvatar(ctx, user.ID))
	assert.False(t, images.Has(second))
	got, err = users.Get(ctx, 0, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Avatar)

	_, err = users.SetAvatar(ctx, user.ID, "data:text/plain;base64,aGVsbG8=")
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "avatar")
}

func TestAvatarStorageFailure(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	images := new(testhelpers.MockImageStore)
	images.On("Save", mock.Anything, "users/avatars", mock.Anything, ".png", "image/png").
		Return("", errors.New("bucket unavailable"))
	users := service.NewUserService(db, images)
	user := testhelpers.CreateTestUser(t, db, "gina")

	_, err := users.SetAvatar(context.Background(), user.ID, testhelpers.PNGDataURI)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
	images.AssertExpectations(t)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Empty(t, stored.Avatar)
}

func TestDeleteAvatarIgnoresStorageFailure(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	images := new(testhelpers.MockImageStore)
	users := service.NewUserService(db, images)
	user := testhelpers.CreateTestUser(t, db, "hana")
	require.NoError(t, db.Model(user).Update("avatar", "/media/users/avatars/old.png").Error)

	images.On("Delete", mock.Anything, "/media/users/avatars/old.png").Return(errors.New("bucket unavailable"))

	require.NoError(t, users.DeleteAvatar(context.Background(), user.ID))
	images.AssertExpectations(t)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Empty(t, stored.Avatar)
}
