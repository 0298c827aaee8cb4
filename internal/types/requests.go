package types

// LoginRequest is the body of POST /api/auth/token/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest is the body of POST /api/users/
type CreateUserRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// SetPasswordRequest is the body of POST /api/users/set_password/
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	CurrentPassword string `json:"current_password"`
}

// AvatarRequest carries a base64 data URI image
type AvatarRequest struct {
	Avatar string `json:"avatar"`
}

// IngredientAmountRequest references an existing ingredient by id
type IngredientAmountRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeRequest is the body for creating and updating recipes.
// Image is optional on update.
type RecipeRequest struct {
	Ingredients []IngredientAmountRequest `json:"ingredients"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
}

// RecipeFilter narrows the public recipe list
type RecipeFilter struct {
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
}

// AdminRecipeFilter narrows the staff recipe listing
type AdminRecipeFilter struct {
	CookingTimeRange string
	AuthorID         uint
	Search           string
}

// AdminIngredientFilter narrows the staff ingredient listing.
// HasRecipes is "yes", "no" or empty.
type AdminIngredientFilter struct {
	HasRecipes      string
	MeasurementUnit string
	Search          string
}

// AdminUserFilter narrows the staff user listing
type AdminUserFilter struct {
	HasRecipes       string
	HasSubscriptions string
	HasFollowers     string
	Search           string
}
