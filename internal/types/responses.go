package types

// User is the public representation of an account
type User struct {
	Email        string  `json:"email"`
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

// CreatedUser is returned after sign-up
type CreatedUser struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserWithRecipes is a followed author with a preview of their recipes
type UserWithRecipes struct {
	User
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

// IngredientAmount is an ingredient as it appears inside a recipe
type IngredientAmount struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// Recipe is the full recipe representation
type Recipe struct {
	ID               uint               `json:"id"`
	Author           User               `json:"author"`
	Ingredients      []IngredientAmount `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
}

// RecipeShort is the minified recipe used in favorites, carts and subscriptions
type RecipeShort struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Page is a paginated list response
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// AdminRecipe is a row of the staff recipe listing
type AdminRecipe struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Author         string `json:"author"`
	CookingTime    int    `json:"cooking_time"`
	FavoritesCount int64  `json:"favorites_count"`
}

// AdminIngredient is a row of the staff ingredient listing
type AdminIngredient struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	RecipeCount     int64  `json:"recipe_count"`
}

// AdminUser is a row of the staff user listing
type AdminUser struct {
	ID                uint   `json:"id"`
	Email             string `json:"email"`
	Username          string `json:"username"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	IsStaff           bool   `json:"is_staff"`
	RecipeCount       int64  `json:"recipe_count"`
	SubscriptionCount int64  `json:"subscription_count"`
	FollowerCount     int64  `json:"follower_count"`
}

// Bucket is one option of a derived admin filter
type Bucket struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}
