package models

type UserReq struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SetPasswordReq struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

type TokenResp struct {
	Token string `json:"token"`
}

type AvatarReq struct {
	Avatar string `json:"avatar" validate:"required"`
}

type UserResp struct {
	ID           uint64  `json:"id"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

type SubscriptionResp struct {
	UserResp
	Recipes      []RecipeShortResp `json:"recipes"`
	RecipesCount int64             `json:"recipes_count"`
}

type TagReq struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required,max=200,slug"`
}

type TagResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type IngredientReq struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=64"`
}

type IngredientResp struct {
	ID              uint64 `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type RecipeIngredientReq struct {
	ID     uint64 `json:"id"`
	Amount int    `json:"amount"`
}

// RecipeReq serves both create and partial update; absent fields stay nil.
type RecipeReq struct {
	Ingredients []RecipeIngredientReq `json:"ingredients"`
	Tags        []uint64              `json:"tags"`
	Image       *string               `json:"image"`
	Name        *string               `json:"name"`
	Text        *string               `json:"text"`
	CookingTime *int                  `json:"cooking_time"`
}

type RecipeIngredientResp struct {
	ID              uint64 `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          uint   `json:"amount"`
}

type RecipeResp struct {
	ID               uint64                 `json:"id"`
	Tags             []TagResp              `json:"tags"`
	Author           UserResp               `json:"author"`
	Ingredients      []RecipeIngredientResp `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            *string                `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      uint                   `json:"cooking_time"`
}

type RecipeShortResp struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	CookingTime uint    `json:"cooking_time"`
}

type ShortLinkResp struct {
	ShortLink string `json:"short-link"`
}

type PageResp struct {
	Count   int64       `json:"count"`
	Results interface{} `json:"results"`
}

type DetailResp struct {
	Detail string `json:"detail"`
}
