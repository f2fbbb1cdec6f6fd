package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db/dbtest"
)

type testEnv struct {
	db        *gorm.DB
	general   *General
	catalog   *Catalog
	recipes   *Recipes
	query     *RecipeQuery
	relations *Relations
	shopping  *ShoppingList
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := dbtest.New(t)
	cfg := &config.Config{
		BaseURL:       "http://localhost:1323",
		ShortLinkSalt: "test-salt",
		PageSize:      6,
		BcryptCost:    bcrypt.MinCost,
	}
	l := zap.NewNop().Sugar()

	recipes, err := NewRecipes(conn, cfg, l)
	require.NoError(t, err)

	return &testEnv{
		db:        conn,
		general:   NewGeneral(conn, cfg, l),
		catalog:   NewCatalog(conn, l),
		recipes:   recipes,
		query:     NewRecipeQuery(conn, l),
		relations: NewRelations(conn, l),
		shopping:  NewShoppingList(conn, l),
	}
}

func (e *testEnv) user(t *testing.T, username string) Identity {
	t.Helper()
	u, err := e.general.Register(context.Background(), RegisterParams{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First",
		LastName:  "Last",
		Password:  "password123",
	})
	require.NoError(t, err)
	return Identity{UserID: u.ID}
}

func (e *testEnv) admin(t *testing.T, username string) Identity {
	t.Helper()
	identity := e.user(t, username)
	_, err := e.general.SetAdmin(context.Background(), username+"@example.com", true)
	require.NoError(t, err)
	identity.Admin = true
	return identity
}

func (e *testEnv) ingredient(t *testing.T, name, unit string) uint64 {
	t.Helper()
	model := db.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, e.db.Create(&model).Error)
	return model.ID
}

func (e *testEnv) tag(t *testing.T, name, slug string) uint64 {
	t.Helper()
	model := db.Tag{Name: name, Slug: slug}
	require.NoError(t, e.db.Create(&model).Error)
	return model.ID
}

func (e *testEnv) recipe(t *testing.T, author Identity, name string, tags []uint64, lines ...IngredientAmount) *db.Recipe {
	t.Helper()
	recipe, err := e.recipes.Create(context.Background(), author, recipeInput(name, tags, lines...))
	require.NoError(t, err)
	return recipe
}

func recipeInput(name string, tags []uint64, lines ...IngredientAmount) RecipeInput {
	text := "step by step"
	cookingTime := 15
	return RecipeInput{
		Name:        &name,
		Text:        &text,
		CookingTime: &cookingTime,
		Ingredients: lines,
		Tags:        tags,
	}
}

func strPtr(s string) *string {
	return &s
}
