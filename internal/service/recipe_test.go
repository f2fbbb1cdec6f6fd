package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	flour := env.ingredient(t, "flour", "g")
	egg := env.ingredient(t, "egg", "pcs")
	breakfast := env.tag(t, "Breakfast", "breakfast")

	recipe := env.recipe(t, cook, "pancakes", []uint64{breakfast},
		IngredientAmount{ID: egg, Amount: 2},
		IngredientAmount{ID: flour, Amount: 200},
	)

	assert.Equal(t, cook.UserID, recipe.AuthorID)
	assert.Equal(t, "cook", recipe.Author.Username)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "egg", recipe.Ingredients[0].Ingredient.Name)
	assert.EqualValues(t, 2, recipe.Ingredients[0].Amount)
	assert.Equal(t, "flour", recipe.Ingredients[1].Ingredient.Name)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "breakfast", recipe.Tags[0].Slug)

	_, err := env.recipes.Create(ctx, Anonymous, recipeInput("x", []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 1}))
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestCreateRecipeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	flour := env.ingredient(t, "flour", "g")
	breakfast := env.tag(t, "Breakfast", "breakfast")

	zero := 0
	tests := []struct {
		name   string
		mutate func(in *RecipeInput)
		want   error
	}{
		{"no ingredients", func(in *RecipeInput) { in.Ingredients = nil }, ErrValidation},
		{"no tags", func(in *RecipeInput) { in.Tags = []uint64{} }, ErrValidation},
		{"zero amount", func(in *RecipeInput) { in.Ingredients[0].Amount = 0 }, ErrValidation},
		{"repeated ingredient", func(in *RecipeInput) {
			in.Ingredients = append(in.Ingredients, IngredientAmount{ID: flour, Amount: 5})
		}, ErrValidation},
		{"repeated tag", func(in *RecipeInput) { in.Tags = []uint64{breakfast, breakfast} }, ErrValidation},
		{"zero cooking time", func(in *RecipeInput) { in.CookingTime = &zero }, ErrValidation},
		{"blank name", func(in *RecipeInput) { in.Name = strPtr("  ") }, ErrValidation},
		{"missing text", func(in *RecipeInput) { in.Text = nil }, ErrValidation},
		{"unknown ingredient", func(in *RecipeInput) { in.Ingredients[0].ID = 999 }, ErrNotFound},
		{"unknown tag", func(in *RecipeInput) { in.Tags = []uint64{999} }, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := recipeInput("pancakes", []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 100})
			tt.mutate(&in)
			_, err := env.recipes.Create(ctx, cook, in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	recipes, total, err := env.query.Query(ctx, cook, RecipeFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, recipes)
}

func TestUpdateRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	stranger := env.user(t, "stranger")
	flour := env.ingredient(t, "flour", "g")
	sugar := env.ingredient(t, "sugar", "g")
	breakfast := env.tag(t, "Breakfast", "breakfast")
	dessert := env.tag(t, "Dessert", "dessert")

	recipe := env.recipe(t, cook, "pancakes", []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 200})

	t.Run("stranger is rejected", func(t *testing.T) {
		_, err := env.recipes.Update(ctx, stranger, recipe.ID, RecipeInput{Name: strPtr("stolen")})
		assert.ErrorIs(t, err, ErrPermission)
	})

	t.Run("permission is checked before the payload", func(t *testing.T) {
		_, err := env.recipes.Update(ctx, stranger, recipe.ID, RecipeInput{Ingredients: []IngredientAmount{}})
		assert.ErrorIs(t, err, ErrPermission)
	})

	t.Run("missing recipe", func(t *testing.T) {
		_, err := env.recipes.Update(ctx, cook, 999, RecipeInput{Name: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("scalar fields only keep the lists", func(t *testing.T) {
		got, err := env.recipes.Update(ctx, cook, recipe.ID, RecipeInput{Name: strPtr("crepes")})
		require.NoError(t, err)
		assert.Equal(t, "crepes", got.Name)
		require.Len(t, got.Ingredients, 1)
		assert.Equal(t, flour, got.Ingredients[0].IngredientID)
		require.Len(t, got.Tags, 1)
	})

	t.Run("lists are replaced", func(t *testing.T) {
		got, err := env.recipes.Update(ctx, cook, recipe.ID, RecipeInput{
			Ingredients: []IngredientAmount{{ID: sugar, Amount: 50}, {ID: flour, Amount: 100}},
			Tags:        []uint64{dessert},
		})
		require.NoError(t, err)
		require.Len(t, got.Ingredients, 2)
		assert.Equal(t, sugar, got.Ingredients[0].IngredientID)
		assert.EqualValues(t, 100, got.Ingredients[1].Amount)
		require.Len(t, got.Tags, 1)
		assert.Equal(t, "dessert", got.Tags[0].Slug)
	})

	t.Run("empty list is invalid and changes nothing", func(t *testing.T) {
		_, err := env.recipes.Update(ctx, cook, recipe.ID, RecipeInput{
			Name:        strPtr("ruined"),
			Ingredients: []IngredientAmount{},
		})
		assert.ErrorIs(t, err, ErrValidation)

		got, err := env.recipes.Get(ctx, recipe.ID)
		require.NoError(t, err)
		assert.Equal(t, "crepes", got.Name)
		assert.Len(t, got.Ingredients, 2)
	})

	t.Run("unknown ingredient rolls back", func(t *testing.T) {
		_, err := env.recipes.Update(ctx, cook, recipe.ID, RecipeInput{
			Name:        strPtr("ruined"),
			Ingredients: []IngredientAmount{{ID: 999, Amount: 1}},
		})
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := env.recipes.Get(ctx, recipe.ID)
		require.NoError(t, err)
		assert.Equal(t, "crepes", got.Name)
	})
}

func TestDeleteRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	fan := env.user(t, "fan")
	admin := env.admin(t, "admin")
	flour := env.ingredient(t, "flour", "g")
	breakfast := env.tag(t, "Breakfast", "breakfast")

	first := env.recipe(t, cook, "pancakes", []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 200})
	second := env.recipe(t, cook, "bread", []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 500})

	_, err := env.relations.Add(ctx, RelationFavorite, fan.UserID, first.ID)
	require.NoError(t, err)
	_, err = env.relations.Add(ctx, RelationCart, fan.UserID, first.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.recipes.Delete(ctx, fan, first.ID), ErrPermission)
	require.NoError(t, env.recipes.Delete(ctx, cook, first.ID))
	require.NoError(t, env.recipes.Delete(ctx, admin, second.ID))

	_, err = env.recipes.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	favorited, err := env.relations.Among(ctx, RelationFavorite, fan.UserID, []uint64{first.ID})
	require.NoError(t, err)
	assert.Empty(t, favorited)

	_, err = env.shopping.Compute(ctx, fan.UserID)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestDeleteImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	flour := env.ingredient(t, "flour", "g")
	breakfast := env.tag(t, "Breakfast", "breakfast")

	in := recipeInput("pancakes", []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 200})
	in.Image = strPtr("pancakes.png")
	recipe, err := env.recipes.Create(ctx, cook, in)
	require.NoError(t, err)
	require.NotNil(t, recipe.Image)

	require.NoError(t, env.recipes.DeleteImage(ctx, cook, recipe.ID))
	got, err := env.recipes.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Image)

	assert.NoError(t, env.recipes.DeleteImage(ctx, cook, recipe.ID))
}

func TestShortLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	flour := env.ingredient(t, "flour", "g")
	breakfast := env.tag(t, "Breakfast", "breakfast")
	recipe := env.recipe(t, cook, "pancakes", []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 200})

	link, err := env.recipes.ShortLink(ctx, recipe.ID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "http://localhost:1323/s/"))

	code := strings.TrimPrefix(link, "http://localhost:1323/s/")
	assert.GreaterOrEqual(t, len(code), shortLinkMinLength)

	id, err := env.recipes.ResolveShortLink(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, id)

	_, err = env.recipes.ShortLink(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.recipes.ResolveShortLink(ctx, "!!")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthorRecipesAndCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	other := env.user(t, "other")
	flour := env.ingredient(t, "flour", "g")
	breakfast := env.tag(t, "Breakfast", "breakfast")

	for _, name := range []string{"a", "b", "c"} {
		env.recipe(t, cook, name, []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 1})
	}

	recipes, err := env.recipes.AuthorRecipes(ctx, cook.UserID, 2)
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, "c", recipes[0].Name)

	counts, err := env.recipes.CountByAuthor(ctx, []uint64{cook.UserID, other.UserID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts[cook.UserID])
	assert.Zero(t, counts[other.UserID])
}
