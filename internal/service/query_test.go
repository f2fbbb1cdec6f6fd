package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

func recipeNames(recipes []db.Recipe) []string {
	names := make([]string, 0, len(recipes))
	for _, r := range recipes {
		names = append(names, r.Name)
	}
	return names
}

func TestRecipeQuery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	baker := env.user(t, "baker")
	flour := env.ingredient(t, "flour", "g")
	breakfast := env.tag(t, "Breakfast", "breakfast")
	lunch := env.tag(t, "Lunch", "lunch")
	dinner := env.tag(t, "Dinner", "dinner")

	line := IngredientAmount{ID: flour, Amount: 100}
	pancakes := env.recipe(t, cook, "pancakes", []uint64{breakfast, lunch}, line)
	soup := env.recipe(t, cook, "soup", []uint64{lunch}, line)
	env.recipe(t, baker, "bread", []uint64{dinner}, line)

	_, err := env.relations.Add(ctx, RelationFavorite, baker.UserID, pancakes.ID)
	require.NoError(t, err)
	_, err = env.relations.Add(ctx, RelationCart, baker.UserID, soup.ID)
	require.NoError(t, err)

	author := cook.UserID
	tests := []struct {
		name   string
		viewer Identity
		filter RecipeFilter
		want   []string
		total  int64
	}{
		{"no filter newest first", Anonymous, RecipeFilter{}, []string{"bread", "soup", "pancakes"}, 3},
		{"author", Anonymous, RecipeFilter{Author: &author}, []string{"soup", "pancakes"}, 2},
		{"tags match any slug once", Anonymous, RecipeFilter{Tags: []string{"breakfast", "lunch"}}, []string{"soup", "pancakes"}, 2},
		{"tags and author", Anonymous, RecipeFilter{Tags: []string{"dinner", "breakfast"}, Author: &author}, []string{"pancakes"}, 1},
		{"unknown tag", Anonymous, RecipeFilter{Tags: []string{"brunch"}}, []string{}, 0},
		{"favorited", baker, RecipeFilter{IsFavorited: true}, []string{"pancakes"}, 1},
		{"in cart", baker, RecipeFilter{IsInShoppingCart: true}, []string{"soup"}, 1},
		{"favorited and in cart", baker, RecipeFilter{IsFavorited: true, IsInShoppingCart: true}, []string{}, 0},
		{"anonymous favorited", Anonymous, RecipeFilter{IsFavorited: true}, []string{}, 0},
		{"viewer without favorites", cook, RecipeFilter{IsFavorited: true}, []string{}, 0},
		{"page", Anonymous, RecipeFilter{Page: NewPage(2, 2)}, []string{"pancakes"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := env.query.Query(ctx, tt.viewer, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			assert.Equal(t, tt.want, recipeNames(got))
		})
	}

	t.Run("associations are loaded", func(t *testing.T) {
		got, _, err := env.query.Query(ctx, Anonymous, RecipeFilter{Author: &author, Tags: []string{"breakfast"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "cook", got[0].Author.Username)
		assert.Len(t, got[0].Tags, 2)
		require.Len(t, got[0].Ingredients, 1)
		assert.Equal(t, "flour", got[0].Ingredients[0].Ingredient.Name)
	})
}
