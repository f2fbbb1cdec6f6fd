package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	lines := []CartLine{
		{RecipeID: 1, IngredientID: 1, Name: "flour", Unit: "g", Amount: 200},
		{RecipeID: 1, IngredientID: 2, Name: "egg", Unit: "pcs", Amount: 2},
		{RecipeID: 2, IngredientID: 1, Name: "flour", Unit: "g", Amount: 150},
		{RecipeID: 2, IngredientID: 3, Name: "butter", Unit: "g", Amount: 50},
	}
	want := []ShoppingItem{
		{IngredientID: 3, Name: "butter", Unit: "g", Amount: 50},
		{IngredientID: 2, Name: "egg", Unit: "pcs", Amount: 2},
		{IngredientID: 1, Name: "flour", Unit: "g", Amount: 350},
	}

	assert.Equal(t, want, Aggregate(lines))

	reversed := make([]CartLine, len(lines))
	for i := range lines {
		reversed[len(lines)-1-i] = lines[i]
	}
	assert.Equal(t, want, Aggregate(reversed))

	assert.Empty(t, Aggregate(nil))
}

func TestAggregateKeepsUnitsApart(t *testing.T) {
	got := Aggregate([]CartLine{
		{IngredientID: 1, Name: "milk", Unit: "ml", Amount: 200},
		{IngredientID: 2, Name: "milk", Unit: "cup", Amount: 1},
	})

	assert.Equal(t, []ShoppingItem{
		{IngredientID: 2, Name: "milk", Unit: "cup", Amount: 1},
		{IngredientID: 1, Name: "milk", Unit: "ml", Amount: 200},
	}, got)
}

func TestAggregateGroupsByIngredientID(t *testing.T) {
	got := Aggregate([]CartLine{
		{RecipeID: 1, IngredientID: 2, Name: "salt", Unit: "g", Amount: 5},
		{RecipeID: 1, IngredientID: 1, Name: "salt", Unit: "g", Amount: 10},
		{RecipeID: 2, IngredientID: 2, Name: "salt", Unit: "g", Amount: 3},
	})

	assert.Equal(t, []ShoppingItem{
		{IngredientID: 1, Name: "salt", Unit: "g", Amount: 10},
		{IngredientID: 2, Name: "salt", Unit: "g", Amount: 8},
	}, got)
}

func TestRenderShoppingList(t *testing.T) {
	got := RenderShoppingList([]ShoppingItem{
		{Name: "egg", Unit: "шт", Amount: 2},
		{Name: "flour", Unit: "g", Amount: 350},
	})
	assert.Equal(t, "egg (2 шт)\nflour (350 g)\n", string(got))

	assert.Empty(t, RenderShoppingList(nil))
}

func TestComputeShoppingList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	buyer := env.user(t, "buyer")
	flour := env.ingredient(t, "flour", "g")
	egg := env.ingredient(t, "egg", "шт")
	breakfast := env.tag(t, "Breakfast", "breakfast")

	pancakes := env.recipe(t, cook, "pancakes", []uint64{breakfast},
		IngredientAmount{ID: flour, Amount: 200},
		IngredientAmount{ID: egg, Amount: 2},
	)
	bread := env.recipe(t, cook, "bread", []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 150})

	_, err := env.shopping.Compute(ctx, buyer.UserID)
	assert.ErrorIs(t, err, ErrEmptyCart)

	for _, id := range []uint64{pancakes.ID, bread.ID} {
		_, err := env.relations.Add(ctx, RelationCart, buyer.UserID, id)
		require.NoError(t, err)
	}

	items, err := env.shopping.Compute(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Equal(t, []ShoppingItem{
		{IngredientID: egg, Name: "egg", Unit: "шт", Amount: 2},
		{IngredientID: flour, Name: "flour", Unit: "g", Amount: 350},
	}, items)

	_, err = env.shopping.Compute(ctx, cook.UserID)
	assert.ErrorIs(t, err, ErrEmptyCart)
}
