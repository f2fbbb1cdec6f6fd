package service

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

func TestRecipeRelations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	fan := env.user(t, "fan")
	flour := env.ingredient(t, "flour", "g")
	breakfast := env.tag(t, "Breakfast", "breakfast")
	recipe := env.recipe(t, cook, "pancakes", []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 200})

	for _, kind := range []RelationKind{RelationFavorite, RelationCart} {
		t.Run(kind.String(), func(t *testing.T) {
			id, err := env.relations.Add(ctx, kind, fan.UserID, recipe.ID)
			require.NoError(t, err)
			assert.NotZero(t, id)

			_, err = env.relations.Add(ctx, kind, fan.UserID, recipe.ID)
			assert.ErrorIs(t, err, ErrDuplicate)

			_, err = env.relations.Add(ctx, kind, fan.UserID, 999)
			assert.ErrorIs(t, err, ErrNotFound)

			linked, err := env.relations.Among(ctx, kind, fan.UserID, []uint64{recipe.ID, 999})
			require.NoError(t, err)
			assert.Equal(t, map[uint64]bool{recipe.ID: true}, linked)

			require.NoError(t, env.relations.Remove(ctx, kind, fan.UserID, recipe.ID))
			assert.ErrorIs(t, env.relations.Remove(ctx, kind, fan.UserID, recipe.ID), ErrNotFound)
		})
	}
}

func TestAddUnderContentionCreatesOneRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cook := env.user(t, "cook")
	fan := env.user(t, "fan")
	flour := env.ingredient(t, "flour", "g")
	breakfast := env.tag(t, "Breakfast", "breakfast")
	recipe := env.recipe(t, cook, "pancakes", []uint64{breakfast}, IngredientAmount{ID: flour, Amount: 200})

	const workers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, dupe   int
		unexpected []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.relations.Add(ctx, RelationCart, fan.UserID, recipe.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrDuplicate):
				dupe++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unexpected)
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dupe)

	var rows int64
	require.NoError(t, env.db.Model(&db.ShoppingCart{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fan := env.user(t, "fan")
	first := env.user(t, "first")
	second := env.user(t, "second")

	_, err := env.relations.Add(ctx, RelationSubscription, fan.UserID, fan.UserID)
	assert.ErrorIs(t, err, ErrSelfReference)

	_, err = env.relations.Add(ctx, RelationSubscription, fan.UserID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.relations.Add(ctx, RelationSubscription, fan.UserID, first.UserID)
	require.NoError(t, err)
	_, err = env.relations.Add(ctx, RelationSubscription, fan.UserID, second.UserID)
	require.NoError(t, err)
	_, err = env.relations.Add(ctx, RelationSubscription, fan.UserID, first.UserID)
	assert.ErrorIs(t, err, ErrDuplicate)

	authors, total, err := env.relations.Subscriptions(ctx, fan.UserID, NewPage(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, authors, 2)
	assert.Equal(t, "second", authors[0].Username)
	assert.Equal(t, "first", authors[1].Username)

	require.NoError(t, env.relations.Remove(ctx, RelationSubscription, fan.UserID, second.UserID))
	authors, total, err = env.relations.Subscriptions(ctx, fan.UserID, NewPage(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, authors, 1)
	assert.Equal(t, first.UserID, authors[0].ID)
}

func TestAmongAnonymous(t *testing.T) {
	env := newTestEnv(t)

	linked, err := env.relations.Among(context.Background(), RelationFavorite, 0, []uint64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, linked)
}
