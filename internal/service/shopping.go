package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

type (
	ShoppingList struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}

	// CartLine is one ingredient line of one recipe in a user's cart.
	CartLine struct {
		RecipeID     uint64
		IngredientID uint64
		Name         string
		Unit         string
		Amount       uint64
	}

	ShoppingItem struct {
		IngredientID uint64
		Name         string
		Unit         string
		Amount       uint64
	}
)

func NewShoppingList(db *gorm.DB, l *zap.SugaredLogger) *ShoppingList {
	return &ShoppingList{
		db:     db,
		logger: l,
	}
}

// Compute merges the ingredients of every recipe in the user's cart.
// It fails with ErrEmptyCart when the cart has no recipes.
func (s *ShoppingList) Compute(ctx context.Context, userID uint64) ([]ShoppingItem, error) {
	sql, args, err := squirrel.
		Select("sc.recipe_id", "i.id AS ingredient_id", "i.name", "i.measurement_unit AS unit", "ri.amount").
		From("shopping_carts sc").
		Join("recipe_ingredients ri ON ri.recipe_id = sc.recipe_id").
		Join("ingredients i ON i.id = ri.ingredient_id").
		Where(squirrel.Eq{"sc.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	lines := make([]CartLine, 0)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entries int64
		if err := tx.Model(&db.ShoppingCart{}).Where("user_id = ?", userID).Count(&entries).Error; err != nil {
			return errors.Wrap(err, "count cart")
		}
		if entries == 0 {
			return ErrEmptyCart
		}
		return errors.Wrap(tx.Raw(sql, args...).Scan(&lines).Error, "scan cart lines")
	})
	if err != nil {
		return nil, err
	}

	return Aggregate(lines), nil
}

// Aggregate sums amounts per (ingredient, unit) and orders the result by name, then unit.
func Aggregate(lines []CartLine) []ShoppingItem {
	type key struct {
		ingredientID uint64
		unit         string
	}
	index := make(map[key]int)
	items := make([]ShoppingItem, 0)
	for _, line := range lines {
		k := key{ingredientID: line.IngredientID, unit: line.Unit}
		if i, ok := index[k]; ok {
			items[i].Amount += line.Amount
			continue
		}
		index[k] = len(items)
		items = append(items, ShoppingItem{
			IngredientID: line.IngredientID,
			Name:         line.Name,
			Unit:         line.Unit,
			Amount:       line.Amount,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		if items[i].Unit != items[j].Unit {
			return items[i].Unit < items[j].Unit
		}
		return items[i].IngredientID < items[j].IngredientID
	})
	return items
}

// RenderShoppingList writes one "{name} ({amount} {unit})" line per item.
func RenderShoppingList(items []ShoppingItem) []byte {
	var buf bytes.Buffer
	for _, item := range items {
		fmt.Fprintf(&buf, "%s (%d %s)\n", item.Name, item.Amount, item.Unit)
	}
	return buf.Bytes()
}
