package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/speps/go-hashids/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

const (
	shortLinkMinLength  = 6
	recipeNameMaxLength = 256
)

type (
	Recipes struct {
		db      *gorm.DB
		logger  *zap.SugaredLogger
		hashID  *hashids.HashID
		baseURL string
	}

	IngredientAmount struct {
		ID     uint64
		Amount int
	}

	// RecipeInput carries the writable recipe fields. On update a nil field is left
	// untouched; a non-nil Ingredients or Tags slice replaces the whole set.
	RecipeInput struct {
		Name        *string
		Text        *string
		Image       *string
		CookingTime *int
		Ingredients []IngredientAmount
		Tags        []uint64
	}
)

func NewRecipes(db *gorm.DB, cfg *config.Config, l *zap.SugaredLogger) (*Recipes, error) {
	hd := hashids.NewData()
	hd.Salt = cfg.ShortLinkSalt
	hd.MinLength = shortLinkMinLength
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, errors.Wrap(err, "init hashids")
	}
	return &Recipes{
		db:      db,
		logger:  l,
		hashID:  h,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

func (s *Recipes) Get(ctx context.Context, id uint64) (*db.Recipe, error) {
	recipe := db.Recipe{}
	if err := withRecipeAssociations(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, notFound(err, "recipe %d", id)
	}
	return &recipe, nil
}

func (s *Recipes) Create(ctx context.Context, caller Identity, in RecipeInput) (*db.Recipe, error) {
	userID, err := caller.RequireAuthenticated()
	if err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	recipe := db.Recipe{
		AuthorID:    userID,
		Name:        *in.Name,
		Text:        *in.Text,
		Image:       in.Image,
		CookingTime: uint(*in.CookingTime),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureIngredientsExist(tx, in.Ingredients); err != nil {
			return err
		}
		if err := ensureExist(tx, &db.Tag{}, "tag", in.Tags); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return errors.Wrap(err, "create recipe")
		}
		if err := replaceIngredients(tx, recipe.ID, in.Ingredients); err != nil {
			return err
		}
		return replaceTags(tx, recipe.ID, in.Tags)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("recipe created", "recipe_id", recipe.ID, "author_id", userID)
	return s.Get(ctx, recipe.ID)
}

func (s *Recipes) Update(ctx context.Context, caller Identity, id uint64, in RecipeInput) (*db.Recipe, error) {
	if !caller.Authenticated() {
		return nil, ErrAuthRequired
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe := db.Recipe{}
		if err := tx.First(&recipe, id).Error; err != nil {
			return notFound(err, "recipe %d", id)
		}
		if err := caller.CanModify(recipe.AuthorID); err != nil {
			return err
		}
		if err := validateUpdate(in); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Text != nil {
			updates["text"] = *in.Text
		}
		if in.Image != nil {
			updates["image"] = *in.Image
		}
		if in.CookingTime != nil {
			updates["cooking_time"] = uint(*in.CookingTime)
		}
		if len(updates) != 0 {
			if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
				return errors.Wrap(err, "update recipe")
			}
		}

		if in.Ingredients != nil {
			if err := ensureIngredientsExist(tx, in.Ingredients); err != nil {
				return err
			}
			if err := replaceIngredients(tx, id, in.Ingredients); err != nil {
				return err
			}
		}
		if in.Tags != nil {
			if err := ensureExist(tx, &db.Tag{}, "tag", in.Tags); err != nil {
				return err
			}
			if err := replaceTags(tx, id, in.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("recipe updated", "recipe_id", id, "by", caller.UserID)
	return s.Get(ctx, id)
}

// Delete removes the recipe with its ingredient lines, tag links, favorites and cart rows.
func (s *Recipes) Delete(ctx context.Context, caller Identity, id uint64) error {
	if !caller.Authenticated() {
		return ErrAuthRequired
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe := db.Recipe{}
		if err := tx.First(&recipe, id).Error; err != nil {
			return notFound(err, "recipe %d", id)
		}
		if err := caller.CanModify(recipe.AuthorID); err != nil {
			return err
		}
		return deleteRecipes(tx, []uint64{id})
	})
	if err != nil {
		return err
	}
	s.logger.Infow("recipe deleted", "recipe_id", id, "by", caller.UserID)
	return nil
}

// DeleteImage clears the image reference. Clearing an absent image succeeds.
func (s *Recipes) DeleteImage(ctx context.Context, caller Identity, id uint64) error {
	if !caller.Authenticated() {
		return ErrAuthRequired
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe := db.Recipe{}
		if err := tx.First(&recipe, id).Error; err != nil {
			return notFound(err, "recipe %d", id)
		}
		if err := caller.CanModify(recipe.AuthorID); err != nil {
			return err
		}
		if recipe.Image == nil {
			return nil
		}
		return errors.Wrap(tx.Model(&recipe).Update("image", nil).Error, "clear image")
	})
}

// AuthorRecipes returns the author's newest recipes; limit <= 0 returns all of them.
func (s *Recipes) AuthorRecipes(ctx context.Context, authorID uint64, limit int) ([]db.Recipe, error) {
	recipes := make([]db.Recipe, 0)
	q := s.db.WithContext(ctx).Where("author_id = ?", authorID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recipes).Error; err != nil {
		return nil, errors.Wrap(err, "author recipes")
	}
	return recipes, nil
}

func (s *Recipes) CountByAuthor(ctx context.Context, authorIDs []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		AuthorID uint64
		Total    int64
	}
	res := s.db.WithContext(ctx).Model(&db.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "count recipes")
	}
	for _, r := range rows {
		counts[r.AuthorID] = r.Total
	}
	return counts, nil
}

func (s *Recipes) ShortLink(ctx context.Context, id uint64) (string, error) {
	if err := ensureExist(s.db.WithContext(ctx), &db.Recipe{}, "recipe", []uint64{id}); err != nil {
		return "", err
	}
	code, err := s.hashID.EncodeInt64([]int64{int64(id)})
	if err != nil {
		return "", errors.Wrap(err, "encode short link")
	}
	return s.baseURL + "/s/" + code, nil
}

func (s *Recipes) ResolveShortLink(ctx context.Context, code string) (uint64, error) {
	ids, err := s.hashID.DecodeInt64WithError(code)
	if err != nil || len(ids) != 1 || ids[0] < 1 {
		return 0, errors.Wrapf(ErrNotFound, "short link %q", code)
	}
	id := uint64(ids[0])
	if err := ensureExist(s.db.WithContext(ctx), &db.Recipe{}, "recipe", []uint64{id}); err != nil {
		return 0, err
	}
	return id, nil
}

func withRecipeAssociations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("tags.id") }).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

func validateCreate(in RecipeInput) error {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return invalid("name must not be empty")
	}
	if in.Text == nil || strings.TrimSpace(*in.Text) == "" {
		return invalid("text must not be empty")
	}
	if in.CookingTime == nil {
		return invalid("cooking_time is required")
	}
	return validateUpdate(RecipeInput{
		Name:        in.Name,
		CookingTime: in.CookingTime,
		Ingredients: nonNil(in.Ingredients),
		Tags:        nonNilIDs(in.Tags),
	})
}

func validateUpdate(in RecipeInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return invalid("name must not be empty")
	}
	if in.Name != nil && utf8.RuneCountInString(*in.Name) > recipeNameMaxLength {
		return invalid("name must be at most %d characters", recipeNameMaxLength)
	}
	if in.Text != nil && strings.TrimSpace(*in.Text) == "" {
		return invalid("text must not be empty")
	}
	if in.CookingTime != nil && *in.CookingTime < 1 {
		return invalid("cooking_time must be at least 1")
	}
	if in.Ingredients != nil {
		if err := validateIngredients(in.Ingredients); err != nil {
			return err
		}
	}
	if in.Tags != nil {
		if err := validateTags(in.Tags); err != nil {
			return err
		}
	}
	return nil
}

func validateIngredients(lines []IngredientAmount) error {
	if len(lines) == 0 {
		return invalid("ingredients must not be empty")
	}
	seen := make(map[uint64]struct{}, len(lines))
	for _, line := range lines {
		if line.ID == 0 {
			return invalid("ingredient id is required")
		}
		if line.Amount < 1 {
			return invalid("ingredient %d: amount must be at least 1", line.ID)
		}
		if _, ok := seen[line.ID]; ok {
			return invalid("ingredient %d is repeated", line.ID)
		}
		seen[line.ID] = struct{}{}
	}
	return nil
}

func validateTags(ids []uint64) error {
	if len(ids) == 0 {
		return invalid("tags must not be empty")
	}
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return invalid("tag %d is repeated", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func nonNil(lines []IngredientAmount) []IngredientAmount {
	if lines == nil {
		return []IngredientAmount{}
	}
	return lines
}

func nonNilIDs(ids []uint64) []uint64 {
	if ids == nil {
		return []uint64{}
	}
	return ids
}

func ensureIngredientsExist(tx *gorm.DB, lines []IngredientAmount) error {
	ids := make([]uint64, len(lines))
	for i := range lines {
		ids[i] = lines[i].ID
	}
	return ensureExist(tx, &db.Ingredient{}, "ingredient", ids)
}

// ensureExist fails with ErrNotFound naming the first id that has no row.
func ensureExist(tx *gorm.DB, model interface{}, kind string, ids []uint64) error {
	found := make([]uint64, 0, len(ids))
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return errors.Wrapf(err, "look up %s", kind)
	}
	if len(found) == len(ids) {
		return nil
	}
	have := make(map[uint64]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			return errors.Wrapf(ErrNotFound, "%s %d", kind, id)
		}
	}
	return nil
}

func replaceIngredients(tx *gorm.DB, recipeID uint64, lines []IngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&db.RecipeIngredient{}).Error; err != nil {
		return errors.Wrap(err, "delete recipe ingredients")
	}
	rows := make([]db.RecipeIngredient, len(lines))
	for i, line := range lines {
		rows[i] = db.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: line.ID,
			Amount:       uint(line.Amount),
		}
	}
	return errors.Wrap(tx.Omit(clause.Associations).Create(&rows).Error, "create recipe ingredients")
}

func replaceTags(tx *gorm.DB, recipeID uint64, tagIDs []uint64) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&db.RecipeTag{}).Error; err != nil {
		return errors.Wrap(err, "delete recipe tags")
	}
	rows := make([]db.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		rows[i] = db.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	return errors.Wrap(tx.Create(&rows).Error, "create recipe tags")
}

func deleteRecipes(tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	dependents := []struct {
		name  string
		model interface{}
	}{
		{"favorites", &db.Favorite{}},
		{"shopping cart", &db.ShoppingCart{}},
		{"recipe ingredients", &db.RecipeIngredient{}},
		{"recipe tags", &db.RecipeTag{}},
	}
	for _, d := range dependents {
		if err := tx.Where("recipe_id IN ?", ids).Delete(d.model).Error; err != nil {
			return errors.Wrapf(err, "delete %s", d.name)
		}
	}
	return errors.Wrap(tx.Where("id IN ?", ids).Delete(&db.Recipe{}).Error, "delete recipes")
}
