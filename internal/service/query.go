package service

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

type (
	RecipeQuery struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}

	// RecipeFilter combines its set filters with AND. Tags match when a recipe
	// carries at least one of the slugs.
	RecipeFilter struct {
		Author           *uint64
		Tags             []string
		IsFavorited      bool
		IsInShoppingCart bool
		Page             Page
	}
)

func NewRecipeQuery(db *gorm.DB, l *zap.SugaredLogger) *RecipeQuery {
	return &RecipeQuery{
		db:     db,
		logger: l,
	}
}

// Query returns the matching recipes newest first, and the total number of matches.
func (s *RecipeQuery) Query(ctx context.Context, viewer Identity, f RecipeFilter) ([]db.Recipe, int64, error) {
	preds, err := f.predicates(viewer)
	if err != nil {
		return nil, 0, err
	}

	countQ := squirrel.Select("COUNT(*)").From("recipes r")
	idsQ := squirrel.Select("r.id").From("recipes r").OrderBy("r.id DESC")
	for _, p := range preds {
		countQ = countQ.Where(p)
		idsQ = idsQ.Where(p)
	}
	if f.Page.Limit > 0 {
		idsQ = idsQ.Limit(uint64(f.Page.Limit))
	}
	if f.Page.Offset > 0 {
		idsQ = idsQ.Offset(uint64(f.Page.Offset))
	}

	sql, args, err := countQ.ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "build count sql")
	}
	var total int64
	if err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count recipes")
	}

	sql, args, err = idsQ.ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "build sql")
	}
	ids := make([]uint64, 0)
	if err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&ids).Error; err != nil {
		return nil, 0, errors.Wrap(err, "scan")
	}

	recipes := make([]db.Recipe, 0, len(ids))
	if len(ids) == 0 {
		return recipes, total, nil
	}
	res := withRecipeAssociations(s.db.WithContext(ctx)).Where("id IN ?", ids).Order("id DESC").Find(&recipes)
	if res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "load recipes")
	}
	return recipes, total, nil
}

func (f RecipeFilter) predicates(viewer Identity) ([]squirrel.Sqlizer, error) {
	preds := make([]squirrel.Sqlizer, 0, 4)

	if f.Author != nil {
		preds = append(preds, squirrel.Eq{"r.author_id": *f.Author})
	}

	slugs := make([]string, 0, len(f.Tags))
	for _, slug := range f.Tags {
		if slug != "" {
			slugs = append(slugs, slug)
		}
	}
	if len(slugs) != 0 {
		sub := squirrel.Select("rt.recipe_id").
			From("recipe_tags rt").
			Join("tags t ON t.id = rt.tag_id").
			Where(squirrel.Eq{"t.slug": slugs})
		p, err := inSubquery("r.id", sub)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	relations := []struct {
		enabled bool
		table   string
	}{
		{f.IsFavorited, "favorites"},
		{f.IsInShoppingCart, "shopping_carts"},
	}
	for _, rel := range relations {
		if !rel.enabled {
			continue
		}
		// Anonymous callers own no relation rows, so the filter can never match.
		if !viewer.Authenticated() {
			preds = append(preds, squirrel.Expr("1 = 0"))
			continue
		}
		sub := squirrel.Select("recipe_id").From(rel.table).Where(squirrel.Eq{"user_id": viewer.UserID})
		p, err := inSubquery("r.id", sub)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	return preds, nil
}

func inSubquery(column string, sub squirrel.SelectBuilder) (squirrel.Sqlizer, error) {
	sql, args, err := sub.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build subquery")
	}
	return squirrel.Expr(column+" IN ("+sql+")", args...), nil
}
