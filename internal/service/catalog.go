package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

// Catalog holds the admin-managed reference data: ingredients and tags.
type Catalog struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewCatalog(db *gorm.DB, l *zap.SugaredLogger) *Catalog {
	return &Catalog{
		db:     db,
		logger: l,
	}
}

func (s *Catalog) ListIngredients(ctx context.Context, namePrefix string) ([]db.Ingredient, error) {
	ingredients := make([]db.Ingredient, 0)
	res := byNamePrefix(s.db.WithContext(ctx), namePrefix).Order("name").Find(&ingredients)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "list ingredients")
	}
	return ingredients, nil
}

func (s *Catalog) GetIngredient(ctx context.Context, id uint64) (*db.Ingredient, error) {
	ingredient := db.Ingredient{}
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, notFound(err, "ingredient %d", id)
	}
	return &ingredient, nil
}

func (s *Catalog) CreateIngredient(ctx context.Context, caller Identity, name, unit string) (*db.Ingredient, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	model := db.Ingredient{Name: name, MeasurementUnit: unit}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Wrapf(ErrDuplicate, "ingredient %q", name)
		}
		return nil, errors.Wrap(err, "create ingredient")
	}
	return &model, nil
}

// DeleteIngredient removes the ingredient together with every recipe line using it.
func (s *Catalog) DeleteIngredient(ctx context.Context, caller Identity, id uint64) error {
	if err := caller.RequireAdmin(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_id = ?", id).Delete(&db.RecipeIngredient{}).Error; err != nil {
			return errors.Wrap(err, "delete recipe lines")
		}
		res := tx.Delete(&db.Ingredient{}, id)
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete ingredient")
		}
		if res.RowsAffected == 0 {
			return errors.Wrapf(ErrNotFound, "ingredient %d", id)
		}
		return nil
	})
}

// ImportIngredients loads a JSON array of {"name", "measurement_unit"} objects.
// Names already present are skipped. It returns the number of new rows.
func (s *Catalog) ImportIngredients(ctx context.Context, data []byte) (int, error) {
	if !gjson.ValidBytes(data) {
		return 0, invalid("ingredient fixture is not valid JSON")
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return 0, invalid("ingredient fixture must be a JSON array")
	}

	batch := make([]db.Ingredient, 0)
	seen := make(map[string]struct{})
	var (
		parseErr error
		idx      int
	)
	parsed.ForEach(func(_, value gjson.Result) bool {
		idx++
		name := strings.TrimSpace(value.Get("name").String())
		unit := strings.TrimSpace(value.Get("measurement_unit").String())
		if name == "" || unit == "" {
			parseErr = invalid("fixture item %d: name and measurement_unit are required", idx)
			return false
		}
		if _, ok := seen[name]; ok {
			return true
		}
		seen[name] = struct{}{}
		batch = append(batch, db.Ingredient{Name: name, MeasurementUnit: unit})
		return true
	})
	if parseErr != nil {
		return 0, parseErr
	}
	if len(batch) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		CreateInBatches(&batch, 500)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "insert ingredients")
	}
	s.logger.Infow("ingredients imported", "parsed", len(batch), "created", res.RowsAffected)
	return int(res.RowsAffected), nil
}

func (s *Catalog) ListTags(ctx context.Context, namePrefix string) ([]db.Tag, error) {
	tags := make([]db.Tag, 0)
	res := byNamePrefix(s.db.WithContext(ctx), namePrefix).Order("name").Find(&tags)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "list tags")
	}
	return tags, nil
}

func (s *Catalog) GetTag(ctx context.Context, id uint64) (*db.Tag, error) {
	tag := db.Tag{}
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, notFound(err, "tag %d", id)
	}
	return &tag, nil
}

func (s *Catalog) CreateTag(ctx context.Context, caller Identity, name, slug string) (*db.Tag, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	model := db.Tag{Name: name, Slug: slug}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Wrapf(ErrDuplicate, "tag %q", slug)
		}
		return nil, errors.Wrap(err, "create tag")
	}
	return &model, nil
}

func (s *Catalog) DeleteTag(ctx context.Context, caller Identity, id uint64) error {
	if err := caller.RequireAdmin(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&db.RecipeTag{}).Error; err != nil {
			return errors.Wrap(err, "delete recipe tags")
		}
		res := tx.Delete(&db.Tag{}, id)
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete tag")
		}
		if res.RowsAffected == 0 {
			return errors.Wrapf(ErrNotFound, "tag %d", id)
		}
		return nil
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func byNamePrefix(q *gorm.DB, prefix string) *gorm.DB {
	if prefix == "" {
		return q
	}
	return q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likeEscaper.Replace(strings.ToLower(prefix))+"%")
}
