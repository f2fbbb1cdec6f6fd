package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

type RelationKind int

const (
	RelationFavorite RelationKind = iota + 1
	RelationCart
	RelationSubscription
)

func (k RelationKind) String() string {
	switch k {
	case RelationFavorite:
		return "favorite"
	case RelationCart:
		return "shopping cart entry"
	case RelationSubscription:
		return "subscription"
	default:
		return fmt.Sprintf("relation(%d)", int(k))
	}
}

type (
	// Relations manages the per-user links: favorites, shopping cart entries and subscriptions.
	Relations struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}

	relationRow interface {
		RowID() uint64
	}

	relationTable struct {
		model        interface{}
		targetColumn string
		target       interface{}
		targetName   string
		newRow       func(userID, targetID uint64) relationRow
	}
)

var relationTables = map[RelationKind]relationTable{
	RelationFavorite: {
		model:        &db.Favorite{},
		targetColumn: "recipe_id",
		target:       &db.Recipe{},
		targetName:   "recipe",
		newRow: func(userID, targetID uint64) relationRow {
			return &db.Favorite{UserID: userID, RecipeID: targetID}
		},
	},
	RelationCart: {
		model:        &db.ShoppingCart{},
		targetColumn: "recipe_id",
		target:       &db.Recipe{},
		targetName:   "recipe",
		newRow: func(userID, targetID uint64) relationRow {
			return &db.ShoppingCart{UserID: userID, RecipeID: targetID}
		},
	},
	RelationSubscription: {
		model:        &db.Subscription{},
		targetColumn: "author_id",
		target:       &db.User{},
		targetName:   "user",
		newRow: func(userID, targetID uint64) relationRow {
			return &db.Subscription{UserID: userID, AuthorID: targetID}
		},
	},
}

func NewRelations(db *gorm.DB, l *zap.SugaredLogger) *Relations {
	return &Relations{
		db:     db,
		logger: l,
	}
}

// Add links userID to targetID. A second Add of the same pair fails with ErrDuplicate;
// the unique index decides, so concurrent calls resolve to exactly one row.
func (s *Relations) Add(ctx context.Context, kind RelationKind, userID, targetID uint64) (uint64, error) {
	table, ok := relationTables[kind]
	if !ok {
		return 0, errors.Errorf("unknown relation kind %d", int(kind))
	}
	if kind == RelationSubscription && userID == targetID {
		return 0, ErrSelfReference
	}

	row := table.newRow(userID, targetID)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExist(tx, table.target, table.targetName, []uint64{targetID}); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.Wrapf(ErrDuplicate, "%s for %s %d", kind, table.targetName, targetID)
			}
			return errors.Wrapf(err, "create %s", kind)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debugw("relation added", "kind", kind.String(), "user_id", userID, "target_id", targetID)
	return row.RowID(), nil
}

// Remove deletes the link. Removing a link that does not exist fails with ErrNotFound.
func (s *Relations) Remove(ctx context.Context, kind RelationKind, userID, targetID uint64) error {
	table, ok := relationTables[kind]
	if !ok {
		return errors.Errorf("unknown relation kind %d", int(kind))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND "+table.targetColumn+" = ?", userID, targetID).Delete(table.model)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "delete %s", kind)
		}
		if res.RowsAffected == 0 {
			return errors.Wrapf(ErrNotFound, "%s for %s %d", kind, table.targetName, targetID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debugw("relation removed", "kind", kind.String(), "user_id", userID, "target_id", targetID)
	return nil
}

// Among returns which of targetIDs the user is linked to by kind.
func (s *Relations) Among(ctx context.Context, kind RelationKind, userID uint64, targetIDs []uint64) (map[uint64]bool, error) {
	linked := make(map[uint64]bool, len(targetIDs))
	if userID == 0 || len(targetIDs) == 0 {
		return linked, nil
	}
	table, ok := relationTables[kind]
	if !ok {
		return nil, errors.Errorf("unknown relation kind %d", int(kind))
	}

	var ids []uint64
	res := s.db.WithContext(ctx).Model(table.model).
		Where("user_id = ? AND "+table.targetColumn+" IN ?", userID, targetIDs).
		Pluck(table.targetColumn, &ids)
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "look up %s", kind)
	}
	for _, id := range ids {
		linked[id] = true
	}
	return linked, nil
}

// Subscriptions lists the authors userID follows, most recent subscription first.
func (s *Relations) Subscriptions(ctx context.Context, userID uint64, page Page) ([]db.User, int64, error) {
	var total int64
	res := s.db.WithContext(ctx).Model(&db.Subscription{}).Where("user_id = ?", userID).Count(&total)
	if res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "count subscriptions")
	}

	authors := make([]db.User, 0)
	q := s.db.WithContext(ctx).
		Select("users.*").
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Order("subscriptions.id DESC")
	if err := page.apply(q).Find(&authors).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list subscriptions")
	}
	return authors, total, nil
}
