package db

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		GormForkedModel
		Email     string `gorm:"unique;not null"`
		Username  string `gorm:"unique;not null"`
		FirstName string `gorm:"not null"`
		LastName  string `gorm:"not null"`
		Password  string `gorm:"not null"`
		Token     string `gorm:"unique;not null"`
		IsAdmin   bool   `gorm:"not null;default:false"`
		Avatar    *string
	}

	Ingredient struct {
		GormForkedModel
		Name            string `gorm:"unique;not null"`
		MeasurementUnit string `gorm:"not null"`
	}

	Tag struct {
		GormForkedModel
		Name string `gorm:"unique;not null"`
		Slug string `gorm:"unique;not null"`
	}

	Recipe struct {
		GormForkedModel
		AuthorID    uint64 `gorm:"not null;index"`
		Author      User   `gorm:"constraint:OnDelete:CASCADE"`
		Name        string `gorm:"not null"`
		Text        string `gorm:"not null"`
		Image       *string
		CookingTime uint               `gorm:"not null"`
		Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE"`
		Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	}

	// RecipeIngredient is one ingredient line of a recipe. Lines keep insertion order by ID.
	RecipeIngredient struct {
		ID           uint64     `gorm:"primarykey"`
		RecipeID     uint64     `gorm:"not null;uniqueIndex:uidx_recipe_ingredient"`
		IngredientID uint64     `gorm:"not null;uniqueIndex:uidx_recipe_ingredient"`
		Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE"`
		Amount       uint       `gorm:"not null"`
	}

	RecipeTag struct {
		RecipeID uint64 `gorm:"primaryKey"`
		TagID    uint64 `gorm:"primaryKey"`
	}

	Favorite struct {
		GormForkedModel
		UserID   uint64 `gorm:"not null;uniqueIndex:uidx_favorite_user_recipe"`
		User     User   `gorm:"constraint:OnDelete:CASCADE"`
		RecipeID uint64 `gorm:"not null;uniqueIndex:uidx_favorite_user_recipe"`
		Recipe   Recipe `gorm:"constraint:OnDelete:CASCADE"`
	}

	ShoppingCart struct {
		GormForkedModel
		UserID   uint64 `gorm:"not null;uniqueIndex:uidx_shopping_cart_user_recipe"`
		User     User   `gorm:"constraint:OnDelete:CASCADE"`
		RecipeID uint64 `gorm:"not null;uniqueIndex:uidx_shopping_cart_user_recipe"`
		Recipe   Recipe `gorm:"constraint:OnDelete:CASCADE"`
	}

	Subscription struct {
		GormForkedModel
		UserID   uint64 `gorm:"not null;uniqueIndex:uidx_subscription_user_author"`
		User     User   `gorm:"constraint:OnDelete:CASCADE"`
		AuthorID uint64 `gorm:"not null;uniqueIndex:uidx_subscription_user_author"`
		Author   User   `gorm:"constraint:OnDelete:CASCADE"`
	}
)

func (m *GormForkedModel) RowID() uint64 {
	return m.ID
}

func NewGormClient(cfg *config.Config, l *zap.SugaredLogger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         NewLogger(l),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	return db, nil
}

// NewLogger routes gorm's query log through zap.
func NewLogger(l *zap.SugaredLogger) logger.Interface {
	return logger.New(zap.NewStdLog(l.Desugar()), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Recipe{}, "Tags", &RecipeTag{}); err != nil {
		return errors.Wrap(err, "setup recipe tags")
	}

	models := []struct {
		name  string
		model interface{}
	}{
		{"user", &User{}},
		{"ingredient", &Ingredient{}},
		{"tag", &Tag{}},
		{"recipe", &Recipe{}},
		{"recipe ingredient", &RecipeIngredient{}},
		{"recipe tag", &RecipeTag{}},
		{"favorite", &Favorite{}},
		{"shopping cart", &ShoppingCart{}},
		{"subscription", &Subscription{}},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m.model); err != nil {
			return errors.Wrapf(err, "migrate %s", m.name)
		}
	}

	return nil
}
