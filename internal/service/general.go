package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

var (
	ErrLoginUserNotFound         = errors.New("user not found")
	ErrLoginPasswordDoesNotMatch = errors.New("password does not match")
)

type (
	General struct {
		db         *gorm.DB
		logger     *zap.SugaredLogger
		bcryptCost int
	}

	RegisterParams struct {
		Email     string
		Username  string
		FirstName string
		LastName  string
		Password  string
	}
)

func NewGeneral(db *gorm.DB, cfg *config.Config, l *zap.SugaredLogger) *General {
	return &General{
		db:         db,
		logger:     l,
		bcryptCost: cfg.BcryptCost,
	}
}

func (s *General) Register(ctx context.Context, p RegisterParams) (*db.User, error) {
	hash, err := s.bcryptGen(p.Password)
	if err != nil {
		return nil, errors.Wrap(err, "bcryptGen")
	}
	user := db.User{
		Email:     p.Email,
		Username:  p.Username,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Password:  hash,
		Token:     uuid.New().String(),
	}
	res := s.db.WithContext(ctx).Create(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, errors.Wrap(ErrDuplicate, "user with this email or username")
		}
		return nil, errors.Wrap(res.Error, "create user")
	}
	s.logger.Infow("user registered", "user_id", user.ID)
	return &user, nil
}

func (s *General) Login(ctx context.Context, email, pass string) (string, error) {
	user := db.User{}
	res := s.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return "", ErrLoginUserNotFound
		}
		return "", res.Error
	}

	if err := s.bcryptCheck(user.Password, pass); err != nil {
		return "", ErrLoginPasswordDoesNotMatch
	}

	token := uuid.New().String()
	res = s.db.WithContext(ctx).Model(&user).Update("token", token)
	if res.Error != nil {
		return "", errors.Wrap(res.Error, "update token")
	}

	return token, nil
}

// Logout rotates the token so the one the caller holds stops resolving.
func (s *General) Logout(ctx context.Context, userID uint64) error {
	res := s.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", userID).Update("token", uuid.New().String())
	if res.Error != nil {
		return errors.Wrap(res.Error, "rotate token")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "user %d", userID)
	}
	return nil
}

func (s *General) UserByToken(ctx context.Context, token string) (*db.User, error) {
	user := db.User{}
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&user).Error; err != nil {
		return nil, notFound(err, "token")
	}
	return &user, nil
}

// Identify resolves a token into an Identity. An empty token is Anonymous.
func (s *General) Identify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Anonymous, nil
	}
	user, err := s.UserByToken(ctx, token)
	if err != nil {
		return Anonymous, err
	}
	return Identity{UserID: user.ID, Admin: user.IsAdmin}, nil
}

func (s *General) GetUser(ctx context.Context, id uint64) (*db.User, error) {
	user := db.User{}
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user %d", id)
	}
	return &user, nil
}

func (s *General) ListUsers(ctx context.Context, page Page) ([]db.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&db.User{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count users")
	}
	users := make([]db.User, 0)
	if err := page.apply(s.db.WithContext(ctx).Order("id")).Find(&users).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list users")
	}
	return users, total, nil
}

func (s *General) SetAvatar(ctx context.Context, userID uint64, avatar *string) error {
	res := s.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", userID).Update("avatar", avatar)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update avatar")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "user %d", userID)
	}
	return nil
}

// SetPassword replaces the password after checking the current one, and rotates the token.
func (s *General) SetPassword(ctx context.Context, userID uint64, current, next string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := db.User{}
		if err := tx.First(&user, userID).Error; err != nil {
			return notFound(err, "user %d", userID)
		}
		if err := s.bcryptCheck(user.Password, current); err != nil {
			return invalid("current password does not match")
		}
		hash, err := s.bcryptGen(next)
		if err != nil {
			return errors.Wrap(err, "bcryptGen")
		}
		res := tx.Model(&user).Updates(map[string]interface{}{
			"password": hash,
			"token":    uuid.New().String(),
		})
		return errors.Wrap(res.Error, "update password")
	})
}

// SetAdmin grants or revokes the administrator flag of the user with the given email.
func (s *General) SetAdmin(ctx context.Context, email string, admin bool) (*db.User, error) {
	user := db.User{}
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "user %q", email)
	}
	if err := s.db.WithContext(ctx).Model(&user).Update("is_admin", admin).Error; err != nil {
		return nil, errors.Wrap(err, "update admin flag")
	}
	user.IsAdmin = admin
	s.logger.Infow("admin flag changed", "user_id", user.ID, "admin", admin)
	return &user, nil
}

// DeleteUser removes a user with everything that references them: their recipes
// (and the recipes' dependents), their relation rows and relation rows pointing at them.
func (s *General) DeleteUser(ctx context.Context, caller Identity, id uint64) error {
	if err := caller.RequireAdmin(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := db.User{}
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, "user %d", id)
		}

		var recipeIDs []uint64
		if err := tx.Model(&db.Recipe{}).Where("author_id = ?", id).Pluck("id", &recipeIDs).Error; err != nil {
			return errors.Wrap(err, "find user recipes")
		}
		if err := deleteRecipes(tx, recipeIDs); err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&db.Favorite{}).Error; err != nil {
			return errors.Wrap(err, "delete favorites")
		}
		if err := tx.Where("user_id = ?", id).Delete(&db.ShoppingCart{}).Error; err != nil {
			return errors.Wrap(err, "delete shopping cart")
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&db.Subscription{}).Error; err != nil {
			return errors.Wrap(err, "delete subscriptions")
		}

		return errors.Wrap(tx.Delete(&user).Error, "delete user")
	})
	if err != nil {
		return err
	}
	s.logger.Infow("user deleted", "user_id", id, "by", caller.UserID)
	return nil
}

func (s *General) bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), s.bcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func (s *General) bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}
