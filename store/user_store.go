package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mealmuse/feedfan/model"
)

// ErrUserNotFound is returned when looking up an unknown user id.
var ErrUserNotFound = errors.New("user not found")

// UserStore owns the canonical profile rows.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
}

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) CreateUser(ctx context.Context, user *model.User) error {
	res := s.db.WithContext(ctx).Create(user)
	return errors.Wrap(res.Error, "fail to create user")
}

func (s *GormUserStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	res := s.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "fail to read user")
	}
	return &user, nil
}
