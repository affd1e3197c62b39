package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mealmuse/feedfan/model"
)

// ActivityStore owns the canonical append-only activity log. Records are
// never updated or deleted on the happy path.
type ActivityStore interface {
	CreateActivity(ctx context.Context, activity *model.Activity) error
	GetActivity(ctx context.Context, id string) (*model.Activity, error)
}

// ErrActivityNotFound is returned when looking up an unknown activity id.
var ErrActivityNotFound = errors.New("activity not found")

type GormActivityStore struct {
	db *gorm.DB
}

func NewGormActivityStore(db *gorm.DB) *GormActivityStore {
	return &GormActivityStore{db: db}
}

// CreateActivity writes the canonical record once. Re-creating an activity
// with an id that already exists is a no-op success, which keeps a repair
// re-publish idempotent on the canonical side.
func (s *GormActivityStore) CreateActivity(ctx context.Context, activity *model.Activity) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(activity)
	return errors.Wrap(res.Error, "fail to create canonical activity")
}

func (s *GormActivityStore) GetActivity(ctx context.Context, id string) (*model.Activity, error) {
	var activity model.Activity
	res := s.db.WithContext(ctx).Where("id = ?", id).First(&activity)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, ErrActivityNotFound
	}
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "fail to read activity")
	}
	return &activity, nil
}
