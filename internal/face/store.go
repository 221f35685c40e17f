package face

import (
	"context"
	"errors"

	"github.com/eleven-am/sight-backend/internal/shared"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Face{})
}

func (s *Store) Create(ctx context.Context, f *Face) error {
	if f.ID == "" {
		f.ID = shared.NewID("face_")
	}
	return s.db.WithContext(ctx).Create(f).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*Face, error) {
	var f Face
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &f, err
}

func (s *Store) GetByName(ctx context.Context, name string) (*Face, error) {
	var f Face
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &f, err
}

func (s *Store) List(ctx context.Context) ([]*Face, error) {
	var faces []*Face
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&faces).Error
	return faces, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Face{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Face{}).Count(&count).Error
	return count, err
}
