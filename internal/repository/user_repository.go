package repository

import (
	"context"
	"time"

	"newchat/backend/internal/models"

	"gorm.io/gorm"
)

type userRepository struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func (r *userRepository) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetForUpdate(ctx context.Context, id uint) (*models.User, error) {
	db, err := forUpdate(r.db.WithContext(ctx), r.lockTimeout)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByNicknameOrEmail(ctx context.Context, nickname, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("nickname = ? OR email = ?", nickname, email).
		First(&user).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}
