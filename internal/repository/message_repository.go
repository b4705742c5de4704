package repository

import (
	"context"

	"newchat/backend/internal/models"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

func (r *messageRepository) Save(ctx context.Context, message *models.Message) error {
	return translateError(r.db.WithContext(ctx).Create(message).Error)
}

func (r *messageRepository) CountForRoom(ctx context.Context, roomID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).Where("chat_room_id = ?", roomID).Count(&n).Error
	return n, translateError(err)
}

func (r *messageRepository) DeleteByRoom(ctx context.Context, roomID uint) error {
	err := r.db.WithContext(ctx).Where("chat_room_id = ?", roomID).Delete(&models.Message{}).Error
	return translateError(err)
}
