package repository

import (
	"context"

	"newchat/backend/internal/models"

	"gorm.io/gorm"
)

type membershipRepository struct {
	db *gorm.DB
}

// CountForRoom counts seats taken in roomID. PostgreSQL rejects FOR UPDATE
// on aggregates, so the count itself takes no lock; it is protected by the
// room row lock the caller already holds in this transaction.
func (r *membershipRepository) CountForRoom(ctx context.Context, roomID uint) (int64, error) {
	return r.count(ctx, roomID)
}

func (r *membershipRepository) CountForRoomNonLocking(ctx context.Context, roomID uint) (int64, error) {
	return r.count(ctx, roomID)
}

func (r *membershipRepository) count(ctx context.Context, roomID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserChatRoom{}).
		Where("chat_room_id = ?", roomID).
		Count(&n).Error
	return n, translateError(err)
}

func (r *membershipRepository) ListUserIDsForRoom(ctx context.Context, roomID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.UserChatRoom{}).
		Where("chat_room_id = ?", roomID).
		Order("id").
		Pluck("user_id", &ids).Error
	return ids, translateError(err)
}

func (r *membershipRepository) Save(ctx context.Context, membership *models.UserChatRoom) error {
	return translateError(r.db.WithContext(ctx).Create(membership).Error)
}

func (r *membershipRepository) DeleteByRoom(ctx context.Context, roomID uint) error {
	err := r.db.WithContext(ctx).Where("chat_room_id = ?", roomID).Delete(&models.UserChatRoom{}).Error
	return translateError(err)
}

func (r *membershipRepository) DeleteByUser(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserChatRoom{}).Error
	return translateError(err)
}

func (r *membershipRepository) DeleteByUserAndRoom(ctx context.Context, userID, roomID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND chat_room_id = ?", userID, roomID).
		Delete(&models.UserChatRoom{})
	return result.RowsAffected, translateError(result.Error)
}
