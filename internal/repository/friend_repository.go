package repository

import (
	"context"

	"newchat/backend/internal/models"

	"gorm.io/gorm"
)

type friendRepository struct {
	db *gorm.DB
}

func (r *friendRepository) Find(ctx context.Context, fromUserID, toUserID uint) (*models.UserRelation, error) {
	var relation models.UserRelation
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		First(&relation).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &relation, nil
}

func (r *friendRepository) Create(ctx context.Context, relation *models.UserRelation) error {
	return translateError(r.db.WithContext(ctx).Create(relation).Error)
}

func (r *friendRepository) UpdateStatus(ctx context.Context, fromUserID, toUserID uint, status models.FriendshipStatus) error {
	result := r.db.WithContext(ctx).Model(&models.UserRelation{}).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Update("status", status)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *friendRepository) Delete(ctx context.Context, fromUserID, toUserID uint, status models.FriendshipStatus) error {
	result := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?", fromUserID, toUserID, status).
		Delete(&models.UserRelation{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountFriends counts accepted relations the user takes part in, in either
// direction.
func (r *friendRepository) CountFriends(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserRelation{}).
		Where("status = ? AND (from_user_id = ? OR to_user_id = ?)", models.StatusAccepted, userID, userID).
		Count(&n).Error
	return n, translateError(err)
}

// CountPendingSent counts requests the user sent that are still unanswered.
func (r *friendRepository) CountPendingSent(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserRelation{}).
		Where("status = ? AND from_user_id = ?", models.StatusPending, userID).
		Count(&n).Error
	return n, translateError(err)
}

func (r *friendRepository) ListFriends(ctx context.Context, userID uint, page Page) ([]models.User, int64, error) {
	friendsOf := func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN user_relations ur ON "+
			"(ur.from_user_id = users.id AND ur.to_user_id = ?) OR (ur.to_user_id = users.id AND ur.from_user_id = ?)",
			userID, userID).
			Where("ur.status = ?", models.StatusAccepted)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Scopes(friendsOf).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var users []models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Scopes(friendsOf).
		Order("users.nickname").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&users).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return users, total, nil
}
