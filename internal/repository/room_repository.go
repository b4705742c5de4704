package repository

import (
	"context"
	"time"

	"newchat/backend/internal/models"

	"gorm.io/gorm"
)

const roomWithMemberCount = "chat_rooms.*, " +
	"(SELECT COUNT(*) FROM user_chat_rooms WHERE user_chat_rooms.chat_room_id = chat_rooms.id) AS member_count"

type roomRepository struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func (r *roomRepository) Get(ctx context.Context, id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &room, nil
}

func (r *roomRepository) GetForUpdate(ctx context.Context, id uint) (*models.ChatRoom, error) {
	db, err := forUpdate(r.db.WithContext(ctx), r.lockTimeout)
	if err != nil {
		return nil, err
	}

	var room models.ChatRoom
	if err := db.First(&room, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &room, nil
}

func (r *roomRepository) Save(ctx context.Context, room *models.ChatRoom) error {
	return translateError(r.db.WithContext(ctx).Save(room).Error)
}

func (r *roomRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ChatRoom{}, id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *roomRepository) ListAll(ctx context.Context, page Page) ([]models.ChatRoom, int64, error) {
	return r.list(ctx, page, func(db *gorm.DB) *gorm.DB { return db })
}

func (r *roomRepository) ListByCreator(ctx context.Context, userID uint, page Page) ([]models.ChatRoom, int64, error) {
	return r.list(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("chat_rooms.creator_id = ?", userID)
	})
}

func (r *roomRepository) ListByMember(ctx context.Context, userID uint, page Page) ([]models.ChatRoom, int64, error) {
	return r.list(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN user_chat_rooms ucr ON ucr.chat_room_id = chat_rooms.id").
			Where("ucr.user_id = ?", userID)
	})
}

// list counts and fetches one page of rooms matching filter. The count and
// the fetch are separate chains so neither inherits the other's clauses.
func (r *roomRepository) list(ctx context.Context, page Page, filter func(*gorm.DB) *gorm.DB) ([]models.ChatRoom, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ChatRoom{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rooms []models.ChatRoom
	err := r.db.WithContext(ctx).Model(&models.ChatRoom{}).
		Scopes(filter).
		Select(roomWithMemberCount).
		Order("chat_rooms.id").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rooms).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return rooms, total, nil
}
