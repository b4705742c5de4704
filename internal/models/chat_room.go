package models

import "time"

// ChatRoom is a bounded-capacity chat group with exactly one creator.
// Deleting a room removes its memberships and messages with it.
type ChatRoom struct {
	ID         uint   `gorm:"primaryKey"`
	Title      string `gorm:"size:255;not null"`
	CreatorID  uint   `gorm:"not null;index"`
	MaxMembers int    `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// MemberCount is only populated by list queries.
	MemberCount int64 `gorm:"->;-:migration"`
}

// UserChatRoom is one occupied seat: user UserID is a member of room ChatRoomID.
type UserChatRoom struct {
	ID         uint `gorm:"primaryKey"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_user_chat_room"`
	ChatRoomID uint `gorm:"not null;uniqueIndex:idx_user_chat_room;index"`
	CreatedAt  time.Time

	User     User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	ChatRoom ChatRoom `gorm:"foreignKey:ChatRoomID;constraint:OnDelete:CASCADE;"`
}
