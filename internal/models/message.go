package models

import "time"

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

// Message represents a chat message within a room.
type Message struct {
	ID         uint        `gorm:"primaryKey"`
	ChatRoomID uint        `gorm:"not null;index"`
	UserID     *uint       // Nullable for system messages
	Type       MessageType `gorm:"size:50;not null;default:'text'"`
	Content    string      `gorm:"not null"`
	CreatedAt  time.Time

	ChatRoom ChatRoom `gorm:"foreignKey:ChatRoomID;constraint:OnDelete:CASCADE;"`
}
