package repository

import (
	"context"
	"errors"

	"newchat/backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicate   = errors.New("duplicate record")
	ErrLockTimeout = errors.New("lock wait timed out")
)

// PostgreSQL SQLSTATE codes mapped onto the sentinels above.
const (
	pgUniqueViolation  = "23505"
	pgLockNotAvailable = "55P03"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page selects a 1-based page of a listing.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps user-supplied paging input to sane values.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// RoomRepository is row-level access to chat rooms.
type RoomRepository interface {
	Get(ctx context.Context, id uint) (*models.ChatRoom, error)
	// GetForUpdate locks the room row until the surrounding transaction ends.
	// Waiting longer than the configured lock timeout yields ErrLockTimeout.
	GetForUpdate(ctx context.Context, id uint) (*models.ChatRoom, error)
	Save(ctx context.Context, room *models.ChatRoom) error
	Delete(ctx context.Context, id uint) error
	ListAll(ctx context.Context, page Page) ([]models.ChatRoom, int64, error)
	ListByCreator(ctx context.Context, userID uint, page Page) ([]models.ChatRoom, int64, error)
	ListByMember(ctx context.Context, userID uint, page Page) ([]models.ChatRoom, int64, error)
}

// MembershipRepository is access to user_chat_rooms rows.
type MembershipRepository interface {
	// CountForRoom must run in the transaction holding the room's
	// GetForUpdate lock.
	CountForRoom(ctx context.Context, roomID uint) (int64, error)
	CountForRoomNonLocking(ctx context.Context, roomID uint) (int64, error)
	ListUserIDsForRoom(ctx context.Context, roomID uint) ([]uint, error)
	Save(ctx context.Context, membership *models.UserChatRoom) error
	DeleteByRoom(ctx context.Context, roomID uint) error
	// DeleteByUser removes the user from every room. Callers leaving a
	// single room want DeleteByUserAndRoom.
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteByUserAndRoom(ctx context.Context, userID, roomID uint) (int64, error)
}

// UserRepository is access to user accounts.
type UserRepository interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	// GetForUpdate locks the user row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	FindByNicknameOrEmail(ctx context.Context, nickname, email string) (*models.User, error)
}

// MessageRepository is access to a room's stored messages.
type MessageRepository interface {
	Save(ctx context.Context, message *models.Message) error
	CountForRoom(ctx context.Context, roomID uint) (int64, error)
	DeleteByRoom(ctx context.Context, roomID uint) error
}

// FriendRepository is access to directed user_relations rows.
type FriendRepository interface {
	Find(ctx context.Context, fromUserID, toUserID uint) (*models.UserRelation, error)
	Create(ctx context.Context, relation *models.UserRelation) error
	UpdateStatus(ctx context.Context, fromUserID, toUserID uint, status models.FriendshipStatus) error
	Delete(ctx context.Context, fromUserID, toUserID uint, status models.FriendshipStatus) error
	CountFriends(ctx context.Context, userID uint) (int64, error)
	CountPendingSent(ctx context.Context, userID uint) (int64, error)
	ListFriends(ctx context.Context, userID uint, page Page) ([]models.User, int64, error)
}

// Repositories bundles every repository bound to the same connection or
// transaction.
type Repositories struct {
	Rooms       RoomRepository
	Memberships MembershipRepository
	Users       UserRepository
	Messages    MessageRepository
	Friends     FriendRepository
}

// Store hands out repositories and runs units of work.
type Store interface {
	// Repos returns repositories that run each call in its own implicit
	// transaction. Use them for reads.
	Repos() Repositories
	// Transaction runs fn in one transaction. It commits when fn returns
	// nil and rolls back otherwise, returning fn's error.
	Transaction(ctx context.Context, fn func(Repositories) error) error
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgLockNotAvailable:
			return ErrLockTimeout
		}
	}
	return err
}
