package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"newchat/backend/internal/models"
	"newchat/backend/internal/repository"
)

// RoomSummary is the listing view of a room.
type RoomSummary struct {
	ID          uint
	Title       string
	CreatorID   uint
	MemberCount int64
	MaxMembers  int
	CreatedAt   time.Time
}

// RoomPage is one page of a room listing.
type RoomPage struct {
	Rooms []RoomSummary
	Total int64
	Page  repository.Page
}

// RoomService owns the room lifecycle: create, join, list, leave, delete.
// A room's membership count never exceeds its MaxMembers: joins check and
// insert while holding the room's row lock.
type RoomService struct {
	store repository.Store
}

func NewRoomService(store repository.Store) *RoomService {
	return &RoomService{store: store}
}

// CreateRoom creates a room owned by requesterID and seats the creator in it.
// Title length and maxMembers >= 1 are validated by the caller.
func (s *RoomService) CreateRoom(ctx context.Context, requesterID uint, title string, maxMembers int) (uint, error) {
	var roomID uint
	err := s.store.Transaction(ctx, func(r repository.Repositories) error {
		if _, err := r.Users.Get(ctx, requesterID); err != nil {
			return translate(err, ErrUserNotFound, "user %d", requesterID)
		}

		now := time.Now()
		room := &models.ChatRoom{
			Title:      title,
			CreatorID:  requesterID,
			MaxMembers: maxMembers,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := r.Rooms.Save(ctx, room); err != nil {
			return fmt.Errorf("save room: %w", err)
		}

		seat := &models.UserChatRoom{UserID: requesterID, ChatRoomID: room.ID}
		if err := r.Memberships.Save(ctx, seat); err != nil {
			return fmt.Errorf("seat creator: %w", err)
		}

		roomID = room.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return roomID, nil
}

// JoinRoom seats userID in roomID. The room row stays locked from the
// capacity check until the new membership commits, so concurrent joins on
// one room run one at a time.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID uint) error {
	return s.store.Transaction(ctx, func(r repository.Repositories) error {
		if _, err := r.Users.Get(ctx, userID); err != nil {
			return translate(err, ErrUserNotFound, "user %d", userID)
		}

		room, err := r.Rooms.GetForUpdate(ctx, roomID)
		if err != nil {
			return translate(err, ErrRoomNotFound, "room %d", roomID)
		}

		count, err := r.Memberships.CountForRoom(ctx, roomID)
		if err != nil {
			return fmt.Errorf("count members of room %d: %w", roomID, err)
		}
		members, err := r.Memberships.ListUserIDsForRoom(ctx, roomID)
		if err != nil {
			return fmt.Errorf("list members of room %d: %w", roomID, err)
		}

		if slices.Contains(members, userID) {
			return fmt.Errorf("%w: user %d, room %d", ErrAlreadyJoined, userID, roomID)
		}
		if count >= int64(room.MaxMembers) {
			return fmt.Errorf("%w: room %d has %d/%d members", ErrRoomFull, roomID, count, room.MaxMembers)
		}

		err = r.Memberships.Save(ctx, &models.UserChatRoom{UserID: userID, ChatRoomID: roomID})
		if errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("%w: user %d, room %d", ErrAlreadyJoined, userID, roomID)
		}
		return err
	})
}

// ListRooms returns every room. Listings take no locks and may trail
// concurrent joins and leaves.
func (s *RoomService) ListRooms(ctx context.Context, page repository.Page) (*RoomPage, error) {
	rooms, total, err := s.store.Repos().Rooms.ListAll(ctx, page)
	return newRoomPage(rooms, total, page, err)
}

// ListRoomsByCreator returns the rooms userID created.
func (s *RoomService) ListRoomsByCreator(ctx context.Context, userID uint, page repository.Page) (*RoomPage, error) {
	rooms, total, err := s.store.Repos().Rooms.ListByCreator(ctx, userID, page)
	return newRoomPage(rooms, total, page, err)
}

// ListRoomsByMember returns the rooms userID currently occupies a seat in.
func (s *RoomService) ListRoomsByMember(ctx context.Context, userID uint, page repository.Page) (*RoomPage, error) {
	rooms, total, err := s.store.Repos().Rooms.ListByMember(ctx, userID, page)
	return newRoomPage(rooms, total, page, err)
}

// OutRoom removes userID from roomID. When the creator leaves, the room is
// dissolved together with its memberships and messages.
func (s *RoomService) OutRoom(ctx context.Context, userID, roomID uint) error {
	dissolved := false
	err := s.store.Transaction(ctx, func(r repository.Repositories) error {
		room, err := r.Rooms.Get(ctx, roomID)
		if err != nil {
			return translate(err, ErrRoomNotFound, "room %d", roomID)
		}

		if room.CreatorID != userID {
			removed, err := r.Memberships.DeleteByUserAndRoom(ctx, userID, roomID)
			if err != nil {
				return fmt.Errorf("leave room %d: %w", roomID, err)
			}
			if removed == 0 {
				return fmt.Errorf("%w: user %d, room %d", ErrNotRoomMember, userID, roomID)
			}
			return nil
		}

		dissolved = true
		return dissolve(ctx, r, roomID)
	})
	if err == nil && dissolved {
		log.Printf("room %d dissolved: creator %d left", roomID, userID)
	}
	return err
}

// DeleteRoom dissolves roomID. Only its creator may do so.
func (s *RoomService) DeleteRoom(ctx context.Context, userID, roomID uint) error {
	err := s.store.Transaction(ctx, func(r repository.Repositories) error {
		room, err := r.Rooms.Get(ctx, roomID)
		if err != nil {
			return translate(err, ErrRoomNotFound, "room %d", roomID)
		}
		if room.CreatorID != userID {
			return fmt.Errorf("%w: user %d, room %d", ErrNotRoomCreator, userID, roomID)
		}
		return dissolve(ctx, r, roomID)
	})
	if err == nil {
		log.Printf("room %d deleted by creator %d", roomID, userID)
	}
	return err
}

// dissolve deletes messages, memberships and the room, in that order. It
// locks the room first so no join can slip a membership in between.
func dissolve(ctx context.Context, r repository.Repositories, roomID uint) error {
	if _, err := r.Rooms.GetForUpdate(ctx, roomID); err != nil {
		return translate(err, ErrRoomNotFound, "room %d", roomID)
	}
	if err := r.Messages.DeleteByRoom(ctx, roomID); err != nil {
		return fmt.Errorf("delete messages of room %d: %w", roomID, err)
	}
	if err := r.Memberships.DeleteByRoom(ctx, roomID); err != nil {
		return fmt.Errorf("delete memberships of room %d: %w", roomID, err)
	}
	if err := r.Rooms.Delete(ctx, roomID); err != nil {
		return translate(err, ErrRoomNotFound, "room %d", roomID)
	}
	return nil
}

func newRoomPage(rooms []models.ChatRoom, total int64, page repository.Page, err error) (*RoomPage, error) {
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, RoomSummary{
			ID:          room.ID,
			Title:       room.Title,
			CreatorID:   room.CreatorID,
			MemberCount: room.MemberCount,
			MaxMembers:  room.MaxMembers,
			CreatedAt:   room.CreatedAt,
		})
	}
	return &RoomPage{Rooms: summaries, Total: total, Page: page}, nil
}
