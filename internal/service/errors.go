package service

import (
	"errors"
	"fmt"

	"newchat/backend/internal/repository"
)

// Error kinds returned by the services. They are wrapped with detail via
// fmt.Errorf("%w: ...") so callers match them with errors.Is.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrRoomNotFound   = errors.New("room not found")
	ErrAlreadyJoined  = errors.New("user already joined the room")
	ErrRoomFull       = errors.New("room is full")
	ErrNotRoomCreator = errors.New("only the room creator can do this")
	ErrNotRoomMember  = errors.New("user is not a member of the room")
	ErrLockTimeout    = errors.New("room is busy")

	ErrUserExists         = errors.New("nickname or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")

	ErrSelfRelation          = errors.New("cannot befriend yourself")
	ErrAlreadyFriend         = errors.New("already friends")
	ErrFriendRequestExists   = errors.New("friend request already pending")
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrFriendListFull        = errors.New("friend list is full")
	ErrNotFriend             = errors.New("not friends")
)

// translate maps repository sentinels onto service error kinds. notFound is
// the kind a missing row means for this call.
func translate(err, notFound error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	detail := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", notFound, detail)
	case errors.Is(err, repository.ErrLockTimeout):
		return fmt.Errorf("%w: %s", ErrLockTimeout, detail)
	}
	return fmt.Errorf("%s: %w", detail, err)
}
