package service

import (
	"context"
	"errors"
	"fmt"

	"newchat/backend/internal/models"
	"newchat/backend/internal/repository"
)

// FriendPage is one page of a user's friends.
type FriendPage struct {
	Friends []models.User
	Total   int64
	Page    repository.Page
}

// FriendService manages friend requests and the friend list. A request is a
// pending relation row from requester to target; accepting flips it to
// accepted and it then counts for both users. A pending request already
// takes one of the requester's slots.
type FriendService struct {
	store repository.Store
	limit int64
}

// NewFriendService caps each user's friend list at limit.
func NewFriendService(store repository.Store, limit int) *FriendService {
	return &FriendService{store: store, limit: int64(limit)}
}

func (s *FriendService) Request(ctx context.Context, myUserID, toUserID uint) error {
	if myUserID == toUserID {
		return ErrSelfRelation
	}
	return s.store.Transaction(ctx, func(r repository.Repositories) error {
		if err := lockUsers(ctx, r, myUserID, toUserID); err != nil {
			return err
		}

		for _, pair := range [][2]uint{{myUserID, toUserID}, {toUserID, myUserID}} {
			rel, err := r.Friends.Find(ctx, pair[0], pair[1])
			switch {
			case errors.Is(err, repository.ErrNotFound):
				continue
			case err != nil:
				return fmt.Errorf("look up relation: %w", err)
			case rel.Status == models.StatusAccepted:
				return ErrAlreadyFriend
			default:
				return ErrFriendRequestExists
			}
		}

		if err := s.checkLimit(ctx, r, myUserID, true); err != nil {
			return err
		}
		return r.Friends.Create(ctx, &models.UserRelation{
			FromUserID: myUserID,
			ToUserID:   toUserID,
			Status:     models.StatusPending,
		})
	})
}

// Accept accepts the pending request fromUserID sent to myUserID.
func (s *FriendService) Accept(ctx context.Context, myUserID, fromUserID uint) error {
	return s.store.Transaction(ctx, func(r repository.Repositories) error {
		if err := lockUsers(ctx, r, myUserID, fromUserID); err != nil {
			return err
		}
		rel, err := r.Friends.Find(ctx, fromUserID, myUserID)
		if err != nil {
			return translate(err, ErrFriendRequestNotFound, "from user %d", fromUserID)
		}
		if rel.Status != models.StatusPending {
			return ErrAlreadyFriend
		}
		// Pending requests are left out: this one is about to turn accepted.
		if err := s.checkLimit(ctx, r, myUserID, false); err != nil {
			return err
		}
		if err := s.checkLimit(ctx, r, fromUserID, false); err != nil {
			return err
		}
		return r.Friends.UpdateStatus(ctx, fromUserID, myUserID, models.StatusAccepted)
	})
}

// Decline refuses the pending request fromUserID sent to myUserID.
func (s *FriendService) Decline(ctx context.Context, myUserID, fromUserID uint) error {
	err := s.store.Repos().Friends.Delete(ctx, fromUserID, myUserID, models.StatusPending)
	return translate(err, ErrFriendRequestNotFound, "from user %d", fromUserID)
}

// Cancel withdraws the pending request myUserID sent to toUserID.
func (s *FriendService) Cancel(ctx context.Context, myUserID, toUserID uint) error {
	err := s.store.Repos().Friends.Delete(ctx, myUserID, toUserID, models.StatusPending)
	return translate(err, ErrFriendRequestNotFound, "to user %d", toUserID)
}

// Unfriend removes an accepted friendship, whichever side sent the request.
func (s *FriendService) Unfriend(ctx context.Context, myUserID, otherUserID uint) error {
	return s.store.Transaction(ctx, func(r repository.Repositories) error {
		err := r.Friends.Delete(ctx, myUserID, otherUserID, models.StatusAccepted)
		if errors.Is(err, repository.ErrNotFound) {
			err = r.Friends.Delete(ctx, otherUserID, myUserID, models.StatusAccepted)
		}
		return translate(err, ErrNotFriend, "user %d", otherUserID)
	})
}

func (s *FriendService) List(ctx context.Context, myUserID uint, page repository.Page) (*FriendPage, error) {
	repos := s.store.Repos()
	if _, err := repos.Users.Get(ctx, myUserID); err != nil {
		return nil, translate(err, ErrUserNotFound, "user %d", myUserID)
	}
	friends, total, err := repos.Friends.ListFriends(ctx, myUserID, page)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return &FriendPage{Friends: friends, Total: total, Page: page}, nil
}

// checkLimit fails when userID has no free slot left. With withPending,
// requests userID sent and nobody answered yet count as taken.
func (s *FriendService) checkLimit(ctx context.Context, r repository.Repositories, userID uint, withPending bool) error {
	n, err := r.Friends.CountFriends(ctx, userID)
	if err != nil {
		return fmt.Errorf("count friends: %w", err)
	}
	if withPending {
		pending, err := r.Friends.CountPendingSent(ctx, userID)
		if err != nil {
			return fmt.Errorf("count pending requests: %w", err)
		}
		n += pending
	}
	if n >= s.limit {
		return fmt.Errorf("%w: user %d has %d/%d", ErrFriendListFull, userID, n, s.limit)
	}
	return nil
}

// lockUsers locks both user rows, lower id first, so two requests between
// the same pair run one after the other.
func lockUsers(ctx context.Context, r repository.Repositories, a, b uint) error {
	if a > b {
		a, b = b, a
	}
	for _, id := range []uint{a, b} {
		if _, err := r.Users.GetForUpdate(ctx, id); err != nil {
			return translate(err, ErrUserNotFound, "user %d", id)
		}
	}
	return nil
}
