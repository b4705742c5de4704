package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"newchat/backend/internal/models"
	"newchat/backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, store repository.Store, nicknames ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(nicknames))
	for _, nick := range nicknames {
		user := &models.User{Nickname: nick, Email: nick + "@example.com", PasswordHash: "x"}
		require.NoError(t, store.Repos().Users.Create(context.Background(), user))
		ids = append(ids, user.ID)
	}
	return ids
}

func memberCount(t *testing.T, store repository.Store, roomID uint) int64 {
	t.Helper()
	n, err := store.Repos().Memberships.CountForRoomNonLocking(context.Background(), roomID)
	require.NoError(t, err)
	return n
}

func TestCreateRoomSeatsCreator(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoomService(store)
	ids := seedUsers(t, store, "alice")

	roomID, err := svc.CreateRoom(ctx, ids[0], "general", 4)
	require.NoError(t, err)
	assert.NotZero(t, roomID)
	assert.EqualValues(t, 1, memberCount(t, store, roomID))

	page, err := svc.ListRoomsByCreator(ctx, ids[0], repository.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Rooms, 1)
	assert.Equal(t, "general", page.Rooms[0].Title)
	assert.EqualValues(t, 1, page.Rooms[0].MemberCount)
	assert.Equal(t, 4, page.Rooms[0].MaxMembers)
}

func TestCreateRoomUnknownUser(t *testing.T) {
	store := newMemStore()
	svc := NewRoomService(store)

	_, err := svc.CreateRoom(context.Background(), 42, "general", 4)
	assert.ErrorIs(t, err, ErrUserNotFound)

	page, err := svc.ListRooms(context.Background(), repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, page.Rooms)
}

func TestJoinRoomRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoomService(store)
	ids := seedUsers(t, store, "alice", "bob", "carol")

	roomID, err := svc.CreateRoom(ctx, ids[0], "pair", 2)
	require.NoError(t, err)

	require.NoError(t, svc.JoinRoom(ctx, roomID, ids[1]))
	assert.ErrorIs(t, svc.JoinRoom(ctx, roomID, ids[2]), ErrRoomFull)
	assert.EqualValues(t, 2, memberCount(t, store, roomID))
}

func TestJoinRoomTwice(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoomService(store)
	ids := seedUsers(t, store, "alice", "bob")

	roomID, err := svc.CreateRoom(ctx, ids[0], "general", 4)
	require.NoError(t, err)

	require.NoError(t, svc.JoinRoom(ctx, roomID, ids[1]))
	assert.ErrorIs(t, svc.JoinRoom(ctx, roomID, ids[1]), ErrAlreadyJoined)
	assert.ErrorIs(t, svc.JoinRoom(ctx, roomID, ids[0]), ErrAlreadyJoined)
	assert.EqualValues(t, 2, memberCount(t, store, roomID))
}

func TestJoinRoomMissingUserOrRoom(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoomService(store)
	ids := seedUsers(t, store, "alice")

	roomID, err := svc.CreateRoom(ctx, ids[0], "general", 4)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.JoinRoom(ctx, roomID, 999), ErrUserNotFound)
	assert.ErrorIs(t, svc.JoinRoom(ctx, roomID+100, ids[0]), ErrRoomNotFound)
}

func TestConcurrentJoinsNeverOverfill(t *testing.T) {
	const (
		capacity = 5
		joiners  = 30
	)
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoomService(store)

	names := make([]string, joiners+1)
	for i := range names {
		names[i] = fmt.Sprintf("user%02d", i)
	}
	ids := seedUsers(t, store, names...)

	// An empty room, so every seat is up for grabs.
	room := &models.ChatRoom{Title: "crowded", CreatorID: ids[0], MaxMembers: capacity}
	require.NoError(t, store.Repos().Rooms.Save(ctx, room))

	var joined, full atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, id := range ids[1:] {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			<-start
			err := svc.JoinRoom(ctx, room.ID, userID)
			switch {
			case err == nil:
				joined.Add(1)
			case assert.ErrorIs(t, err, ErrRoomFull):
				full.Add(1)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, capacity, joined.Load())
	assert.EqualValues(t, joiners-capacity, full.Load())
	assert.EqualValues(t, capacity, memberCount(t, store, room.ID))
}

func TestJoinRoomLockTimeout(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.lockTimeout = 50 * time.Millisecond
	svc := NewRoomService(store)
	ids := seedUsers(t, store, "alice", "bob")

	roomID, err := svc.CreateRoom(ctx, ids[0], "general", 4)
	require.NoError(t, err)

	held := make(chan struct{})
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.Transaction(ctx, func(r repository.Repositories) error {
			if _, err := r.Rooms.GetForUpdate(ctx, roomID); err != nil {
				return err
			}
			close(held)
			<-done
			return nil
		})
	}()

	<-held
	assert.ErrorIs(t, svc.JoinRoom(ctx, roomID, ids[1]), ErrLockTimeout)
	close(done)
	wg.Wait()

	require.NoError(t, svc.JoinRoom(ctx, roomID, ids[1]))
	assert.EqualValues(t, 2, memberCount(t, store, roomID))
}

func TestDeleteRoomByNonCreatorLeavesRoomIntact(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoomService(store)
	ids := seedUsers(t, store, "alice", "bob")

	roomID, err := svc.CreateRoom(ctx, ids[0], "general", 4)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(ctx, roomID, ids[1]))
	require.NoError(t, store.Repos().Messages.Save(ctx, &models.Message{ChatRoomID: roomID, Content: "hi"}))

	assert.ErrorIs(t, svc.DeleteRoom(ctx, ids[1], roomID), ErrNotRoomCreator)

	_, err = store.Repos().Rooms.Get(ctx, roomID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, memberCount(t, store, roomID))
	n, err := store.Repos().Messages.CountForRoom(ctx, roomID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDeleteRoomCascades(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoomService(store)
	ids := seedUsers(t, store, "alice", "bob")

	roomID, err := svc.CreateRoom(ctx, ids[0], "general", 4)
	require.NoError(t, err)
	keepID, err := svc.CreateRoom(ctx, ids[0], "other", 4)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(ctx, roomID, ids[1]))
	require.NoError(t, store.Repos().Messages.Save(ctx, &models.Message{ChatRoomID: roomID, Content: "hi"}))

	require.NoError(t, svc.DeleteRoom(ctx, ids[0], roomID))

	_, err = store.Repos().Rooms.Get(ctx, roomID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Zero(t, memberCount(t, store, roomID))
	n, err := store.Repos().Messages.CountForRoom(ctx, roomID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.EqualValues(t, 1, memberCount(t, store, keepID))

	page, err := svc.ListRooms(ctx, repository.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Rooms, 1)
	assert.Equal(t, keepID, page.Rooms[0].ID)

	assert.ErrorIs(t, svc.DeleteRoom(ctx, ids[0], roomID), ErrRoomNotFound)
}

func TestOutRoom(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoomService(store)
	ids := seedUsers(t, store, "alice", "bob", "carol")

	roomID, err := svc.CreateRoom(ctx, ids[0], "general", 4)
	require.NoError(t, err)
	otherID, err := svc.CreateRoom(ctx, ids[2], "other", 4)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(ctx, roomID, ids[1]))
	require.NoError(t, svc.JoinRoom(ctx, otherID, ids[1]))

	require.NoError(t, svc.OutRoom(ctx, ids[1], roomID))
	assert.EqualValues(t, 1, memberCount(t, store, roomID))
	assert.EqualValues(t, 2, memberCount(t, store, otherID), "leaving one room must not touch another")

	assert.ErrorIs(t, svc.OutRoom(ctx, ids[1], roomID), ErrNotRoomMember)
	assert.ErrorIs(t, svc.OutRoom(ctx, ids[1], roomID+100), ErrRoomNotFound)
}

func TestOutRoomByCreatorDissolvesRoom(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoomService(store)
	ids := seedUsers(t, store, "alice", "bob")

	roomID, err := svc.CreateRoom(ctx, ids[0], "general", 4)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(ctx, roomID, ids[1]))

	require.NoError(t, svc.OutRoom(ctx, ids[0], roomID))

	_, err = store.Repos().Rooms.Get(ctx, roomID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	joined, err := svc.ListRoomsByMember(ctx, ids[1], repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, joined.Rooms)
}

func TestListRoomsPaginates(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewRoomService(store)
	ids := seedUsers(t, store, "alice", "bob")

	for i := 0; i < 5; i++ {
		_, err := svc.CreateRoom(ctx, ids[i%2], fmt.Sprintf("room-%d", i), 3)
		require.NoError(t, err)
	}

	first, err := svc.ListRooms(ctx, repository.NewPage(1, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 5, first.Total)
	require.Len(t, first.Rooms, 2)
	assert.Equal(t, "room-0", first.Rooms[0].Title)

	last, err := svc.ListRooms(ctx, repository.NewPage(3, 2))
	require.NoError(t, err)
	require.Len(t, last.Rooms, 1)
	assert.Equal(t, "room-4", last.Rooms[0].Title)

	bobs, err := svc.ListRoomsByCreator(ctx, ids[1], repository.NewPage(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 2, bobs.Total)

	beyond, err := svc.ListRooms(ctx, repository.NewPage(9, 2))
	require.NoError(t, err)
	assert.Empty(t, beyond.Rooms)
	assert.EqualValues(t, 5, beyond.Total)
}
