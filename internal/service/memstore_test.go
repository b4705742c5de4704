package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"newchat/backend/internal/models"
	"newchat/backend/internal/repository"
)

// memStore is an in-memory repository.Store with real per-row locks, so the
// services' locking can be exercised without PostgreSQL. Transactions keep an
// undo log and roll back when fn fails.
type memStore struct {
	mu          sync.Mutex
	lockTimeout time.Duration
	nextID      uint

	users     map[uint]models.User
	rooms     map[uint]models.ChatRoom
	seats     map[uint]models.UserChatRoom
	messages  map[uint]models.Message
	relations map[[2]uint]models.UserRelation
	locks     map[string]chan struct{}
}

func newMemStore() *memStore {
	return &memStore{
		lockTimeout: 5 * time.Second,
		users:       map[uint]models.User{},
		rooms:       map[uint]models.ChatRoom{},
		seats:       map[uint]models.UserChatRoom{},
		messages:    map[uint]models.Message{},
		relations:   map[[2]uint]models.UserRelation{},
		locks:       map[string]chan struct{}{},
	}
}

func (s *memStore) Repos() repository.Repositories {
	return (&memTx{s: s, auto: true}).repos()
}

func (s *memStore) Transaction(ctx context.Context, fn func(repository.Repositories) error) error {
	tx := &memTx{s: s}
	defer tx.release()

	err := fn(tx.repos())
	if err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
	}
	return err
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

type memTx struct {
	s    *memStore
	auto bool
	held []chan struct{}
	undo []func()
}

func (tx *memTx) repos() repository.Repositories {
	return repository.Repositories{
		Rooms:       memRooms{tx},
		Memberships: memSeats{tx},
		Users:       memUsers{tx},
		Messages:    memMessages{tx},
		Friends:     memFriends{tx},
	}
}

// record must be called with s.mu held.
func (tx *memTx) record(undo func()) {
	if !tx.auto {
		tx.undo = append(tx.undo, undo)
	}
}

// lock takes the row lock named key, e.g. "room:1", until the transaction
// ends.
func (tx *memTx) lock(ctx context.Context, key string) error {
	tx.s.mu.Lock()
	ch, ok := tx.s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		tx.s.locks[key] = ch
	}
	tx.s.mu.Unlock()

	for _, h := range tx.held {
		if h == ch {
			return nil
		}
	}

	timer := time.NewTimer(tx.s.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
	case <-timer.C:
		return repository.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	if tx.auto {
		<-ch
		return nil
	}
	tx.held = append(tx.held, ch)
	return nil
}

func (tx *memTx) release() {
	for _, ch := range tx.held {
		<-ch
	}
	tx.held = nil
}

func paginate[T any](items []T, page repository.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+page.Size, len(items))
	return items[start:end]
}

type memRooms struct{ tx *memTx }

func (r memRooms) Get(_ context.Context, id uint) (*models.ChatRoom, error) {
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	room, ok := r.tx.s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &room, nil
}

func (r memRooms) GetForUpdate(ctx context.Context, id uint) (*models.ChatRoom, error) {
	if err := r.tx.lock(ctx, fmt.Sprintf("room:%d", id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r memRooms) Save(_ context.Context, room *models.ChatRoom) error {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.ID == 0 {
		room.ID = s.id()
	}
	prev, existed := s.rooms[room.ID]
	s.rooms[room.ID] = *room
	id := room.ID
	r.tx.record(func() {
		if existed {
			s.rooms[id] = prev
		} else {
			delete(s.rooms, id)
		}
	})
	return nil
}

func (r memRooms) Delete(_ context.Context, id uint) error {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.rooms[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.rooms, id)
	r.tx.record(func() { s.rooms[id] = prev })
	return nil
}

func (r memRooms) ListAll(_ context.Context, page repository.Page) ([]models.ChatRoom, int64, error) {
	return r.list(page, func(models.ChatRoom) bool { return true })
}

func (r memRooms) ListByCreator(_ context.Context, userID uint, page repository.Page) ([]models.ChatRoom, int64, error) {
	return r.list(page, func(room models.ChatRoom) bool { return room.CreatorID == userID })
}

func (r memRooms) ListByMember(_ context.Context, userID uint, page repository.Page) ([]models.ChatRoom, int64, error) {
	r.tx.s.mu.Lock()
	joined := map[uint]bool{}
	for _, seat := range r.tx.s.seats {
		if seat.UserID == userID {
			joined[seat.ChatRoomID] = true
		}
	}
	r.tx.s.mu.Unlock()
	return r.list(page, func(room models.ChatRoom) bool { return joined[room.ID] })
}

func (r memRooms) list(page repository.Page, keep func(models.ChatRoom) bool) ([]models.ChatRoom, int64, error) {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[uint]int64{}
	for _, seat := range s.seats {
		counts[seat.ChatRoomID]++
	}
	var rooms []models.ChatRoom
	for _, room := range s.rooms {
		if keep(room) {
			room.MemberCount = counts[room.ID]
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return paginate(rooms, page), int64(len(rooms)), nil
}

type memSeats struct{ tx *memTx }

func (r memSeats) CountForRoom(ctx context.Context, roomID uint) (int64, error) {
	return r.CountForRoomNonLocking(ctx, roomID)
}

func (r memSeats) CountForRoomNonLocking(_ context.Context, roomID uint) (int64, error) {
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	var n int64
	for _, seat := range r.tx.s.seats {
		if seat.ChatRoomID == roomID {
			n++
		}
	}
	return n, nil
}

func (r memSeats) ListUserIDsForRoom(_ context.Context, roomID uint) ([]uint, error) {
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	var ids []uint
	for _, seat := range r.tx.s.seats {
		if seat.ChatRoomID == roomID {
			ids = append(ids, seat.UserID)
		}
	}
	return ids, nil
}

func (r memSeats) Save(_ context.Context, membership *models.UserChatRoom) error {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seat := range s.seats {
		if seat.UserID == membership.UserID && seat.ChatRoomID == membership.ChatRoomID {
			return repository.ErrDuplicate
		}
	}
	membership.ID = s.id()
	membership.CreatedAt = time.Now()
	s.seats[membership.ID] = *membership
	id := membership.ID
	r.tx.record(func() { delete(s.seats, id) })
	return nil
}

func (r memSeats) DeleteByRoom(_ context.Context, roomID uint) error {
	r.deleteWhere(func(seat models.UserChatRoom) bool { return seat.ChatRoomID == roomID })
	return nil
}

func (r memSeats) DeleteByUser(_ context.Context, userID uint) error {
	r.deleteWhere(func(seat models.UserChatRoom) bool { return seat.UserID == userID })
	return nil
}

func (r memSeats) DeleteByUserAndRoom(_ context.Context, userID, roomID uint) (int64, error) {
	n := r.deleteWhere(func(seat models.UserChatRoom) bool {
		return seat.UserID == userID && seat.ChatRoomID == roomID
	})
	return n, nil
}

func (r memSeats) deleteWhere(match func(models.UserChatRoom) bool) int64 {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []models.UserChatRoom
	for id, seat := range s.seats {
		if match(seat) {
			removed = append(removed, seat)
			delete(s.seats, id)
		}
	}
	r.tx.record(func() {
		for _, seat := range removed {
			s.seats[seat.ID] = seat
		}
	})
	return int64(len(removed))
}

type memUsers struct{ tx *memTx }

func (r memUsers) Get(_ context.Context, id uint) (*models.User, error) {
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	user, ok := r.tx.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r memUsers) GetForUpdate(ctx context.Context, id uint) (*models.User, error) {
	if err := r.tx.lock(ctx, fmt.Sprintf("user:%d", id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r memUsers) Create(_ context.Context, user *models.User) error {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Nickname == user.Nickname || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = s.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	id := user.ID
	r.tx.record(func() { delete(s.users, id) })
	return nil
}

func (r memUsers) FindByNicknameOrEmail(_ context.Context, nickname, email string) (*models.User, error) {
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	for _, u := range r.tx.s.users {
		if u.Nickname == nickname || u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memMessages struct{ tx *memTx }

func (r memMessages) Save(_ context.Context, message *models.Message) error {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	message.ID = s.id()
	s.messages[message.ID] = *message
	id := message.ID
	r.tx.record(func() { delete(s.messages, id) })
	return nil
}

func (r memMessages) CountForRoom(_ context.Context, roomID uint) (int64, error) {
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	var n int64
	for _, m := range r.tx.s.messages {
		if m.ChatRoomID == roomID {
			n++
		}
	}
	return n, nil
}

func (r memMessages) DeleteByRoom(_ context.Context, roomID uint) error {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []models.Message
	for id, m := range s.messages {
		if m.ChatRoomID == roomID {
			removed = append(removed, m)
			delete(s.messages, id)
		}
	}
	r.tx.record(func() {
		for _, m := range removed {
			s.messages[m.ID] = m
		}
	})
	return nil
}

type memFriends struct{ tx *memTx }

func (r memFriends) Find(_ context.Context, fromUserID, toUserID uint) (*models.UserRelation, error) {
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	rel, ok := r.tx.s.relations[[2]uint{fromUserID, toUserID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rel, nil
}

func (r memFriends) Create(_ context.Context, relation *models.UserRelation) error {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uint{relation.FromUserID, relation.ToUserID}
	if _, ok := s.relations[key]; ok {
		return repository.ErrDuplicate
	}
	s.relations[key] = *relation
	r.tx.record(func() { delete(s.relations, key) })
	return nil
}

func (r memFriends) UpdateStatus(_ context.Context, fromUserID, toUserID uint, status models.FriendshipStatus) error {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uint{fromUserID, toUserID}
	prev, ok := s.relations[key]
	if !ok {
		return repository.ErrNotFound
	}
	next := prev
	next.Status = status
	s.relations[key] = next
	r.tx.record(func() { s.relations[key] = prev })
	return nil
}

func (r memFriends) Delete(_ context.Context, fromUserID, toUserID uint, status models.FriendshipStatus) error {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uint{fromUserID, toUserID}
	prev, ok := s.relations[key]
	if !ok || prev.Status != status {
		return repository.ErrNotFound
	}
	delete(s.relations, key)
	r.tx.record(func() { s.relations[key] = prev })
	return nil
}

func (r memFriends) CountFriends(_ context.Context, userID uint) (int64, error) {
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	var n int64
	for key, rel := range r.tx.s.relations {
		if rel.Status == models.StatusAccepted && (key[0] == userID || key[1] == userID) {
			n++
		}
	}
	return n, nil
}

func (r memFriends) CountPendingSent(_ context.Context, userID uint) (int64, error) {
	r.tx.s.mu.Lock()
	defer r.tx.s.mu.Unlock()
	var n int64
	for key, rel := range r.tx.s.relations {
		if rel.Status == models.StatusPending && key[0] == userID {
			n++
		}
	}
	return n, nil
}

func (r memFriends) ListFriends(_ context.Context, userID uint, page repository.Page) ([]models.User, int64, error) {
	s := r.tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var friends []models.User
	for key, rel := range s.relations {
		if rel.Status != models.StatusAccepted {
			continue
		}
		switch userID {
		case key[0]:
			friends = append(friends, s.users[key[1]])
		case key[1]:
			friends = append(friends, s.users[key[0]])
		}
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i].Nickname < friends[j].Nickname })
	return paginate(friends, page), int64(len(friends)), nil
}
