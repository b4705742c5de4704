package service

import (
	"context"
	"errors"
	"fmt"

	"newchat/backend/internal/models"
	"newchat/backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles signup, login and profile lookups.
type UserService struct {
	store repository.Store
	cost  int
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store, cost: bcrypt.DefaultCost}
}

// bcrypt ignores everything past 72 bytes, and newer versions reject it.
const maxPasswordBytes = 72

// SignUp registers a user. Nickname and email must both be unused.
func (s *UserService) SignUp(ctx context.Context, nickname, email, password string) (*models.User, error) {
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Nickname:     nickname,
		Email:        email,
		PasswordHash: string(hash),
	}
	err = s.store.Transaction(ctx, func(r repository.Repositories) error {
		_, err := r.Users.FindByNicknameOrEmail(ctx, nickname, email)
		switch {
		case err == nil:
			return ErrUserExists
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("look up user: %w", err)
		}

		err = r.Users.Create(ctx, user)
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrUserExists
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates by nickname or email.
func (s *UserService) Login(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.store.Repos().Users.FindByNicknameOrEmail(ctx, login, login)
	if err != nil {
		return nil, translate(err, ErrUserNotFound, "login %q", login)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.Repos().Users.Get(ctx, id)
	if err != nil {
		return nil, translate(err, ErrUserNotFound, "user %d", id)
	}
	return user, nil
}
