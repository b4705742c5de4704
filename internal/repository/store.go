package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of a gorm connection.
type GormStore struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewStore wraps db. lockTimeout bounds GetForUpdate waits on PostgreSQL.
func NewStore(db *gorm.DB, lockTimeout time.Duration) *GormStore {
	return &GormStore{db: db, lockTimeout: lockTimeout}
}

func (s *GormStore) Repos() Repositories {
	return s.bind(s.db)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.bind(tx))
	})
}

func (s *GormStore) bind(db *gorm.DB) Repositories {
	return Repositories{
		Rooms:       &roomRepository{db: db, lockTimeout: s.lockTimeout},
		Memberships: &membershipRepository{db: db},
		Users:       &userRepository{db: db, lockTimeout: s.lockTimeout},
		Messages:    &messageRepository{db: db},
		Friends:     &friendRepository{db: db},
	}
}

// forUpdate makes the next query on db lock the rows it reads. SQLite has no
// row locks; its writers are already serialized by the database lock.
func forUpdate(db *gorm.DB, lockTimeout time.Duration) (*gorm.DB, error) {
	if db.Dialector.Name() == "sqlite" {
		return db, nil
	}
	if db.Dialector.Name() == "postgres" && lockTimeout > 0 {
		// SET LOCAL only lasts until the end of the current transaction.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeout.Milliseconds())
		if err := db.Exec(stmt).Error; err != nil {
			return nil, translateError(err)
		}
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"}), nil
}
