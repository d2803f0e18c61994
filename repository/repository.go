// Package repository holds the storage boundary for the service. Each
// store has a gorm implementation backed by PostgreSQL and an in-memory one
// used by tests and by STORAGE=memory.
package repository

import (
	"context"
	"errors"

	"splitfree/models"
)

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("record not found")

// EventRepository stores Events together with their Participants. Save
// inserts when the event id is zero and replaces the stored event otherwise;
// it assigns ids to the event and any new participants.
type EventRepository interface {
	Get(ctx context.Context, id uint) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	Save(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uint) error
}

type UserRepository interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByFriendCode(ctx context.Context, code string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
}

type GroupRepository interface {
	Get(ctx context.Context, id uint) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	// Save replaces the stored group's fields and member list.
	Save(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error
}

type FriendRepository interface {
	List(ctx context.Context) ([]models.Friend, error)
	Create(ctx context.Context, friend *models.Friend) error
	Delete(ctx context.Context, id uint) error
}

type FriendRequestRepository interface {
	Get(ctx context.Context, id uint) (*models.FriendRequest, error)
	List(ctx context.Context) ([]models.FriendRequest, error)
	Create(ctx context.Context, request *models.FriendRequest) error
	Save(ctx context.Context, request *models.FriendRequest) error
}

type PersonRepository interface {
	Get(ctx context.Context, id uint) (*models.Person, error)
	List(ctx context.Context) ([]models.Person, error)
	Create(ctx context.Context, person *models.Person) error
}

type ExpenseRepository interface {
	List(ctx context.Context) ([]models.Expense, error)
	Create(ctx context.Context, expense *models.Expense) error
}

// Store bundles every repository the service needs.
type Store struct {
	Events   EventRepository
	Users    UserRepository
	Groups   GroupRepository
	Friends  FriendRepository
	Requests FriendRequestRepository
	People   PersonRepository
	Expenses ExpenseRepository
}
