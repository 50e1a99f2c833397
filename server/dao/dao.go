// Package dao provides data access objects for use in the Grotto server.
package dao

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store holds all the repositories the server persists through. Both the
// in-memory and the sqlite datastores satisfy it.
type Store interface {
	Users() UserRepository
	Dungeons() DungeonRepository
	Sessions() SessionRepository

	// Close closes all of the repositories in the store.
	Close() error
}

type UserRepository interface {

	// Create creates a new User. All attributes except for auto-generated
	// fields are taken from the provided User.
	Create(ctx context.Context, user User) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
}

type DungeonRepository interface {

	// Create creates a new Dungeon. All attributes except for auto-generated
	// fields are taken from the provided Dungeon.
	Create(ctx context.Context, d Dungeon) (Dungeon, error)
	GetAll(ctx context.Context) ([]Dungeon, error)
	GetByID(ctx context.Context, id uuid.UUID) (Dungeon, error)
	Update(ctx context.Context, id uuid.UUID, d Dungeon) (Dungeon, error)
	Delete(ctx context.Context, id uuid.UUID) (Dungeon, error)
}

type SessionRepository interface {

	// Create creates a new Session. All attributes except for auto-generated
	// fields are taken from the provided Session.
	Create(ctx context.Context, s Session) (Session, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)
	Update(ctx context.Context, id uuid.UUID, s Session) (Session, error)
	Delete(ctx context.Context, id uuid.UUID) (Session, error)
}

type Role int

const (
	Guest Role = iota
	Unverified
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Unverified:
		return "unverified"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

func ParseRole(s string) (Role, error) {
	check := strings.ToLower(s)
	switch check {
	case "guest":
		return Guest, nil
	case "unverified":
		return Unverified, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'unverified', 'normal', or 'admin'")
	}
}

type User struct {
	ID             uuid.UUID
	Username       string
	Password       string
	Email          *mail.Address
	Role           Role
	Created        time.Time
	Modified       time.Time
	LastLogoutTime time.Time
}

// Dungeon is an uploaded adventure. Markup is the raw dungeon text exactly
// as the author sent it; it is parsed fresh whenever a session plays it.
type Dungeon struct {
	ID       uuid.UUID
	Name     string
	Markup   string
	Owner    uuid.UUID
	Created  time.Time
	Modified time.Time
}

// Session is one player's saved run through a dungeon.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	DungeonID uuid.UUID
	State     PlayState
	Created   time.Time
	Modified  time.Time
}
