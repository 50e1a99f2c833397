// Package inmem provides an entirely in-memory implementation of the Grotto
// server's datastore. Everything in it is lost when the server exits; it
// exists so the server can run without a persistence directory.
package inmem

import (
	"github.com/ashgrowen/grotto/server/dao"
)

type store struct {
	users    *UsersRepo
	dungeons *DungeonsRepo
	sessions *SessionsRepo
}

func NewDatastore() dao.Store {
	return &store{
		users:    NewUsersRepo(),
		dungeons: NewDungeonsRepo(),
		sessions: NewSessionsRepo(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Dungeons() dao.DungeonRepository {
	return s.dungeons
}

func (s *store) Sessions() dao.SessionRepository {
	return s.sessions
}

func (s *store) Close() error {
	return nil
}
