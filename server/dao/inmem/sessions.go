package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/ashgrowen/grotto/internal/util"
	"github.com/ashgrowen/grotto/server/dao"
	"github.com/google/uuid"
)

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{
		sessions: make(map[uuid.UUID]dao.Session),
	}
}

type SessionsRepo struct {
	sessions map[uuid.UUID]dao.Session
}

func (repo *SessionsRepo) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	s.ID = newUUID

	now := time.Now()
	s.Created = now
	s.Modified = now

	repo.sessions[s.ID] = s

	return s, nil
}

func (repo *SessionsRepo) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	var all []dao.Session

	for k := range repo.sessions {
		if repo.sessions[k].UserID == userID {
			all = append(all, repo.sessions[k])
		}
	}

	all = util.SortBy(all, func(l, r dao.Session) bool {
		return l.ID.String() < r.ID.String()
	})

	return all, nil
}

func (repo *SessionsRepo) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, ok := repo.sessions[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}
	return s, nil
}

func (repo *SessionsRepo) Update(ctx context.Context, id uuid.UUID, s dao.Session) (dao.Session, error) {
	if _, ok := repo.sessions[id]; !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	if s.ID != id {
		// that's okay but we need to check it
		if _, ok := repo.sessions[s.ID]; ok {
			return dao.Session{}, dao.ErrConstraintViolation
		}
	}

	s.Modified = time.Now()
	repo.sessions[s.ID] = s
	if s.ID != id {
		delete(repo.sessions, id)
	}

	return s, nil
}

func (repo *SessionsRepo) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, ok := repo.sessions[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	delete(repo.sessions, id)

	return s, nil
}
