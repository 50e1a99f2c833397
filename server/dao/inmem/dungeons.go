package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/ashgrowen/grotto/internal/util"
	"github.com/ashgrowen/grotto/server/dao"
	"github.com/google/uuid"
)

func NewDungeonsRepo() *DungeonsRepo {
	return &DungeonsRepo{
		dungeons: make(map[uuid.UUID]dao.Dungeon),
	}
}

type DungeonsRepo struct {
	dungeons map[uuid.UUID]dao.Dungeon
}

func (repo *DungeonsRepo) Create(ctx context.Context, d dao.Dungeon) (dao.Dungeon, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Dungeon{}, fmt.Errorf("could not generate ID: %w", err)
	}

	d.ID = newUUID

	now := time.Now()
	d.Created = now
	d.Modified = now

	repo.dungeons[d.ID] = d

	return d, nil
}

func (repo *DungeonsRepo) GetAll(ctx context.Context) ([]dao.Dungeon, error) {
	all := make([]dao.Dungeon, 0, len(repo.dungeons))

	for k := range repo.dungeons {
		all = append(all, repo.dungeons[k])
	}

	all = util.SortBy(all, func(l, r dao.Dungeon) bool {
		return l.ID.String() < r.ID.String()
	})

	return all, nil
}

func (repo *DungeonsRepo) GetByID(ctx context.Context, id uuid.UUID) (dao.Dungeon, error) {
	d, ok := repo.dungeons[id]
	if !ok {
		return dao.Dungeon{}, dao.ErrNotFound
	}
	return d, nil
}

func (repo *DungeonsRepo) Update(ctx context.Context, id uuid.UUID, d dao.Dungeon) (dao.Dungeon, error) {
	if _, ok := repo.dungeons[id]; !ok {
		return dao.Dungeon{}, dao.ErrNotFound
	}

	if d.ID != id {
		// that's okay but we need to check it
		if _, ok := repo.dungeons[d.ID]; ok {
			return dao.Dungeon{}, dao.ErrConstraintViolation
		}
	}

	d.Modified = time.Now()
	repo.dungeons[d.ID] = d
	if d.ID != id {
		delete(repo.dungeons, id)
	}

	return d, nil
}

func (repo *DungeonsRepo) Delete(ctx context.Context, id uuid.UUID) (dao.Dungeon, error) {
	d, ok := repo.dungeons[id]
	if !ok {
		return dao.Dungeon{}, dao.ErrNotFound
	}

	delete(repo.dungeons, id)

	return d, nil
}
