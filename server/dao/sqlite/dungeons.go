package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ashgrowen/grotto/server/dao"
	"github.com/google/uuid"
)

type DungeonsDB struct {
	db *sql.DB
}

func (repo *DungeonsDB) init() error {
	// owner has no FK; users live in a separate table file.
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS dungeons (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		markup TEXT NOT NULL,
		owner TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (repo *DungeonsDB) Create(ctx context.Context, d dao.Dungeon) (dao.Dungeon, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Dungeon{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO dungeons (id, name, markup, owner, created, modified) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Dungeon{}, wrapDBError(err)
	}

	now := time.Now()
	_, err = stmt.ExecContext(
		ctx,
		convertToDB_UUID(newUUID),
		d.Name,
		d.Markup,
		convertToDB_UUID(d.Owner),
		convertToDB_Time(now),
		convertToDB_Time(now),
	)
	if err != nil {
		return dao.Dungeon{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *DungeonsDB) GetAll(ctx context.Context) ([]dao.Dungeon, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, name, markup, owner, created, modified FROM dungeons;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Dungeon

	for rows.Next() {
		d, err := scanDungeon(rows.Scan)
		if err != nil {
			return all, err
		}
		all = append(all, d)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *DungeonsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Dungeon, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, name, markup, owner, created, modified FROM dungeons WHERE id = ?;`,
		convertToDB_UUID(id),
	)
	return scanDungeon(row.Scan)
}

func (repo *DungeonsDB) Update(ctx context.Context, id uuid.UUID, d dao.Dungeon) (dao.Dungeon, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE dungeons SET id=?, name=?, markup=?, owner=?, modified=? WHERE id=?;`,
		convertToDB_UUID(d.ID),
		d.Name,
		d.Markup,
		convertToDB_UUID(d.Owner),
		convertToDB_Time(time.Now()),
		convertToDB_UUID(id),
	)
	if err != nil {
		return dao.Dungeon{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Dungeon{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Dungeon{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, d.ID)
}

func (repo *DungeonsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Dungeon, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM dungeons WHERE id = ?`, convertToDB_UUID(id))
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func scanDungeon(scan func(...interface{}) error) (dao.Dungeon, error) {
	var d dao.Dungeon
	var id string
	var owner string
	var created int64
	var modified int64

	err := scan(
		&id,
		&d.Name,
		&d.Markup,
		&owner,
		&created,
		&modified,
	)
	if err != nil {
		return d, wrapDBError(err)
	}

	d.ID, err = convertFromDB_UUID(id, "id")
	if err != nil {
		return d, err
	}
	d.Owner, err = convertFromDB_UUID(owner, "owner")
	if err != nil {
		return d, err
	}
	d.Created = convertFromDB_Time(created)
	d.Modified = convertFromDB_Time(modified)

	return d, nil
}
