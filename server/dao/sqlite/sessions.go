package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ashgrowen/grotto/server/dao"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
)

type SessionsDB struct {
	db *sql.DB
}

func (repo *SessionsDB) init(fk bool) error {
	// dungeon_id has no FK even when fk is set; dungeons live in a separate
	// table file.
	stmt := `CREATE TABLE IF NOT EXISTS sessions (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		dungeon_id TEXT NOT NULL,
		state TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *SessionsDB) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO sessions (id, user_id, dungeon_id, state, created, modified) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}

	now := time.Now()
	_, err = stmt.ExecContext(
		ctx,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(s.UserID),
		convertToDB_UUID(s.DungeonID),
		convertToDB_PlayState(s.State),
		convertToDB_Time(now),
		convertToDB_Time(now),
	)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *SessionsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, dungeon_id, state, created, modified FROM sessions WHERE user_id = ?;`,
		convertToDB_UUID(userID),
	)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Session

	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return all, err
		}
		all = append(all, s)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *SessionsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, user_id, dungeon_id, state, created, modified FROM sessions WHERE id = ?;`,
		convertToDB_UUID(id),
	)
	return scanSession(row.Scan)
}

func (repo *SessionsDB) Update(ctx context.Context, id uuid.UUID, s dao.Session) (dao.Session, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE sessions SET id=?, user_id=?, dungeon_id=?, state=?, modified=? WHERE id=?;`,
		convertToDB_UUID(s.ID),
		convertToDB_UUID(s.UserID),
		convertToDB_UUID(s.DungeonID),
		convertToDB_PlayState(s.State),
		convertToDB_Time(time.Now()),
		convertToDB_UUID(id),
	)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Session{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, s.ID)
}

func (repo *SessionsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, convertToDB_UUID(id))
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

func scanSession(scan func(...interface{}) error) (dao.Session, error) {
	var s dao.Session
	var id string
	var userID string
	var dungeonID string
	var encState string
	var created int64
	var modified int64

	err := scan(
		&id,
		&userID,
		&dungeonID,
		&encState,
		&created,
		&modified,
	)
	if err != nil {
		return s, wrapDBError(err)
	}

	s.ID, err = convertFromDB_UUID(id, "id")
	if err != nil {
		return s, err
	}
	s.UserID, err = convertFromDB_UUID(userID, "user_id")
	if err != nil {
		return s, err
	}
	s.DungeonID, err = convertFromDB_UUID(dungeonID, "dungeon_id")
	if err != nil {
		return s, err
	}
	s.State, err = convertFromDB_PlayState(encState)
	if err != nil {
		return s, fmt.Errorf("stored state for %s is invalid: %w", s.ID.String(), err)
	}
	s.Created = convertFromDB_Time(created)
	s.Modified = convertFromDB_Time(modified)

	return s, nil
}

// convertToDB_PlayState stores the state REZI-encoded and base64'd so it fits
// in a TEXT column.
func convertToDB_PlayState(ps dao.PlayState) string {
	stateData := rezi.EncBinary(ps)
	return base64.StdEncoding.EncodeToString(stateData)
}

func convertFromDB_PlayState(enc string) (dao.PlayState, error) {
	var ps dao.PlayState

	stateData, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return ps, dao.ErrDecodingFailure
	}
	if _, err := rezi.DecBinary(stateData, &ps); err != nil {
		return ps, dao.ErrDecodingFailure
	}

	return ps, nil
}
