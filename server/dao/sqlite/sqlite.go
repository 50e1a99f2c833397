// Package sqlite provides a sqlite-backed implementation of the Grotto
// server's datastore. User accounts and play sessions live in one DB file
// and uploaded dungeons in another, so a content refresh can ship a new
// dungeons file without touching account data.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"path/filepath"
	"time"

	"github.com/ashgrowen/grotto/server/dao"
	"github.com/google/uuid"
	"modernc.org/sqlite"
)

type store struct {
	dbFilename        string
	dungeonDBFilename string

	db        *sql.DB
	dungeonDB *sql.DB

	users    *UsersDB
	dungeons *DungeonsDB
	sessions *SessionsDB
}

func NewDatastore(storageDir string) (dao.Store, error) {
	st := &store{
		dbFilename:        "data.db",
		dungeonDBFilename: "dungeons.db",
	}

	fileName := filepath.Join(storageDir, st.dbFilename)
	dungeonFileName := filepath.Join(storageDir, st.dungeonDBFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}
	st.dungeonDB, err = sql.Open("sqlite", dungeonFileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st.dungeons = &DungeonsDB{db: st.dungeonDB}
	if err := st.dungeons.init(); err != nil {
		return nil, err
	}

	st.users = &UsersDB{db: st.db}
	if err := st.users.init(); err != nil {
		return nil, err
	}

	st.sessions = &SessionsDB{db: st.db}
	if err := st.sessions.init(true); err != nil {
		return nil, err
	}

	return st, nil
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
	dungeonDBErr := s.dungeonDB.Close()
	mainDBErr := s.db.Close()

	var err error
	if dungeonDBErr != nil {
		err = fmt.Errorf("%s: %w", s.dungeonDBFilename, dungeonDBErr)
	}
	if mainDBErr != nil {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally: %s: %w", err.Error(), s.dbFilename, mainDBErr)
		} else {
			err = fmt.Errorf("%s: %w", s.dbFilename, mainDBErr)
		}
	}
	return err
}

func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return dao.ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	} else if errors.Is(err, sql.ErrNoRows) {
		return dao.ErrNotFound
	}
	return err
}

func convertToDB_UUID(id uuid.UUID) string {
	return id.String()
}

func convertFromDB_UUID(s string, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return id, fmt.Errorf("%s: stored UUID %q is invalid: %w", field, s, dao.ErrDecodingFailure)
	}
	return id, nil
}

func convertToDB_Time(t time.Time) int64 {
	return t.Unix()
}

func convertFromDB_Time(unix int64) time.Time {
	return time.Unix(unix, 0)
}

func convertToDB_Email(email *mail.Address) string {
	if email == nil {
		return ""
	}
	return email.Address
}

func convertFromDB_Email(s string) (*mail.Address, error) {
	if s == "" {
		return nil, nil
	}
	email, err := mail.ParseAddress(s)
	if err != nil {
		return nil, fmt.Errorf("email: stored value %q is invalid: %w", s, dao.ErrDecodingFailure)
	}
	return email, nil
}

func convertToDB_Role(r dao.Role) string {
	return r.String()
}

func convertFromDB_Role(s string) (dao.Role, error) {
	r, err := dao.ParseRole(s)
	if err != nil {
		return r, fmt.Errorf("role: stored value %q is invalid: %w", s, dao.ErrDecodingFailure)
	}
	return r, nil
}
