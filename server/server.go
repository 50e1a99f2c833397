// Package server provides an HTTP REST server that hosts Grotto dungeons
// and associated resources: user accounts, uploaded dungeon markup, and
// saved play sessions that advance one choice per request.
//
//	POST   /api/v1/login                  - log in and receive a fresh token
//	DELETE /api/v1/login/{id}             - log out, invalidating issued tokens
//	POST   /api/v1/tokens                 - refresh the token (auth required)
//	POST   /api/v1/users                  - create a user (admin only)
//	GET    /api/v1/users                  - list users (auth required)
//	GET    /api/v1/users/{id}             - get a user (auth required)
//	DELETE /api/v1/users/{id}             - delete a user (self or admin)
//	POST   /api/v1/dungeons               - upload dungeon markup; the response
//	                                        carries every problem the parser
//	                                        found in it (auth required)
//	GET    /api/v1/dungeons               - list dungeons
//	GET    /api/v1/dungeons/{id}          - get a dungeon
//	DELETE /api/v1/dungeons/{id}          - delete a dungeon (owner or admin)
//	POST   /api/v1/sessions               - start playing a dungeon (auth required)
//	GET    /api/v1/sessions/{id}          - the current scene (owner or admin)
//	POST   /api/v1/sessions/{id}/choices  - take a choice and advance (owner or admin)
//	DELETE /api/v1/sessions/{id}          - abandon a session (owner or admin)
//	GET    /api/v1/info                   - version info on the server and engine
package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"time"

	"github.com/ashgrowen/grotto/internal/dungeon"
	"github.com/ashgrowen/grotto/server/dao"
	"github.com/ashgrowen/grotto/server/dao/inmem"
	"github.com/ashgrowen/grotto/server/dao/sqlite"
	"github.com/ashgrowen/grotto/server/serr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// GrottoServer is an HTTP REST server that serves Grotto dungeons and play
// sessions. The zero-value of a GrottoServer should not be used directly;
// call New() to get one ready for use.
type GrottoServer struct {
	router        http.Handler
	db            dao.Store
	unauthedDelay time.Duration
	jwtSecret     []byte
}

// New creates a new GrottoServer that uses the given JWT secret for securing
// logins. If dbPath is non-empty it is the directory holding the sqlite DB
// files; if empty, everything is kept in memory and lost on exit.
func New(tokenSecret []byte, dbPath string) (GrottoServer, error) {
	gs := GrottoServer{
		jwtSecret:     tokenSecret,
		unauthedDelay: time.Second,
	}

	var err error
	if dbPath != "" {
		gs.db, err = sqlite.NewDatastore(dbPath)
		if err != nil {
			return gs, err
		}
	} else {
		gs.db = inmem.NewDatastore()
	}

	gs.router = newRouter(&gs)

	return gs, nil
}

// ServeForever begins listening on the given address and port for HTTP REST
// client requests. If address is kept as "", it will default to "localhost".
// If port is less than 1, it will default to 8080.
func (gs GrottoServer) ServeForever(address string, port int) {
	if address == "" {
		address = "localhost"
	}
	if port < 1 {
		port = 8080
	}

	listenAddress := fmt.Sprintf("%s:%d", address, port)
	log.Printf("INFO  Listening on %s", listenAddress)
	log.Fatalf("FATAL %v", http.ListenAndServe(listenAddress, gs.router))
}

// Login verifies the provided username and password against the existing
// user in persistence and returns that user if they match.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the credentials do not
// match a user or if the password is incorrect, it will match
// serr.ErrBadCredentials. If the error occured due to an unexpected problem
// with the DB, it will match serr.ErrDB.
func (gs GrottoServer) Login(ctx context.Context, username string, password string) (dao.User, error) {
	user, err := gs.db.Users().GetByUsername(ctx, username)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	// verify password
	bcryptHash, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil {
		return dao.User{}, err
	}

	err = bcrypt.CompareHashAndPassword(bcryptHash, []byte(password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	return user, nil
}

// Logout marks the user with the given ID as having logged out, invalidating
// any login that may be active. Returns the user entity that was logged out.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the user doesn't exist,
// it will match serr.ErrNotFound. If the error occured due to an unexpected
// problem with the DB, it will match serr.ErrDB.
func (gs GrottoServer) Logout(ctx context.Context, who uuid.UUID) (dao.User, error) {
	existing, err := gs.db.Users().GetByID(ctx, who)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.New("could not retrieve user", err, serr.ErrDB)
	}

	existing.LastLogoutTime = time.Now()

	updated, err := gs.db.Users().Update(ctx, existing.ID, existing)
	if err != nil {
		return dao.User{}, serr.New("could not update user", err, serr.ErrDB)
	}

	return updated, nil
}

// CreateUser creates a new user with the given username, password, and email
// combo. Returns the newly-created user as it exists after creation.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If a user with that username
// is already present, it will match serr.ErrAlreadyExists. If the error
// occured due to an unexpected problem with the DB, it will match serr.ErrDB.
// Finally, if one of the arguments is invalid, it will match
// serr.ErrBadArgument.
func (gs GrottoServer) CreateUser(ctx context.Context, username, password, email string, role dao.Role) (dao.User, error) {
	var err error
	if username == "" {
		return dao.User{}, serr.New("username cannot be blank", serr.ErrBadArgument)
	}
	if password == "" {
		return dao.User{}, serr.New("password cannot be blank", serr.ErrBadArgument)
	}

	var storedEmail *mail.Address
	if email != "" {
		storedEmail, err = mail.ParseAddress(email)
		if err != nil {
			return dao.User{}, serr.New("email is not valid", err, serr.ErrBadArgument)
		}
	}

	_, err = gs.db.Users().GetByUsername(ctx, username)
	if err == nil {
		return dao.User{}, serr.New("a user with that username already exists", serr.ErrAlreadyExists)
	} else if err != dao.ErrNotFound {
		return dao.User{}, serr.WrapDB("", err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return dao.User{}, serr.New("password is too long", err, serr.ErrBadArgument)
		} else {
			return dao.User{}, serr.New("password could not be encrypted", err)
		}
	}

	storedPass := base64.StdEncoding.EncodeToString(passHash)

	newUser := dao.User{
		Username: username,
		Password: storedPass,
		Email:    storedEmail,
		Role:     role,
	}

	user, err := gs.db.Users().Create(ctx, newUser)
	if err != nil {
		if err == dao.ErrConstraintViolation {
			return dao.User{}, serr.ErrAlreadyExists
		}
		return dao.User{}, serr.New("could not create user", err, serr.ErrDB)
	}

	return user, nil
}

// GetUser returns the user with the given ID.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no user with that ID
// exists, it will match serr.ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB.
func (gs GrottoServer) GetUser(ctx context.Context, id uuid.UUID) (dao.User, error) {
	user, err := gs.db.Users().GetByID(ctx, id)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.New("could not get user", err, serr.ErrDB)
	}

	return user, nil
}

// GetAllUsers returns all users currently in persistence.
func (gs GrottoServer) GetAllUsers(ctx context.Context) ([]dao.User, error) {
	users, err := gs.db.Users().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}

	return users, nil
}

// DeleteUser deletes the user with the given ID. It returns the deleted user
// just after they were deleted.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no user with that ID
// exists, it will match serr.ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB.
func (gs GrottoServer) DeleteUser(ctx context.Context, id uuid.UUID) (dao.User, error) {
	user, err := gs.db.Users().Delete(ctx, id)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.New("could not delete user", err, serr.ErrDB)
	}

	return user, nil
}

// CreateDungeon stores uploaded dungeon markup under the given owner. The
// markup is parsed once here so the problems the parser found can be
// reported back to the author; the dungeon is stored and playable even with
// problems in it.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the markup has no rooms
// at all or the name is blank, it will match serr.ErrBadArgument. If the
// error occured due to an unexpected problem with the DB, it will match
// serr.ErrDB.
func (gs GrottoServer) CreateDungeon(ctx context.Context, owner uuid.UUID, name, markup string) (dao.Dungeon, []dungeon.Problem, error) {
	if name == "" {
		return dao.Dungeon{}, nil, serr.New("name cannot be blank", serr.ErrBadArgument)
	}
	if markup == "" {
		return dao.Dungeon{}, nil, serr.New("markup cannot be blank", serr.ErrBadArgument)
	}

	doc, problems := dungeon.Parse(markup)
	if len(doc.Rooms()) == 0 {
		return dao.Dungeon{}, problems, serr.New("markup contains no rooms", serr.ErrBadArgument)
	}

	d, err := gs.db.Dungeons().Create(ctx, dao.Dungeon{
		Name:   name,
		Markup: markup,
		Owner:  owner,
	})
	if err != nil {
		return dao.Dungeon{}, problems, serr.New("could not store dungeon", err, serr.ErrDB)
	}

	return d, problems, nil
}

// GetDungeon returns the dungeon with the given ID, along with the problems
// its markup currently parses with.
func (gs GrottoServer) GetDungeon(ctx context.Context, id uuid.UUID) (dao.Dungeon, []dungeon.Problem, error) {
	d, err := gs.db.Dungeons().GetByID(ctx, id)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.Dungeon{}, nil, serr.ErrNotFound
		}
		return dao.Dungeon{}, nil, serr.New("could not get dungeon", err, serr.ErrDB)
	}

	_, problems := dungeon.Parse(d.Markup)
	return d, problems, nil
}

// GetAllDungeons returns all dungeons currently in persistence.
func (gs GrottoServer) GetAllDungeons(ctx context.Context) ([]dao.Dungeon, error) {
	ds, err := gs.db.Dungeons().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}

	return ds, nil
}

// DeleteDungeon deletes the dungeon with the given ID on behalf of who. Only
// the owner and admins may delete a dungeon.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no dungeon with that ID
// exists, it will match serr.ErrNotFound. If who may not delete it, it will
// match serr.ErrPermissions. If the error occured due to an unexpected
// problem with the DB, it will match serr.ErrDB.
func (gs GrottoServer) DeleteDungeon(ctx context.Context, id uuid.UUID, who dao.User) (dao.Dungeon, error) {
	d, err := gs.db.Dungeons().GetByID(ctx, id)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.Dungeon{}, serr.ErrNotFound
		}
		return dao.Dungeon{}, serr.New("could not get dungeon", err, serr.ErrDB)
	}

	if d.Owner != who.ID && who.Role != dao.Admin {
		return dao.Dungeon{}, serr.ErrPermissions
	}

	deleted, err := gs.db.Dungeons().Delete(ctx, id)
	if err != nil {
		return dao.Dungeon{}, serr.New("could not delete dungeon", err, serr.ErrDB)
	}

	return deleted, nil
}

// CreateSession starts a new play session through the given dungeon for the
// given user and runs it up to its first choice. It returns the stored
// session and the scene the player now sees.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no dungeon with that ID
// exists, it will match serr.ErrNotFound. If the dungeon cannot start, it
// will match serr.ErrBadArgument. If the error occured due to an unexpected
// problem with the DB, it will match serr.ErrDB.
func (gs GrottoServer) CreateSession(ctx context.Context, userID, dungeonID uuid.UUID) (dao.Session, ViewModel, error) {
	d, err := gs.db.Dungeons().GetByID(ctx, dungeonID)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.Session{}, ViewModel{}, serr.ErrNotFound
		}
		return dao.Session{}, ViewModel{}, serr.New("could not get dungeon", err, serr.ErrDB)
	}

	p, err := newPlay(d.Markup, dao.PlayState{Dungeon: d.ID.String()})
	if err != nil {
		return dao.Session{}, ViewModel{}, err
	}
	if err := p.start(); err != nil {
		return dao.Session{}, ViewModel{}, serr.New("could not start dungeon", err, serr.ErrBadArgument)
	}
	view := p.view()

	s, err := gs.db.Sessions().Create(ctx, dao.Session{
		UserID:    userID,
		DungeonID: dungeonID,
		State:     p.snapshot(),
	})
	if err != nil {
		return dao.Session{}, ViewModel{}, serr.New("could not store session", err, serr.ErrDB)
	}

	return s, view, nil
}

// GetSession returns the session with the given ID and the scene its player
// currently sees, on behalf of who. Only the session's player and admins may
// read it.
func (gs GrottoServer) GetSession(ctx context.Context, id uuid.UUID, who dao.User) (dao.Session, ViewModel, error) {
	s, err := gs.loadSession(ctx, id, who)
	if err != nil {
		return dao.Session{}, ViewModel{}, err
	}

	d, err := gs.db.Dungeons().GetByID(ctx, s.DungeonID)
	if err != nil {
		return dao.Session{}, ViewModel{}, serr.New("could not get session's dungeon", err, serr.ErrDB)
	}

	p, err := newPlay(d.Markup, s.State)
	if err != nil {
		return dao.Session{}, ViewModel{}, err
	}

	return s, p.view(), nil
}

// AdvanceSession takes choice number n in the session with the given ID on
// behalf of who, and returns the updated session and the scene that follows.
// Only the session's player and admins may advance it.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no session with that ID
// exists, it will match serr.ErrNotFound. If who may not advance it, it will
// match serr.ErrPermissions. If n does not name an offered, available
// choice, it will match serr.ErrBadArgument. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB.
func (gs GrottoServer) AdvanceSession(ctx context.Context, id uuid.UUID, n int, who dao.User) (dao.Session, ViewModel, error) {
	s, err := gs.loadSession(ctx, id, who)
	if err != nil {
		return dao.Session{}, ViewModel{}, err
	}

	d, err := gs.db.Dungeons().GetByID(ctx, s.DungeonID)
	if err != nil {
		return dao.Session{}, ViewModel{}, serr.New("could not get session's dungeon", err, serr.ErrDB)
	}

	p, err := newPlay(d.Markup, s.State)
	if err != nil {
		return dao.Session{}, ViewModel{}, err
	}
	if err := p.choose(n); err != nil {
		return dao.Session{}, ViewModel{}, err
	}
	view := p.view()

	s.State = p.snapshot()
	updated, err := gs.db.Sessions().Update(ctx, s.ID, s)
	if err != nil {
		return dao.Session{}, ViewModel{}, serr.New("could not store session", err, serr.ErrDB)
	}

	return updated, view, nil
}

// DeleteSession deletes the session with the given ID on behalf of who. Only
// the session's player and admins may delete it.
func (gs GrottoServer) DeleteSession(ctx context.Context, id uuid.UUID, who dao.User) (dao.Session, error) {
	s, err := gs.loadSession(ctx, id, who)
	if err != nil {
		return dao.Session{}, err
	}

	deleted, err := gs.db.Sessions().Delete(ctx, s.ID)
	if err != nil {
		return dao.Session{}, serr.New("could not delete session", err, serr.ErrDB)
	}

	return deleted, nil
}

// loadSession fetches a session and applies the owner-or-admin access rule.
func (gs GrottoServer) loadSession(ctx context.Context, id uuid.UUID, who dao.User) (dao.Session, error) {
	s, err := gs.db.Sessions().GetByID(ctx, id)
	if err != nil {
		if err == dao.ErrNotFound {
			return dao.Session{}, serr.ErrNotFound
		}
		return dao.Session{}, serr.New("could not get session", err, serr.ErrDB)
	}

	if s.UserID != who.ID && who.Role != dao.Admin {
		return dao.Session{}, serr.ErrPermissions
	}

	return s, nil
}
