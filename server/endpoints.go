package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/ashgrowen/grotto/internal/dungeon"
	"github.com/ashgrowen/grotto/internal/version"
	"github.com/ashgrowen/grotto/server/dao"
	"github.com/ashgrowen/grotto/server/serr"
	"github.com/google/uuid"
)

// requireAuth resolves the request's token to a user. A non-nil result means
// the request failed authentication and the result should be written as-is;
// the delay before it has already happened.
func (gs *GrottoServer) requireAuth(req *http.Request) (dao.User, *endpointResult) {
	user, err := gs.requireJWT(req.Context(), req)
	if err != nil {
		time.Sleep(gs.unauthedDelay)
		res := jsonUnauthorized("auth: %s", err.Error())
		return dao.User{}, &res
	}
	return user, nil
}

// POST /login: create a new login with token
func (gs *GrottoServer) doEndpoint_Login_POST(req *http.Request) endpointResult {
	loginData := LoginRequest{}
	err := parseJSON(req, &loginData)
	if err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}

	if loginData.Username == "" {
		return jsonBadRequest("username: property is empty or missing from request", "empty username")
	}
	if loginData.Password == "" {
		return jsonBadRequest("password: property is empty or missing from request", "empty password")
	}

	user, err := gs.Login(req.Context(), loginData.Username, loginData.Password)
	if err != nil {
		if errors.Is(err, serr.ErrBadCredentials) {
			time.Sleep(gs.unauthedDelay)
			return jsonUnauthorized(err.Error())
		}
		return jsonInternalServerError(err.Error())
	}

	// password is valid, generate token for user and return it.
	tok, err := gs.generateJWT(user)
	if err != nil {
		return jsonInternalServerError("could not generate JWT: " + err.Error())
	}

	resp := LoginResponse{
		Token:  tok,
		UserID: user.ID.String(),
	}
	return jsonCreated(resp, "user '"+user.Username+"' successfully logged in")
}

// DELETE /login/{id}: remove a login for some user (log out). Requires auth.
// Logging out anybody but self requires the Admin role.
func (gs *GrottoServer) doEndpoint_LoginID_DELETE(req *http.Request, id uuid.UUID) endpointResult {
	user, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}

	if id != user.ID && user.Role != dao.Admin {
		return jsonForbidden("user '%s' (role %s) logout of user %s: forbidden", user.Username, user.Role, id)
	}

	loggedOut, err := gs.Logout(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return jsonNotFound("logout target user %s not found", id)
		}
		return jsonInternalServerError("could not log out user: " + err.Error())
	}

	return jsonNoContent("user '"+loggedOut.Username+"' successfully logged out")
}

// POST /tokens: create a new token for self (auth required)
func (gs *GrottoServer) doEndpoint_Tokens_POST(req *http.Request) endpointResult {
	user, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}

	tok, err := gs.generateJWT(user)
	if err != nil {
		return jsonInternalServerError("could not generate JWT: " + err.Error())
	}

	resp := LoginResponse{
		Token:  tok,
		UserID: user.ID.String(),
	}
	return jsonCreated(resp, "user '"+user.Username+"' successfully created new token")
}

// POST /users: create a new user (admin auth required)
func (gs *GrottoServer) doEndpoint_Users_POST(req *http.Request) endpointResult {
	user, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}
	if user.Role != dao.Admin {
		return jsonForbidden("user '%s' (role %s) creating a user: forbidden", user.Username, user.Role)
	}

	createUser := CreateUserRequest{}
	if err := parseJSON(req, &createUser); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	if createUser.Username == "" {
		return jsonBadRequest("username: property is empty or missing from request", "empty username")
	}
	if createUser.Password == "" {
		return jsonBadRequest("password: property is empty or missing from request", "empty password")
	}

	role := dao.Unverified
	if createUser.Role != "" {
		var err error
		role, err = dao.ParseRole(createUser.Role)
		if err != nil {
			return jsonBadRequest("role: "+err.Error(), "bad role %q", createUser.Role)
		}
	}

	newUser, err := gs.CreateUser(req.Context(), createUser.Username, createUser.Password, createUser.Email, role)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return jsonConflict("A user with that username already exists", "user '%s' already exists", createUser.Username)
		} else if errors.Is(err, serr.ErrBadArgument) {
			return jsonBadRequest(err.Error(), err.Error())
		}
		return jsonInternalServerError("could not create user: " + err.Error())
	}

	return jsonCreated(userModelFromDAO(newUser), "user '%s' (%s) created", newUser.Username, newUser.ID)
}

// GET /users: get all users (auth required)
func (gs *GrottoServer) doEndpoint_Users_GET(req *http.Request) endpointResult {
	_, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}

	users, err := gs.GetAllUsers(req.Context())
	if err != nil {
		return jsonInternalServerError("could not get users: " + err.Error())
	}

	resp := make([]UserModel, len(users))
	for i := range users {
		resp[i] = userModelFromDAO(users[i])
	}

	return jsonOK(resp, "%d users returned", len(resp))
}

// GET /users/{id}: get info on a user (auth required)
func (gs *GrottoServer) doEndpoint_UserID_GET(req *http.Request, id uuid.UUID) endpointResult {
	_, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}

	user, err := gs.GetUser(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return jsonNotFound("user %s not found", id)
		}
		return jsonInternalServerError("could not get user: " + err.Error())
	}

	return jsonOK(userModelFromDAO(user), "user '%s' returned", user.Username)
}

// DELETE /users/{id}: delete a user (self or admin auth required)
func (gs *GrottoServer) doEndpoint_UserID_DELETE(req *http.Request, id uuid.UUID) endpointResult {
	user, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}
	if id != user.ID && user.Role != dao.Admin {
		return jsonForbidden("user '%s' (role %s) deleting user %s: forbidden", user.Username, user.Role, id)
	}

	deleted, err := gs.DeleteUser(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return jsonNotFound("user %s not found", id)
		}
		return jsonInternalServerError("could not delete user: " + err.Error())
	}

	return jsonNoContent("user '%s' (%s) deleted", deleted.Username, deleted.ID)
}

// POST /dungeons: upload new dungeon markup (auth required). The response
// includes every problem the parser found in the markup, so authors see
// their mistakes without blocking the upload.
func (gs *GrottoServer) doEndpoint_Dungeons_POST(req *http.Request) endpointResult {
	user, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}

	createDungeon := CreateDungeonRequest{}
	if err := parseJSON(req, &createDungeon); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}

	d, problems, err := gs.CreateDungeon(req.Context(), user.ID, createDungeon.Name, createDungeon.Markup)
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return jsonBadRequest(err.Error(), err.Error())
		}
		return jsonInternalServerError("could not create dungeon: " + err.Error())
	}

	return jsonCreated(dungeonModelFromDAO(d, problems), "dungeon '%s' (%s) created with %d problems", d.Name, d.ID, len(problems))
}

// GET /dungeons: get info on all dungeons
func (gs *GrottoServer) doEndpoint_Dungeons_GET(req *http.Request) endpointResult {
	ds, err := gs.GetAllDungeons(req.Context())
	if err != nil {
		return jsonInternalServerError("could not get dungeons: " + err.Error())
	}

	resp := make([]DungeonModel, len(ds))
	for i := range ds {
		resp[i] = dungeonModelFromDAO(ds[i], nil)
	}

	return jsonOK(resp, "%d dungeons returned", len(resp))
}

// GET /dungeons/{id}: get info on a dungeon, including its current parse
// problems
func (gs *GrottoServer) doEndpoint_DungeonID_GET(req *http.Request, id uuid.UUID) endpointResult {
	d, problems, err := gs.GetDungeon(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return jsonNotFound("dungeon %s not found", id)
		}
		return jsonInternalServerError("could not get dungeon: " + err.Error())
	}

	return jsonOK(dungeonModelFromDAO(d, problems), "dungeon '%s' returned", d.Name)
}

// DELETE /dungeons/{id}: delete a dungeon (owner or admin auth required)
func (gs *GrottoServer) doEndpoint_DungeonID_DELETE(req *http.Request, id uuid.UUID) endpointResult {
	user, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}

	deleted, err := gs.DeleteDungeon(req.Context(), id, user)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return jsonNotFound("dungeon %s not found", id)
		} else if errors.Is(err, serr.ErrPermissions) {
			return jsonForbidden("user '%s' (role %s) deleting dungeon %s: forbidden", user.Username, user.Role, id)
		}
		return jsonInternalServerError("could not delete dungeon: " + err.Error())
	}

	return jsonNoContent("dungeon '%s' (%s) deleted", deleted.Name, deleted.ID)
}

// POST /sessions: start playing a dungeon (auth required)
func (gs *GrottoServer) doEndpoint_Sessions_POST(req *http.Request) endpointResult {
	user, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}

	createSession := CreateSessionRequest{}
	if err := parseJSON(req, &createSession); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}
	dungeonID, err := uuid.Parse(createSession.DungeonID)
	if err != nil {
		return jsonBadRequest("dungeon_id: not a valid UUID", "bad dungeon ID %q", createSession.DungeonID)
	}

	s, view, err := gs.CreateSession(req.Context(), user.ID, dungeonID)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return jsonNotFound("dungeon %s not found", dungeonID)
		} else if errors.Is(err, serr.ErrBadArgument) {
			return jsonBadRequest(err.Error(), err.Error())
		}
		return jsonInternalServerError("could not create session: " + err.Error())
	}

	return jsonCreated(sessionModelFromDAO(s, view), "session %s created for user '%s'", s.ID, user.Username)
}

// GET /sessions/{id}: the current scene of a session (owner or admin auth
// required)
func (gs *GrottoServer) doEndpoint_SessionID_GET(req *http.Request, id uuid.UUID) endpointResult {
	user, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}

	s, view, err := gs.GetSession(req.Context(), id, user)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return jsonNotFound("session %s not found", id)
		} else if errors.Is(err, serr.ErrPermissions) {
			return jsonForbidden("user '%s' (role %s) reading session %s: forbidden", user.Username, user.Role, id)
		}
		return jsonInternalServerError("could not get session: " + err.Error())
	}

	return jsonOK(sessionModelFromDAO(s, view), "session %s returned", s.ID)
}

// POST /sessions/{id}/choices: take a choice and advance the session (owner
// or admin auth required)
func (gs *GrottoServer) doEndpoint_SessionID_Choices_POST(req *http.Request, id uuid.UUID) endpointResult {
	user, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}

	choice := ChoiceRequest{}
	if err := parseJSON(req, &choice); err != nil {
		return jsonBadRequest(err.Error(), err.Error())
	}

	s, view, err := gs.AdvanceSession(req.Context(), id, choice.Choice, user)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return jsonNotFound("session %s not found", id)
		} else if errors.Is(err, serr.ErrPermissions) {
			return jsonForbidden("user '%s' (role %s) advancing session %s: forbidden", user.Username, user.Role, id)
		} else if errors.Is(err, serr.ErrBadArgument) {
			return jsonBadRequest(err.Error(), err.Error())
		}
		return jsonInternalServerError("could not advance session: " + err.Error())
	}

	return jsonOK(sessionModelFromDAO(s, view), "session %s advanced by choice %d", s.ID, choice.Choice)
}

// DELETE /sessions/{id}: abandon a session (owner or admin auth required)
func (gs *GrottoServer) doEndpoint_SessionID_DELETE(req *http.Request, id uuid.UUID) endpointResult {
	user, authRes := gs.requireAuth(req)
	if authRes != nil {
		return *authRes
	}

	deleted, err := gs.DeleteSession(req.Context(), id, user)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return jsonNotFound("session %s not found", id)
		} else if errors.Is(err, serr.ErrPermissions) {
			return jsonForbidden("user '%s' (role %s) deleting session %s: forbidden", user.Username, user.Role, id)
		}
		return jsonInternalServerError("could not delete session: " + err.Error())
	}

	return jsonNoContent("session %s deleted", deleted.ID)
}

// GET /info: version info on the server and engine
func (gs *GrottoServer) doEndpoint_Info_GET(req *http.Request) endpointResult {
	resp := map[string]interface{}{
		"version": map[string]string{
			"server": version.ServerCurrent,
			"engine": version.Current,
		},
	}
	return jsonOK(resp, "info returned")
}

func dungeonModelFromDAO(d dao.Dungeon, problems []dungeon.Problem) DungeonModel {
	m := DungeonModel{
		ID:       d.ID.String(),
		Name:     d.Name,
		Owner:    d.Owner.String(),
		Problems: []ProblemModel{},
	}
	for _, p := range problems {
		m.Problems = append(m.Problems, ProblemModel{Line: p.Line, Message: p.Message})
	}
	return m
}
