package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/ashgrowen/grotto/server/dao"
	"github.com/ashgrowen/grotto/server/serr"
)

// LoginRequest is what clients send to POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries a fresh token.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// UserModel is the client-facing view of a user. The password hash never
// leaves the server.
type UserModel struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Created  string `json:"created"`
}

// CreateUserRequest is what clients send to POST /users. Role defaults to
// "unverified" when omitted.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// ProblemModel is one parse problem found in uploaded dungeon markup.
type ProblemModel struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// DungeonModel is the client-facing view of an uploaded dungeon. Problems
// holds whatever the parser flagged in the markup; a dungeon with problems
// is still stored and still playable, the author just gets told.
type DungeonModel struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Owner    string         `json:"owner"`
	Problems []ProblemModel `json:"problems"`
}

// CreateDungeonRequest is what authors send to POST /dungeons: a display
// name and the raw dungeon markup text.
type CreateDungeonRequest struct {
	Name   string `json:"name"`
	Markup string `json:"markup"`
}

// CreateSessionRequest is what clients send to POST /sessions.
type CreateSessionRequest struct {
	DungeonID string `json:"dungeon_id"`
}

// ChoiceRequest advances a session by picking one of the offered choices by
// its number.
type ChoiceRequest struct {
	Choice int `json:"choice"`
}

// ChoiceModel is one entry of a session's current choice list.
type ChoiceModel struct {
	Number    int    `json:"number"`
	Text      string `json:"text"`
	Available bool   `json:"available"`
}

// ViewModel is what the player currently sees in a session: the narration
// produced by the last advance, the choices on offer, and presentation
// state.
type ViewModel struct {
	Narration string        `json:"narration"`
	Choices   []ChoiceModel `json:"choices"`
	Music     string        `json:"music,omitempty"`
	Sounds    []string      `json:"sounds,omitempty"`
	Ended     bool          `json:"ended"`
}

// SessionModel is the client-facing view of a play session.
type SessionModel struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	DungeonID string    `json:"dungeon_id"`
	Created   string    `json:"created"`
	View      ViewModel `json:"view"`
}

func userModelFromDAO(u dao.User) UserModel {
	m := UserModel{
		ID:       u.ID.String(),
		Username: u.Username,
		Role:     u.Role.String(),
		Created:  u.Created.Format(time.RFC3339),
	}
	if u.Email != nil {
		m.Email = u.Email.Address
	}
	return m
}

func sessionModelFromDAO(s dao.Session, view ViewModel) SessionModel {
	return SessionModel{
		ID:        s.ID.String(),
		UserID:    s.UserID.String(),
		DungeonID: s.DungeonID.String(),
		Created:   s.Created.Format(time.RFC3339),
		View:      view,
	}
}

// parseJSON parses the request body into the given value. The returned
// error matches serr.ErrBodyUnmarshal for malformed bodies.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || mediaType != "application/json" {
		return serr.New("request content type must be application/json", serr.ErrBodyUnmarshal)
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return serr.New("could not read request body", err, serr.ErrBodyUnmarshal)
	}
	defer req.Body.Close()

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}

	return nil
}
