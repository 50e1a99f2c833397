// Package gerr defines the play-facing error type used by the engine. A
// grotto error carries two messages: one written for the player at the
// prompt and a technical one for logs and diagnosis.
package gerr

import "fmt"

// playError is an error caused by player input or by content the player just
// triggered. It includes a human-readable message to show at the prompt as
// well as a typical more technical "error message" style message.
type playError struct {
	msg   string
	human string
	wrap  error
}

func (e *playError) Error() string {
	return e.msg
}

// PlayerMessage shows the message that should be displayed in-game to
// describe the error.
func (e *playError) PlayerMessage() string {
	return e.human
}

// Unwrap gives the error that the playError wraps, if it wraps one.
func (e *playError) Unwrap() error {
	return e.wrap
}

// Play returns a new error that has both the message to show the player and
// the technical description of the error.
func Play(player, technical string) error {
	if technical == "" {
		technical = fmt.Sprintf("got playError(%q)", player)
	}
	return &playError{
		msg:   technical,
		human: player,
	}
}

// Playf returns a new error with a formatted player message and an
// automatically generated Error() description.
func Playf(playerFormat string, a ...interface{}) error {
	return Play(fmt.Sprintf(playerFormat, a...), "")
}

// Wrap returns a new error that has both the message to show the player and
// the technical description of the error, and that wraps the given error.
func Wrap(e error, player, technical string) error {
	if technical == "" {
		technical = fmt.Sprintf("got playError(%q)", player)
	}
	return &playError{
		msg:   technical,
		human: player,
		wrap:  e,
	}
}

// Wrapf returns a new error with a formatted player message that wraps the
// given error.
func Wrapf(e error, playerFormat string, a ...interface{}) error {
	return Wrap(e, fmt.Sprintf(playerFormat, a...), "")
}

// PlayerMessage gets the message to display at the prompt for the given
// error. If it is not a player-facing error, err.Error() is returned.
func PlayerMessage(err error) string {
	if pErr, ok := err.(*playError); ok {
		return pErr.PlayerMessage()
	}
	return err.Error()
}
