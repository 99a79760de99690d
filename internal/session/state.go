package session

import "time"

// User is the identity held by a session. It deliberately carries no
// credential material.
type User struct {
	ID    int64
	Name  string
	Email string
	Role  string
}

// State is the full client-side session state. It is owned by the reducer:
// the manager never mutates it except through Reduce.
type State struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	Err             string
	LastActivity    time.Time
}

// InitialState is the boot state: loading until the stored token has been
// validated or ruled out.
func InitialState() State {
	return State{IsLoading: true}
}

// Action is the tagged union of session state transitions.
type Action interface {
	isAction()
}

type LoginStarted struct{}

type LoginSucceeded struct {
	User User
	At   time.Time
}

type LoginFailed struct {
	Message string
}

type LoggedOut struct{}

type RefreshSucceeded struct {
	At time.Time
}

// SessionExpired covers both a rejected refresh and a missing refresh token.
type SessionExpired struct {
	Message string
}

type ActivityObserved struct {
	At time.Time
}

func (LoginStarted) isAction()     {}
func (LoginSucceeded) isAction()   {}
func (LoginFailed) isAction()      {}
func (LoggedOut) isAction()        {}
func (RefreshSucceeded) isAction() {}
func (SessionExpired) isAction()   {}
func (ActivityObserved) isAction() {}

// Reduce is the pure transition function. Unknown actions leave the state
// unchanged.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case LoginStarted:
		s.IsLoading = true
		s.Err = ""

	case LoginSucceeded:
		user := act.User
		s.User = &user
		s.IsAuthenticated = true
		s.IsLoading = false
		s.Err = ""
		s.LastActivity = act.At

	case LoginFailed:
		s.User = nil
		s.IsAuthenticated = false
		s.IsLoading = false
		s.Err = act.Message

	case LoggedOut:
		s = State{}

	case RefreshSucceeded:
		s.IsAuthenticated = true
		s.Err = ""
		s.LastActivity = act.At

	case SessionExpired:
		s.User = nil
		s.IsAuthenticated = false
		s.IsLoading = false
		s.Err = act.Message

	case ActivityObserved:
		s.LastActivity = act.At
	}

	return s
}
