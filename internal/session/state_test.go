package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitialStateIsLoading(t *testing.T) {
	s := InitialState()

	assert.True(t, s.IsLoading)
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
}

func TestReduceLoginFlow(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	user := User{ID: 1, Name: "Alice", Email: "a@b.com", Role: "admin"}

	s := InitialState()

	s = Reduce(s, LoginStarted{})
	assert.True(t, s.IsLoading)
	assert.Empty(t, s.Err)

	s = Reduce(s, LoginSucceeded{User: user, At: at})
	assert.False(t, s.IsLoading)
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, &user, s.User)
	assert.Equal(t, at, s.LastActivity)
}

func TestReduceLoginFailure(t *testing.T) {
	s := Reduce(Reduce(InitialState(), LoginStarted{}), LoginFailed{Message: "invalid credentials"})

	assert.False(t, s.IsLoading)
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Equal(t, "invalid credentials", s.Err)
}

func TestReduceLogoutResetsEverything(t *testing.T) {
	at := time.Now()
	s := Reduce(InitialState(), LoginSucceeded{User: User{ID: 1}, At: at})

	s = Reduce(s, LoggedOut{})

	assert.Equal(t, State{}, s)
}

func TestReduceRefreshOutcomes(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Reduce(InitialState(), LoginSucceeded{User: User{ID: 1}, At: at})

	later := at.Add(time.Minute)
	s = Reduce(s, RefreshSucceeded{At: later})
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, later, s.LastActivity)

	s = Reduce(s, SessionExpired{Message: "session expired"})
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Equal(t, "session expired", s.Err)
}

func TestReduceActivityObserved(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Reduce(InitialState(), LoginSucceeded{User: User{ID: 1}, At: at})

	later := at.Add(30 * time.Second)
	s = Reduce(s, ActivityObserved{At: later})

	assert.Equal(t, later, s.LastActivity)
	assert.True(t, s.IsAuthenticated)
}
