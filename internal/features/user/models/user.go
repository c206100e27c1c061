package models

import (
	"fmt"

	"github.com/rs/zerolog"
)

// User is a named roster entry with pick and victory counters.
//
// TimesPicked counts picks across all sessions, PickedThisInstance only the
// picks of the current session. Counters only grow through the Increment
// methods; no range checks are made, so negative values passed to NewUser or
// decoded by FromMap are kept as given.
//
// A User is not safe for concurrent mutation; callers serialise access.
type User struct {
	Name               string `json:"name"`
	TimesPicked        int    `json:"times_picked"`
	PickedThisInstance int    `json:"picked_this_instance"`
	TotalVictories     int    `json:"total_victories"`
}

// Option sets an optional counter in NewUser.
type Option func(*User)

func WithTimesPicked(n int) Option {
	return func(u *User) { u.TimesPicked = n }
}

func WithPickedThisInstance(n int) Option {
	return func(u *User) { u.PickedThisInstance = n }
}

func WithTotalVictories(n int) Option {
	return func(u *User) { u.TotalVictories = n }
}

// NewUser builds a user; counters not set by opts start at zero.
func NewUser(name string, opts ...Option) *User {
	u := &User{Name: name}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// IncrementTimesPicked records one pick in both the lifetime and session counters.
func (u *User) IncrementTimesPicked() {
	u.TimesPicked++
	u.PickedThisInstance++
}

// IncrementVictories records one win.
func (u *User) IncrementVictories() {
	u.TotalVictories++
}

// NewSession returns a copy with the session pick counter zeroed.
func (u *User) NewSession() *User {
	c := *u
	c.PickedThisInstance = 0
	return &c
}

func (u User) String() string {
	return fmt.Sprintf("%s (Picked %d times, Victories: %d)", u.Name, u.TimesPicked, u.TotalVictories)
}

// MarshalZerologObject logs the counters as structured fields.
func (u User) MarshalZerologObject(e *zerolog.Event) {
	e.Str(KeyName, u.Name).
		Int(KeyTimesPicked, u.TimesPicked).
		Int(KeyPickedThisInstance, u.PickedThisInstance).
		Int(KeyTotalVictories, u.TotalVictories)
}
