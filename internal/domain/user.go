package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// User is an account known to the site. IsModerator grants pool and ledger management.
type User struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	IsModerator bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName returns the public short form of the user's name.
func (u User) DisplayName() string {
	return ShortName(u.FirstName, u.LastName)
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	Moderator   bool
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Actor converts the identity into a ledger actor.
func (i Identity) Actor() Actor {
	return Actor{Kind: ActorUser, ID: i.UserID, DisplayName: i.DisplayName}
}

// ShortName renders "First L." and degrades gracefully when parts are missing.
func ShortName(first, last string) string {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if last == "" {
		return first
	}
	initial, _ := utf8.DecodeRuneInString(last)
	if first == "" {
		return string(initial) + "."
	}
	return first + " " + string(initial) + "."
}
